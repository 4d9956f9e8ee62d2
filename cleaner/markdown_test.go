package cleaner

import (
	"strings"
	"testing"
)

func TestToMarkdown(t *testing.T) {
	m := NewMarkdown()
	tests := []struct {
		name     string
		html     string
		pageURL  string
		contains []string
	}{
		{
			name:     "emphasis and list",
			html:     `<p>Caneca de <strong>metal</strong></p><ul><li>350 ml</li><li>Esmaltada</li></ul>`,
			pageURL:  "https://loja.com.br/caneca",
			contains: []string{"**metal**", "- 350 ml", "- Esmaltada"},
		},
		{
			name:     "relative image resolved",
			html:     `<p><img src="/img/medidas.png" alt="medidas"></p>`,
			pageURL:  "https://loja.com.br/p/mesa?sku=1",
			contains: []string{"![medidas](https://loja.com.br/img/medidas.png)"},
		},
		{
			name:     "dimensions table",
			html:     `<table><tr><th>Peso</th><th>Cor</th></tr><tr><td>2 kg</td><td>Azul</td></tr></table>`,
			pageURL:  "https://loja.com.br/p",
			contains: []string{"| Peso", "| 2 kg"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToMarkdown(tt.html, tt.pageURL)
			if err != nil {
				t.Fatalf("ToMarkdown: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("markdown %q missing %q", got, want)
				}
			}
		})
	}
}

func TestToMarkdown_Empty(t *testing.T) {
	got, err := NewMarkdown().ToMarkdown("  \n", "https://loja.com.br/p")
	if err != nil || got != "" {
		t.Errorf("ToMarkdown(blank) = %q, %v; want empty", got, err)
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://loja.com.br/p/1?x=2", "https://loja.com.br"},
		{"http://localhost:8080/a", "http://localhost:8080"},
		{"not a url", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := origin(tt.in); got != tt.want {
				t.Errorf("origin(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
