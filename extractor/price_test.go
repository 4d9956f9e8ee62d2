package extractor

import "testing"

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"comma decimal with dot thousands", "R$ 1.234,56", "1234.56"},
		{"dot decimal with comma thousands", "$1,234.56", "1234.56"},
		{"lone comma is decimal", "199,90", "199.90"},
		{"lone dot is decimal", "199.9", "199.9"},
		{"repeated dots group thousands", "1.234.567", "1234567"},
		{"repeated commas group thousands", "1,234,567", "1234567"},
		{"first amount wins", "De R$ 299,00 por R$ 199,00", "299.00"},
		{"inner whitespace removed", " 12 345,67 ", "12345.67"},
		{"trailing separator dropped", "R$ 10.", "10"},
		{"integer", "R$ 89", "89"},
		{"no digits", "Consulte", ""},
		{"separators only", "R$ ,.", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePrice(tt.raw); got != tt.want {
				t.Errorf("NormalizePrice(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizePrice_Idempotent(t *testing.T) {
	inputs := []string{
		"R$ 1.234,56", "$1,234.56", "199,90", "199.9", "1.234.567",
		"De R$ 299,00 por R$ 199,00", ".99", "0,5", "abc", "",
	}
	for _, in := range inputs {
		once := NormalizePrice(in)
		if twice := NormalizePrice(once); twice != once {
			t.Errorf("NormalizePrice not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizePrice_OutputShape(t *testing.T) {
	for _, in := range []string{"R$ 1.234,56", "1,2,3.4", "12.34.56,7", "9"} {
		out := NormalizePrice(in)
		dots := 0
		for _, r := range out {
			switch {
			case r == '.':
				dots++
			case r < '0' || r > '9':
				t.Errorf("NormalizePrice(%q) = %q contains %q", in, out, r)
			}
		}
		if dots > 1 {
			t.Errorf("NormalizePrice(%q) = %q has %d dots", in, out, dots)
		}
	}
}
