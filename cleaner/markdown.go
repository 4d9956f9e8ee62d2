// Package cleaner renders sanitized product descriptions as Markdown.
package cleaner

import (
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// Markdown converts description HTML to Markdown. It is safe for
// concurrent use.
type Markdown struct {
	conv *converter.Converter
}

// NewMarkdown builds the converter. Technical-data tables in descriptions
// keep their structure with minimal cell padding.
func NewMarkdown() *Markdown {
	return &Markdown{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// ToMarkdown converts descriptionHTML. Relative links and images resolve
// against the origin of pageURL.
func (m *Markdown) ToMarkdown(descriptionHTML, pageURL string) (string, error) {
	if strings.TrimSpace(descriptionHTML) == "" {
		return "", nil
	}
	md, err := m.conv.ConvertString(descriptionHTML, converter.WithDomain(origin(pageURL)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

func origin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
