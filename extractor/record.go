package extractor

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/use-agent/prodex/models"
)

// descriptionPolicy keeps formatting markup. Scripts and event handler
// attributes do not survive it.
var descriptionPolicy = bluemonday.UGCPolicy()

// SanitizeHTML cleans description markup for storage and display.
func SanitizeHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	return strings.TrimSpace(descriptionPolicy.Sanitize(fragment))
}

func finalize(f fields, sourceURL string) models.ProductRecord {
	rec := models.ProductRecord{
		Title:           strings.TrimSpace(f.title),
		Price:           NormalizePrice(f.price),
		Description:     strings.TrimSpace(f.description),
		DescriptionHTML: SanitizeHTML(f.descriptionHTML),
		Images:          ResolveImages(f.images, sourceURL),
	}
	if rec.DescriptionHTML == "" {
		rec.DescriptionHTML = rec.Description
	}
	return rec
}
