package extractor

import (
	"net/url"
	"strings"
)

// ResolveURL resolves ref against base. When either fails to parse, ref is
// returned unchanged.
func ResolveURL(ref, base string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// IsInlineImage reports whether ref is a data: URI.
func IsInlineImage(ref string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ref)), "data:")
}

// ResolveImages drops blank and data: entries from refs and resolves the
// rest against base, keeping their order. The result is never nil.
func ResolveImages(refs []string, base string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" || IsInlineImage(ref) {
			continue
		}
		out = append(out, ResolveURL(ref, base))
	}
	return out
}
