package models

// ProductRecord is the canonical product extracted from a single page.
//
// Every field is always present. Absent values are "" and an empty Images
// slice, which serializes as [] rather than null.
type ProductRecord struct {
	Title string `json:"title"`

	// Price is a decimal string with digits and at most one '.', or "".
	Price string `json:"price"`

	Description string `json:"description"`

	// DescriptionHTML is sanitized markup. It falls back to Description
	// when no markup was found.
	DescriptionHTML string `json:"descriptionHtml"`

	// Images holds absolute URLs in the order the page listed them.
	Images []string `json:"images"`
}

// EmptyRecord returns a record with every field at its absent value.
func EmptyRecord() ProductRecord {
	return ProductRecord{Images: []string{}}
}

// IsEmpty reports whether no field carries a value.
func (r ProductRecord) IsEmpty() bool {
	return r.Title == "" && r.Price == "" && r.Description == "" && len(r.Images) == 0
}
