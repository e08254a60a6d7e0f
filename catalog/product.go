package catalog

import "strings"

// Placeholders used when a source does not expose a field.
const (
	PlaceholderName         = "Name not available"
	PlaceholderSKU          = "SKU not available"
	PlaceholderPrice        = "Price not available"
	PlaceholderSite         = "Unknown site"
	PlaceholderAvailability = "Availability not available"
)

// Product is a single search hit from one provider.
//
// Every field is always populated: NewProduct substitutes a placeholder for
// anything the source left out. Products are values and are never mutated
// after construction.
type Product struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Price        string `json:"price"`
	Image        string `json:"image"`
	Link         string `json:"link"`
	Site         string `json:"site"`
	Availability string `json:"availability"`
	Description  string `json:"description"`
	Manufacturer string `json:"manufacturer"`
}

// ProductFields holds raw, possibly empty, values scraped from a source.
type ProductFields struct {
	Name         string
	SKU          string
	Price        string
	Image        string
	Link         string
	Site         string
	Availability string
	Description  string
	Manufacturer string
}

// NewProduct builds a Product, trimming values and filling placeholders.
func NewProduct(f ProductFields) Product {
	return Product{
		Name:         orDefault(f.Name, PlaceholderName),
		SKU:          orDefault(f.SKU, PlaceholderSKU),
		Price:        orDefault(f.Price, PlaceholderPrice),
		Image:        orDefault(f.Image, ""),
		Link:         orDefault(f.Link, ""),
		Site:         orDefault(f.Site, PlaceholderSite),
		Availability: orDefault(f.Availability, PlaceholderAvailability),
		Description:  orDefault(f.Description, ""),
		Manufacturer: orDefault(f.Manufacturer, ""),
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
