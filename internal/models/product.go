package models

// Product represents a menu item sold at the kiosk
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
	Enabled  bool    `json:"enabled"`
}

// ProductDraft is the client-supplied part of a product, sent as the
// "product" JSON field of the multipart form. The id and image path
// are assigned server-side. Enabled is a pointer so an omitted field
// can default to true on create.
type ProductDraft struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Enabled  *bool   `json:"enabled,omitempty"`
}
