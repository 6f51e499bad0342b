package models

// DisplayItem is a card-ready projection of a remote record.
type DisplayItem struct {
	ID             string `json:"id" yaml:"id"`
	PrimaryLabel   string `json:"primaryLabel" yaml:"primaryLabel"`
	SecondaryLabel string `json:"secondaryLabel,omitempty" yaml:"secondaryLabel"`
	ImageURL       string `json:"imageUrl,omitempty" yaml:"imageUrl"`
	LinkTarget     string `json:"linkTarget,omitempty" yaml:"linkTarget"`
}

// WithImage returns a copy of the item with its image resolved.
func (d DisplayItem) WithImage(url string) DisplayItem {
	d.ImageURL = url
	return d
}

// DiningItem is one entry of a dining recommendation panel.
type DiningItem struct {
	Name           string  `json:"name"`
	Address        string  `json:"address,omitempty"`
	Rating         float64 `json:"rating,omitempty"`
	PriceLevel     string  `json:"priceLevel,omitempty"`
	PriceIndicator string  `json:"priceIndicator,omitempty"`
	ImageURL       string  `json:"imageUrl,omitempty"`
}
