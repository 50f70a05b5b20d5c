package model

// Asset describes one simulated tradable asset.
type Asset struct {
	Symbol    string  `json:"symbol"`
	BasePrice float64 `json:"base_price"` // seed price for the synthetic history
}
