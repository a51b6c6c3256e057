package models

// Requests for the signal HTTP endpoints. Defined in domain for consistency and reuse.

type LatestSignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}

type AnalyzeSignalRequest struct {
	Symbol string    `json:"symbol" default:"UNKNOWN" validate:"required,max=32"`
	Prices []float64 `json:"prices" validate:"required,max=10000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"120" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
}
