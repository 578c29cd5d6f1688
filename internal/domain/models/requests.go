package models

// SubscribeRequest switches the active stream subscription.
type SubscribeRequest struct {
	SymbolScope string `json:"symbol_scope" validate:"required"`
	Market      string `json:"market" default:"us" validate:"required"`
	TopK        int    `json:"k" default:"5" validate:"gte=1,lte=50"`
}

// Params converts the request to stream parameters.
func (r *SubscribeRequest) Params() StreamParams {
	return StreamParams{
		SymbolScope: r.SymbolScope,
		Market:      r.Market,
		TopK:        r.TopK,
	}
}

// HistoryRequest filters the persisted signal history.
type HistoryRequest struct {
	Ticker string `query:"ticker"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
