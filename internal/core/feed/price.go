package feed

// PriceData is a price observed at a normalized timestamp.
type PriceData struct {
	Price     int64  `json:"price"`
	Timestamp uint64 `json:"timestamp"`
}

// UpdateEvent is emitted once per registered asset for every successful ingestion.
type UpdateEvent struct {
	Asset     Asset  `json:"asset"`
	Index     int    `json:"index"`
	Timestamp uint64 `json:"timestamp"`
	Changed   bool   `json:"changed"`
	Price     int64  `json:"price"`
}
