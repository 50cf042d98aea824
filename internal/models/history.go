package models

// HistoryPoint is one trend sample. Timestamp is unix milliseconds.
type HistoryPoint struct {
	Timestamp     int64    `json:"timestamp"`
	OutdoorTemp   float64  `json:"outdoorTemp"`
	ReturnTemp    float64  `json:"returnTemp"`
	ReturnTarget  float64  `json:"returnTarget"`
	FlowTemp      float64  `json:"flowTemp"`
	AvgRoomTemp   *float64 `json:"avgRoomTemp"`
	AvgRoomTarget *float64 `json:"avgRoomTarget"`
}

type HistorySettings struct {
	Enabled bool `json:"enabled"`
}
