package models

import "time"

// HistoryFilter narrows history queries. Zero values disable a filter.
type HistoryFilter struct {
	From     time.Time
	To       time.Time
	UnitCode string
	Segment  Segment
}

// TotalsPoint is the aggregate of one run.
type TotalsPoint struct {
	ExtractedAt time.Time `json:"extraction_timestamp"`
	Totals
}

// UnitPoint is the aggregate of one unit within one run.
type UnitPoint struct {
	ExtractedAt time.Time `json:"extraction_timestamp"`
	UnitCode    string    `json:"unit_code"`
	UnitName    string    `json:"unit_name"`
	Totals
}

// SegmentPoint is the aggregate of one segment within one run.
type SegmentPoint struct {
	ExtractedAt time.Time `json:"extraction_timestamp"`
	Segment     Segment   `json:"segment"`
	Totals
}
