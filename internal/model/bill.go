package model

import "time"

// Bill is a read-only electricity bill row, keyed by phone and month.
type Bill struct {
	ID           int64     `json:"id"`
	Phone        string    `json:"phone"`
	Month        string    `json:"month"`
	CustomerName string    `json:"customerName"`
	CustomerCode string    `json:"customerCode"`
	KWh          float64   `json:"kWh"`
	Amount       float64   `json:"amount"`
	DueDates     string    `json:"dueDates"`
	RawContent   string    `json:"rawContent"`
	CreatedAt    time.Time `json:"-"`
}
