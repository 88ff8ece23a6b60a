package models

import "github.com/shopspring/decimal"

// TimeLayout is the layout used for every timestamp stored in the database.
const TimeLayout = "2006-01-02 15:04:05"

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains listing metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
}

// Item is a tracked unit of stock, keyed by name.
type Item struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Time        string          `json:"time"`
}

// ItemUpdate carries the new values for an edit. The name may differ from the
// item being edited, which renames it.
type ItemUpdate struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// UsageRecord is one consumption event, appended when an edit lowers stock.
type UsageRecord struct {
	ID           int    `json:"id"`
	ItemName     string `json:"item_name"`
	QuantitySold int    `json:"quantity_sold"`
	TimeSold     string `json:"time_sold"`
}

// UsageTotal is a row of the usage report.
type UsageTotal struct {
	ItemName string `json:"item_name"`
	Total    int    `json:"total"`
}

// ChartBar is one bar of the stock chart.
type ChartBar struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Alert kinds.
const (
	AlertLowStock   = "low_stock"
	AlertHighDemand = "high_demand"
)

// Alert is a classified signal raised by the demand monitor.
type Alert struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	ItemName   string  `json:"item_name"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
	DurationMS int     `json:"duration_ms"`
	Quantity   int     `json:"quantity"`
	Value      float64 `json:"value"`
	Threshold  float64 `json:"threshold"`
	CreatedAt  string  `json:"created_at"`
}

// Notification is a persisted alert.
type Notification struct {
	ID         int     `json:"id"`
	Type       string  `json:"type"`
	Severity   string  `json:"severity"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	ItemName   string  `json:"item_name"`
	DurationMS int     `json:"duration_ms"`
	ReadAt     *string `json:"read_at"`
	CreatedAt  string  `json:"created_at"`
}

// Settings are the operator-tunable monitor parameters.
type Settings struct {
	MinQtyThreshold int `json:"min_qty_threshold"`
	WindowSize      int `json:"window_size"`
}

// AuditEntry is a row of the audit trail.
type AuditEntry struct {
	ID        int    `json:"id"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}
