package events

import "time"

// PageEvent is one access-log record for a served request
type PageEvent struct {
	RequestID string `json:"request_id"`
	Host      string `json:"host"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Route     string `json:"route"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer"`

	Slug     string `json:"slug"`
	Category string `json:"category"`
	Sections int    `json:"sections"` // rendered after filtering
	Dropped  int    `json:"dropped"`  // removed by the pipeline
	APIBase  string `json:"api_base"`

	LeadOutcome string `json:"lead_outcome"`

	StatusCode int     `json:"status_code"`
	PageSize   int     `json:"page_size"`
	ServeTime  float64 `json:"serve_time"` // seconds

	CreatedAt time.Time `json:"created_at"`
}
