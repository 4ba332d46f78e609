package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor identifies who performed a mutation, together with the request
// provenance recorded in the audit trail. Identity is attached per request
// by the upstream auth layer and threaded through explicitly.
type Actor struct {
	ID        string `json:"id"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}
