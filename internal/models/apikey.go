package models

import "time"

// APIKey is a caller credential issued to a customer. Keys are opaque
// 32-character alphanumeric strings; uniqueness is enforced by the database.
type APIKey struct {
	ID         string    `db:"id" json:"id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	Key        string    `db:"api_key" json:"api_key"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

// Pagination carries listing metadata in the response envelope.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
