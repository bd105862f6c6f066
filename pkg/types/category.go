package types

import "time"

// Category is reference data for grouping components. Components store
// their category as free text; nothing enforces a relation to this table.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
