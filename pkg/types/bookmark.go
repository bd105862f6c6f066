package types

import "time"

// Bookmark marks a component as bookmarked. At most one bookmark exists per
// component; its presence is the bookmarked state.
type Bookmark struct {
	ID          string    `json:"id"`
	ComponentID string    `json:"componentId"`
	CreatedAt   time.Time `json:"createdAt"`
}
