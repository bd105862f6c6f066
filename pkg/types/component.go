package types

import (
	"errors"
	"time"
)

// Component is a named, versioned snippet of UI source code with metadata.
type Component struct {
	ID          string    `json:"id"`          // UUID v7, generated on creation, never changes.
	Name        string    `json:"name"`        // Human-readable name (required).
	Description string    `json:"description"` // Optional free text.
	Code        string    `json:"code"`        // Source text (required).
	Category    string    `json:"category"`    // Free-text category; not a foreign key.
	Tags        []string  `json:"tags"`        // Ordered tags; never nil once read back.
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ComponentCreate carries the fields of a component to be created.
type ComponentCreate struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// Validate checks the required fields.
func (c ComponentCreate) Validate() error {
	if c.Name == "" {
		return ErrInvalidName
	}
	if c.Code == "" {
		return ErrEmptyCode
	}
	return nil
}

// ComponentPatch is a partial update. Nil fields are left untouched.
type ComponentPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Code        *string   `json:"code,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p ComponentPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Code == nil &&
		p.Category == nil && p.Tags == nil
}

// Validate rejects patches that would clear a required field.
func (p ComponentPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return ErrInvalidName
	}
	if p.Code != nil && *p.Code == "" {
		return ErrEmptyCode
	}
	return nil
}

// ComponentVersion is an immutable snapshot of a component's code.
type ComponentVersion struct {
	ID          string    `json:"id"`
	ComponentID string    `json:"componentId"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Domain errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("invalid name")
	ErrEmptyCode   = errors.New("code must not be empty")
)
