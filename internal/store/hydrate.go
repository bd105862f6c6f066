package store

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// componentColumns is the column list every component query selects.
const componentColumns = "id, name, description, code, category, tags, created_at, updated_at"

// timeOrder returns an ORDER BY key for a timestamp column. Files written
// with CURRENT_TIMESTAMP hold "2006-01-02 15:04:05"; swapping the space for
// a T puts those values in the same lexical order as types.TimeLayout.
func timeOrder(col string) string {
	return "replace(" + col + ", ' ', 'T')"
}

// text reads a column as a string. NULL reads as "".
func text(row types.Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// nullable stores an empty string as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// encodeTags serializes tags as a JSON array. Nil encodes as [].
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

// decodeTags parses a stored tags value. NULL, empty, and JSON null all
// read back as an empty slice.
func decodeTags(v any) ([]string, error) {
	raw := ""
	switch tv := v.(type) {
	case string:
		raw = tv
	case []byte:
		raw = string(tv)
	}
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func hydrateComponent(row types.Row) (types.Component, error) {
	c := types.Component{
		ID:          text(row, "id"),
		Name:        text(row, "name"),
		Description: text(row, "description"),
		Code:        text(row, "code"),
		Category:    text(row, "category"),
	}
	var err error
	if c.Tags, err = decodeTags(row["tags"]); err != nil {
		return types.Component{}, fmt.Errorf("component %s: %w", c.ID, err)
	}
	if c.CreatedAt, err = types.ParseTime(row["created_at"]); err != nil {
		return types.Component{}, fmt.Errorf("component %s created_at: %w", c.ID, err)
	}
	if c.UpdatedAt, err = types.ParseTime(row["updated_at"]); err != nil {
		return types.Component{}, fmt.Errorf("component %s updated_at: %w", c.ID, err)
	}
	return c, nil
}

func hydrateComponents(rows []types.Row) ([]types.Component, error) {
	out := make([]types.Component, 0, len(rows))
	for _, row := range rows {
		c, err := hydrateComponent(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func hydrateVersion(row types.Row) (types.ComponentVersion, error) {
	v := types.ComponentVersion{
		ID:          text(row, "id"),
		ComponentID: text(row, "component_id"),
		Code:        text(row, "code"),
	}
	var err error
	if v.CreatedAt, err = types.ParseTime(row["created_at"]); err != nil {
		return types.ComponentVersion{}, fmt.Errorf("version %s created_at: %w", v.ID, err)
	}
	return v, nil
}

func cloneComponent(c types.Component) types.Component {
	c.Tags = append([]string{}, c.Tags...)
	return c
}

func cloneComponents(list []types.Component) []types.Component {
	out := make([]types.Component, len(list))
	for i, c := range list {
		out[i] = cloneComponent(c)
	}
	return out
}
