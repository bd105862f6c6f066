package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestComponentCreate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		create  ComponentCreate
		wantErr error
	}{
		{"valid", ComponentCreate{Name: "Button", Code: "<button/>"}, nil},
		{"missing name", ComponentCreate{Code: "<button/>"}, ErrInvalidName},
		{"missing code", ComponentCreate{Name: "Button"}, ErrEmptyCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.create.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComponentPatch(t *testing.T) {
	t.Run("zero patch is empty", func(t *testing.T) {
		assert.True(t, ComponentPatch{}.Empty())
	})

	t.Run("any field makes it non-empty", func(t *testing.T) {
		tags := []string{}
		assert.False(t, ComponentPatch{Tags: &tags}.Empty())
		assert.False(t, ComponentPatch{Description: strPtr("")}.Empty())
	})

	t.Run("clearing code is rejected", func(t *testing.T) {
		assert.ErrorIs(t, ComponentPatch{Code: strPtr("")}.Validate(), ErrEmptyCode)
	})

	t.Run("clearing name is rejected", func(t *testing.T) {
		assert.ErrorIs(t, ComponentPatch{Name: strPtr("")}.Validate(), ErrInvalidName)
	})

	t.Run("clearing description is allowed", func(t *testing.T) {
		assert.NoError(t, ComponentPatch{Description: strPtr("")}.Validate())
	})
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 9, 10, 11, 12, 500, time.UTC)

	tests := []struct {
		name  string
		value any
		want  time.Time
	}{
		{"layout text", FormatTime(want), want},
		{"rfc3339", want.Format(time.RFC3339Nano), want},
		{"current_timestamp", "2024-03-09 10:11:12", want.Truncate(time.Second)},
		{"unix seconds", want.Unix(), want.Truncate(time.Second)},
		{"time value", want, want},
		{"bytes", []byte(FormatTime(want)), want},
		{"nil", nil, time.Time{}},
		{"empty string", "", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}

	t.Run("garbage fails", func(t *testing.T) {
		_, err := ParseTime("yesterday")
		assert.Error(t, err)
	})

	t.Run("unsupported type fails", func(t *testing.T) {
		_, err := ParseTime(3.5)
		assert.Error(t, err)
	})
}

func TestFormatTime_LexicalOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := FormatTime(base.Add(100 * time.Millisecond))
	later := FormatTime(base.Add(time.Second))
	assert.Less(t, earlier, later)
	assert.Len(t, earlier, len(later))
}
