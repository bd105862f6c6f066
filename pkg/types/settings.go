package types

import "errors"

// UI setting keys recognized by the settings store. Other keys found in
// storage are ignored on load.
const (
	SettingSidebarCollapsed       = "sidebarCollapsed"
	SettingVersionHistoryExpanded = "versionHistoryExpanded"
	SettingPreviewWidth           = "previewWidth"
	SettingLastActiveTab          = "lastActiveTab"
)

// Settings holds the typed UI preferences.
type Settings struct {
	SidebarCollapsed       bool   `json:"sidebarCollapsed"`
	VersionHistoryExpanded bool   `json:"versionHistoryExpanded"`
	PreviewWidth           int    `json:"previewWidth"`
	LastActiveTab          string `json:"lastActiveTab"`
}

// DefaultSettings returns the built-in defaults used for absent keys.
func DefaultSettings() Settings {
	return Settings{
		SidebarCollapsed:       false,
		VersionHistoryExpanded: true,
		PreviewWidth:           384,
		LastActiveTab:          "editor",
	}
}

// Settings errors.
var (
	ErrUnknownSetting = errors.New("unknown setting")
	ErrInvalidSetting = errors.New("invalid setting value")
)
