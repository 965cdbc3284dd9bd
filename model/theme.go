package model

// ThemeMode is the user's display appearance preference. One value per device
// installation, persisted across restarts.
type ThemeMode string

const (
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
	ThemeSystem ThemeMode = "system"
)

// IsValid returns true iff mode is one of the three known values.
func (m ThemeMode) IsValid() bool {
	return m == ThemeLight || m == ThemeDark || m == ThemeSystem
}
