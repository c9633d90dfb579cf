package domain

// Theme is the UI colour scheme preference
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// Next returns the theme after t in the light → dark → system cycle
func (t Theme) Next() Theme {
	switch t {
	case ThemeLight:
		return ThemeDark
	case ThemeDark:
		return ThemeSystem
	default:
		return ThemeLight
	}
}

// Preferences is the persisted UI preference state
type Preferences struct {
	Theme            Theme `json:"theme"`
	SidebarCollapsed bool  `json:"sidebarCollapsed"`
}

// DefaultPreferences returns the preferences of a fresh install
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem}
}
