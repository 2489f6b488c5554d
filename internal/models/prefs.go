package models

// Keyboard layouts supported by the on-screen keyboard.
const (
	LayoutQWERTY = "QWERTY"
	LayoutQWERTZ = "QWERTZ"
	LayoutAZERTY = "AZERTY"
)

// Theme preference values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// Prefs holds device-local player preferences.
type Prefs struct {
	KeyboardLayout string `json:"keyboard_layout"`
	SoundEnabled   bool   `json:"sound_enabled"`
	Theme          string `json:"theme"`
}

// DefaultPrefs returns the preferences applied to a fresh install.
func DefaultPrefs() Prefs {
	return Prefs{
		KeyboardLayout: LayoutQWERTY,
		SoundEnabled:   true,
		Theme:          ThemeAuto,
	}
}
