package common

// Keys under which the client's local store persists its two values.
const (
	LocalStoreSnippetsKey = "snippets"
	LocalStoreThemeKey    = "theme"
)

// Theme flag values, as written to the local store.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)
