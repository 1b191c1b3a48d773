package storage

// Logical keys shared by the profile editor, the engine and the CLI.
const (
	KeyProfile          = "profile"
	KeySitePrefs        = "sitePrefs"
	KeySitePrefsEnabled = "sitePrefsEnabled"
)
