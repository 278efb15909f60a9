package prompt

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English name of the output language for locale.
func LanguageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		return "English"
	}

	base, _ := tag.Base()
	switch base.String() {
	case "fa":
		return "Persian (Farsi)"
	case "en":
		return "English"
	}

	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return "English"
}
