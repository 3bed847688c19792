package config

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label derives a summary label from a category name:
// "test_parsing" becomes "Test parsing".
func Label(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	if len(words) == 0 {
		return name
	}
	words[0] = cases.Title(language.English).String(words[0])
	for i := 1; i < len(words); i++ {
		words[i] = cases.Lower(language.English).String(words[i])
	}
	return strings.Join(words, " ")
}
