// Package translate renders user-facing assembler and simulator messages
// through a locale-aware printer.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("i8085: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Use replaces the printer with one for the given BCP 47 tag.
// Unknown tags fall back to en-US.
func Use(tag string) {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.AmericanEnglish
	}
	printer = message.NewPrinter(lang)
}
