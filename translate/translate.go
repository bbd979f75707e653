// Package translate localizes user-visible messages.
package translate

import (
	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"

	"github.com/ezrec/lemurs/internal/log"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Root.Warn().Err(err).Msg("lemurs: locale")
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
