package validation

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// MessageKey names a generated validation message. Keys are the English
// default text, so an unknown locale still renders readable output.
type MessageKey string

const (
	MsgRequired      MessageKey = "This field is required"
	MsgConsent       MessageKey = "You must agree to continue"
	MsgInvalidNumber MessageKey = "Please enter a valid number"
	MsgMin           MessageKey = "Must be at least %s"
	MsgMax           MessageKey = "Must be at most %s"
	MsgGreaterThan   MessageKey = "Must be greater than %s"
	MsgLessThan      MessageKey = "Must be less than %s"
	MsgPattern       MessageKey = "Invalid format"
	MsgMismatch      MessageKey = "Values do not match"
	MsgTooMany       MessageKey = "Select no more than %d"
)

// Messages renders generated messages. Messages configured on a field's
// validation bundle or an aggregate rule always take precedence.
type Messages interface {
	Message(key MessageKey, args ...any) string
}

// MessagesFunc adapts a function to Messages.
type MessagesFunc func(key MessageKey, args ...any) string

// Message implements Messages.
func (f MessagesFunc) Message(key MessageKey, args ...any) string {
	return f(key, args...)
}

var translations = map[language.Tag]map[MessageKey]string{
	language.Spanish: {
		MsgRequired:      "Este campo es obligatorio",
		MsgConsent:       "Debe aceptar para continuar",
		MsgInvalidNumber: "Introduzca un número válido",
		MsgMin:           "Debe ser al menos %s",
		MsgMax:           "Debe ser como máximo %s",
		MsgGreaterThan:   "Debe ser mayor que %s",
		MsgLessThan:      "Debe ser menor que %s",
		MsgPattern:       "Formato no válido",
		MsgMismatch:      "Los valores no coinciden",
		MsgTooMany:       "Seleccione como máximo %d",
	},
}

// supportedLocales lists English first so it wins unmatched lookups.
var supportedLocales = []language.Tag{language.English, language.Spanish}

var localeMatcher = language.NewMatcher(supportedLocales)

var (
	catalogOnce sync.Once
	builtin     *catalog.Builder
)

func defaultCatalog() *catalog.Builder {
	catalogOnce.Do(func() {
		builtin = catalog.NewBuilder(catalog.Fallback(language.English))
		for _, key := range []MessageKey{
			MsgRequired, MsgConsent, MsgInvalidNumber, MsgMin, MsgMax,
			MsgGreaterThan, MsgLessThan, MsgPattern, MsgMismatch, MsgTooMany,
		} {
			_ = builtin.SetString(language.English, string(key), string(key))
		}
		for tag, entries := range translations {
			for key, text := range entries {
				_ = builtin.SetString(tag, string(key), text)
			}
		}
	})
	return builtin
}

// CatalogMessages renders messages from the built-in catalog for tag.
type CatalogMessages struct {
	printer *message.Printer
}

// NewCatalogMessages selects the closest supported locale for tag; unsupported
// locales fall back to English.
func NewCatalogMessages(tag language.Tag) *CatalogMessages {
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		index = 0
	}
	return &CatalogMessages{printer: message.NewPrinter(supportedLocales[index], message.Catalog(defaultCatalog()))}
}

// Message implements Messages.
func (m *CatalogMessages) Message(key MessageKey, args ...any) string {
	return m.printer.Sprintf(string(key), args...)
}
