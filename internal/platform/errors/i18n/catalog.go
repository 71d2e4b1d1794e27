// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is served when no supported locale matches the request.
const BaseLocale = "en-US"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
	// terms translates vocabulary passed through metadata, keyed by
	// "kind.word" such as "status.completed".
	terms map[string]string
}

var (
	supported = []language.Tag{
		language.AmericanEnglish,
		language.BrazilianPortuguese,
	}
	matcher = language.NewMatcher(supported)

	catalogs = map[language.Tag]*Catalog{
		language.AmericanEnglish:     NewCatalog(BaseLocale, enUS),
		language.BrazilianPortuguese: NewCatalog("pt-BR", ptBR).WithTerms(ptBRTerms),
	}
)

// GetCatalog returns the catalog best matching locale, which may be a single
// BCP 47 tag or an Accept-Language header value. Unknown or malformed input
// falls back to en-US.
func GetCatalog(locale string) *Catalog {
	return catalogs[supported[matchIndex(locale)]]
}

func matchIndex(locale string) int {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return 0
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return 0
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return 0
	}
	return index
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the base catalog and then to the error code itself.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		if base := catalogs[language.AmericanEnglish]; base != nil && base != c {
			return base.Format(code, metadata)
		}
		return code
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").
		Option("missingkey=zero").
		Funcs(template.FuncMap{"term": c.term}).
		Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// term renders word of the given kind in the catalog's language. Words
// without a translation render as given.
func (c *Catalog) term(kind, word string) string {
	if translated, ok := c.terms[kind+"."+word]; ok {
		return translated
	}
	return word
}

// WithTerms returns a copy of the catalog that translates metadata
// vocabulary through terms.
func (c *Catalog) WithTerms(terms map[string]string) *Catalog {
	cloned := NewCatalog(c.locale, c.messages)
	cloned.terms = make(map[string]string, len(terms))
	for key, value := range terms {
		cloned.terms[key] = value
	}
	return cloned
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}
