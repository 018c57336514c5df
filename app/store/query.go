package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DateLayout is the layout of dates in queries and history entries.
const DateLayout = "2006-01-02"

// Country is a country code the news are searched in.
type Country string

// Supported countries.
const (
	CountryKorea     Country = "kr"
	CountryUS        Country = "us"
	CountryJapan     Country = "jp"
	CountryChina     Country = "cn"
	CountryUK        Country = "gb"
	CountryFrance    Country = "fr"
	CountryGermany   Country = "de"
	CountryAustralia Country = "au"
	CountryCanada    Country = "ca"
	CountryAll       Country = "all"
)

// Countries lists all supported countries.
var Countries = []Country{
	CountryKorea, CountryUS, CountryJapan, CountryChina, CountryUK,
	CountryFrance, CountryGermany, CountryAustralia, CountryCanada, CountryAll,
}

// ParseCountry parses the country code.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Countries, c) {
		return "", fmt.Errorf("unknown country %q", s)
	}
	return c, nil
}

// Language is a language the articles are translated to.
type Language string

// Supported translation languages.
const (
	LanguageKorean   Language = "ko"
	LanguageEnglish  Language = "en"
	LanguageJapanese Language = "ja"
	LanguageNone     Language = "none"
)

// Languages lists all supported translation languages.
var Languages = []Language{LanguageKorean, LanguageEnglish, LanguageJapanese, LanguageNone}

// ParseLanguage parses the translation language code.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Languages, l) {
		return "", fmt.Errorf("unknown language %q", s)
	}
	return l, nil
}

// ParseDate parses the date in DateLayout, empty string is a zero date.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Query is a set of parameters of one logical search.
// Empty keyword means headlines of the country.
type Query struct {
	Keyword            string
	Country            Country
	TranslateLanguage  Language
	FromDate           time.Time // zero if absent
	ToDate             time.Time // zero if absent
	UseAdvancedSummary bool
}

// DefaultQuery returns a query with default parameters.
func DefaultQuery(keyword string) Query {
	return Query{Keyword: keyword, Country: CountryKorea, TranslateLanguage: LanguageKorean}
}

// ErrBadDateRange is returned when the range starts after it ends.
var ErrBadDateRange = errors.New("from date is after to date")

// Validate checks that the query is consistent.
func (q Query) Validate() error {
	if !lo.Contains(Countries, q.Country) {
		return fmt.Errorf("unknown country %q", q.Country)
	}
	if !lo.Contains(Languages, q.TranslateLanguage) {
		return fmt.Errorf("unknown language %q", q.TranslateLanguage)
	}
	if !q.FromDate.IsZero() && !q.ToDate.IsZero() && q.FromDate.After(q.ToDate) {
		return ErrBadDateRange
	}
	return nil
}

// DateRange returns the dates to send to the backend.
// The range applies only to worldwide searches, as headlines of a single
// country are not filtered by date.
func (q Query) DateRange() (from, to string) {
	if q.Country != CountryAll {
		return "", ""
	}
	return FormatDate(q.FromDate), FormatDate(q.ToDate)
}

// FormatDate formats the date in DateLayout, zero date is an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
