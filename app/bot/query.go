package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Semior001/briefly/app/store"
)

// parseQuery parses arguments of the search command, e.g.
// "AI chips country=all lang=en from=2024-05-01 gpt".
// Words that are not options make up the keyword.
func parseQuery(args []string) (store.Query, error) {
	q := store.DefaultQuery("")
	var words []string

	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			if strings.EqualFold(arg, "gpt") {
				q.UseAdvancedSummary = true
				continue
			}
			words = append(words, arg)
			continue
		}

		var err error
		switch strings.ToLower(key) {
		case "country":
			q.Country, err = store.ParseCountry(val)
		case "lang":
			q.TranslateLanguage, err = store.ParseLanguage(val)
		case "from":
			q.FromDate, err = store.ParseDate(val)
		case "to":
			q.ToDate, err = store.ParseDate(val)
		default:
			words = append(words, arg)
		}
		if err != nil {
			return store.Query{}, fmt.Errorf("parse %s: %w", key, err)
		}
	}

	q.Keyword = strings.Join(words, " ")

	if err := q.Validate(); err != nil {
		return store.Query{}, err
	}

	return q, nil
}

// parseIndex parses the 1-based position of an item in the list of n items.
func parseIndex(args []string, n int) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 || idx > n {
		return 0, false
	}

	return idx - 1, true
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	return id, err == nil
}
