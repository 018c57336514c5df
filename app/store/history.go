package store

// HistoryEntry is a past search of the user.
type HistoryEntry struct {
	ID           int64  `json:"id"`
	Keyword      string `json:"keyword"`
	FromDate     string `json:"from_date"`
	ToDate       string `json:"to_date"`
	ResultsCount int    `json:"results_count"`
	SearchedAt   Time   `json:"searched_at"`
}

// Query returns a query that repeats the search.
// History keeps only the keyword and the date range, the rest is default,
// and a date range makes it a worldwide search.
func (h HistoryEntry) Query() Query {
	q := DefaultQuery(h.Keyword)
	if h.FromDate == "" && h.ToDate == "" {
		return q
	}

	q.Country = CountryAll
	q.FromDate, _ = ParseDate(h.FromDate)
	q.ToDate, _ = ParseDate(h.ToDate)
	return q
}
