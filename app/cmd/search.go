package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/session"
	"github.com/Semior001/briefly/app/store"
	"github.com/samber/lo"
)

// Search is a command to search news.
type Search struct {
	CommonOpts `no-flag:"true"`

	Country  string `long:"country" default:"kr" description:"country code, all for worldwide search"`
	Language string `long:"lang" default:"ko" description:"language to translate articles to, none to keep originals"`
	From     string `long:"from" description:"start date, YYYY-MM-DD, worldwide search only"`
	To       string `long:"to" description:"end date, YYYY-MM-DD, worldwide search only"`
	GPT      bool   `long:"gpt" description:"use advanced summaries"`
	More     int    `long:"more" default:"0" description:"number of times to load more results"`
	Analysis bool   `long:"analysis" description:"show top keywords and the word cloud"`

	Args struct {
		Keyword []string `positional-arg-name:"keyword"`
	} `positional-args:"yes"`
}

// Execute runs the command.
func (s *Search) Execute(_ []string) error {
	q, err := s.query()
	if err != nil {
		return err
	}

	ctx := s.context()

	var opts []search.Option
	if s.Analysis {
		opts = append(opts, search.WithAnalysis())
	}

	e, err := s.open(ctx, opts...)
	if err != nil {
		return err
	}
	defer e.close()

	st := e.d.Search.Search(ctx, q)
	for i := 0; i < s.More && st.Error == "" && st.HasMore(); i++ {
		st = e.d.Search.LoadMore(ctx)
	}

	e.d.Search.Wait()
	st = e.d.Search.State()

	// failed load-more keeps the articles loaded before it
	if st.Error == "" || len(st.Articles) > 0 {
		s.print(st)
	}

	if st.Error != "" {
		return errors.New(st.Error)
	}

	return nil
}

func (s *Search) query() (q store.Query, err error) {
	q = store.DefaultQuery(strings.Join(s.Args.Keyword, " "))
	q.UseAdvancedSummary = s.GPT

	if q.Country, err = store.ParseCountry(s.Country); err != nil {
		return store.Query{}, err
	}
	if q.TranslateLanguage, err = store.ParseLanguage(s.Language); err != nil {
		return store.Query{}, err
	}
	if q.FromDate, err = store.ParseDate(s.From); err != nil {
		return store.Query{}, err
	}
	if q.ToDate, err = store.ParseDate(s.To); err != nil {
		return store.Query{}, err
	}

	return q, q.Validate()
}

func (s *Search) print(st search.State) {
	s.printf("%d of %d articles\n\n", len(st.Articles), st.TotalAvailable)

	for i, a := range st.Articles {
		s.printf("%d. %s\n", i+1, a.DisplayTitle())
		if a.Source.Name != "" {
			s.printf("   %s, %s\n", a.Source.Name, a.PublishedAt)
		}
		if desc := a.DisplayDescription(); desc != "" {
			s.printf("   %s\n", desc)
		}
		s.printf("   %s\n", a.URL)
	}

	if len(st.Analysis.Keywords) > 0 {
		s.printf("\nkeywords: %s\n", strings.Join(lo.Map(st.Analysis.Keywords, func(k store.Keyword, _ int) string {
			return fmt.Sprintf("%s (%d)", k.Word, k.Count)
		}), ", "))
	}
	if st.Analysis.WordCloudURL != "" {
		s.printf("word cloud: %s\n", st.Analysis.WordCloudURL)
	}
}

// History is a command to show and manage the search history of the user.
type History struct {
	CommonOpts `no-flag:"true"`

	Delete int64 `long:"delete" description:"id of the entry to delete"`
	Clear  bool  `long:"clear" description:"delete all entries"`
}

// Execute runs the command.
func (h *History) Execute(_ []string) error {
	ctx := h.context()

	e, err := h.open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if !e.d.Session.State().Authenticated() {
		return fmt.Errorf("history: %w", session.ErrAnonymous)
	}

	// removals are best-effort, failures are only logged
	switch {
	case h.Clear:
		e.d.History.Clear(ctx)
		h.printf("requested to clear history\n")
		return nil
	case h.Delete != 0:
		e.d.History.Delete(ctx, h.Delete)
		h.printf("requested to delete entry #%d\n", h.Delete)
		return nil
	}

	entries, err := e.d.History.Load(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if len(entries) == 0 {
		h.printf("history is empty\n")
		return nil
	}

	for _, entry := range entries {
		keyword := entry.Keyword
		if keyword == "" {
			keyword = "(headlines)"
		}
		h.printf("#%d\t%s\t%s\t%s..%s\t%d results\n", entry.ID, store.FormatDate(entry.SearchedAt.Time),
			keyword, entry.FromDate, entry.ToDate, entry.ResultsCount)
	}

	return nil
}

var (
	_ Commander = (*Search)(nil)
	_ Commander = (*History)(nil)
)
