package bot

import (
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/Semior001/briefly/app/search"
	"github.com/Semior001/briefly/app/store"
	"github.com/samber/lo"
)

const helpText = `Hi! I search news for you.

/search <keyword> [country=kr] [lang=ko] [from=YYYY-MM-DD] [to=YYYY-MM-DD] [gpt] - search news
/more - load more results
/brief <n> - brief of the n-th result
/signup <email> <username> <password> - create an account
/login <email> <password> - log in to keep your search history
/logout - log out
/whoami - who is logged in
/history - your recent searches
/again <id> - repeat the search from the history
/forget <id> - remove the search from the history
/forget_all - clear the history

Countries: kr us jp cn gb fr de au ca all. Languages: ko en ja none.
Dates apply only to country=all. Search without a keyword shows top headlines.`

var funcs = template.FuncMap{
	"md":    escapeMarkdown,
	"short": func(s string) string { return truncate(s, 200) },
	"inc":   func(i int) int { return i + 1 },
	"date":  store.FormatDate,
}

var resultsTmpl = template.Must(template.New("results").Funcs(funcs).Parse(
	`{{- if .Query.Keyword }}*Results for "{{ md .Query.Keyword }}"*{{ else }}*Top headlines*{{ end }}` +
		` ({{ len .Articles }} of {{ .TotalAvailable }})
{{ range $i, $a := .Articles }}
{{ inc $i }}. [{{ md $a.DisplayTitle }}]({{ $a.URL }}){{ with $a.Source.Name }} · _{{ md . }}_{{ end }}
{{- with $a.DisplayDescription }}
{{ md (short .) }}{{ end }}
{{ end }}
{{- if .HasMore }}
Send /more to load more.{{ end }}`))

var historyTmpl = template.Must(template.New("history").Funcs(funcs).Parse(
	`*Recent searches*
{{ range . }}
#{{ .ID }} {{ if .Keyword }}{{ md .Keyword }}{{ else }}_headlines_{{ end }}` +
		`{{ if or .FromDate .ToDate }} ({{ .FromDate }}..{{ .ToDate }}){{ end }}` +
		` · {{ .ResultsCount }} results · {{ date .SearchedAt.Time }}{{ end }}

Send /again <id> to repeat a search, /forget <id> to remove it.`))

var briefTmpl = template.Must(template.New("brief").Funcs(funcs).Parse(
	`*{{ md .Title }}*{{ with .Author }} by {{ md . }}{{ end }}

{{ md .BulletPoints }}

[source]({{ .URL }})`))

func renderResults(st search.State) (string, error) {
	if st.Error != "" {
		return "⚠️ " + escapeMarkdown(st.Error), nil
	}

	if len(st.Articles) == 0 {
		return "Nothing found.", nil
	}

	sb := &strings.Builder{}
	if err := resultsTmpl.Execute(sb, st); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderHistory(entries []store.HistoryEntry) (string, error) {
	if len(entries) == 0 {
		return "Your search history is empty.", nil
	}

	sb := &strings.Builder{}
	if err := historyTmpl.Execute(sb, entries); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderBrief(b store.Brief) (string, error) {
	sb := &strings.Builder{}
	if err := briefTmpl.Execute(sb, b); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderKeywords(a store.Analysis) string {
	return "*Top keywords:* " + strings.Join(lo.Map(a.Keywords, func(k store.Keyword, _ int) string {
		return escapeMarkdown(k.Word) + " (" + strconv.Itoa(k.Count) + ")"
	}), ", ")
}

// mdEscaper escapes the entities of telegram legacy markdown.
var mdEscaper = strings.NewReplacer(
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return mdEscaper.Replace(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}
