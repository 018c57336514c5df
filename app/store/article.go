package store

// Article is a news article returned by the search.
type Article struct {
	Title       string `json:"title"`
	Source      Source `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Summary     string `json:"summary,omitempty"`
	SummaryType string `json:"summary_type,omitempty"`
	ImageURL    string `json:"urlToImage,omitempty"`
	Author      string `json:"author,omitempty"`

	TranslatedTitle       string `json:"translated_title,omitempty"`
	TranslatedDescription string `json:"translated_description,omitempty"`
	OriginalTitle         string `json:"original_title,omitempty"`
	OriginalDescription   string `json:"original_description,omitempty"`
	TranslationLanguage   string `json:"translation_language,omitempty"`
}

// Source is a publisher of the article.
type Source struct {
	Name string `json:"name"`
}

// DisplayTitle returns the translated title if there is one.
func (a Article) DisplayTitle() string {
	if a.TranslatedTitle != "" {
		return a.TranslatedTitle
	}
	return a.Title
}

// DisplayDescription returns the best available short text of the article.
func (a Article) DisplayDescription() string {
	switch {
	case a.Summary != "":
		return a.Summary
	case a.TranslatedDescription != "":
		return a.TranslatedDescription
	default:
		return a.Description
	}
}

// Keyword is a word with its number of occurrences in the results.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Analysis contains keyword rankings and a word cloud of the results.
type Analysis struct {
	Keywords     []Keyword
	WordCloudURL string
}

// Empty returns true if there is nothing to show.
func (a Analysis) Empty() bool { return len(a.Keywords) == 0 && a.WordCloudURL == "" }

// Brief is a bullet-point summary of the article page.
type Brief struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Author       string `json:"author"`
	ImageURL     string `json:"image_url"`
	BulletPoints string `json:"bullet_points"`
}
