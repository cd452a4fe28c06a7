// Package search provides full text search over a user's saved templates,
// through Meilisearch when available with a Postgres fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Icon          string `json:"icon,omitempty"`
	Snippet       string `json:"snippet"`
	NotionPageURL string `json:"notionPageUrl,omitempty"`
}

// Query describes a search request. UserID scopes every query; there is no
// cross-user search.
type Query struct {
	UserID string
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// TemplateRecord is the data indexed per saved template.
type TemplateRecord struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Title         string `json:"title"`
	Icon          string `json:"icon"`
	Description   string `json:"description"`
	PlainText     string `json:"plainText"`
	NotionPageURL string `json:"notionPageUrl"`
}
