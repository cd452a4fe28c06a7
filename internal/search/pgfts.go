package search

import (
	"context"
	"fmt"

	"templet/api/internal/store"
)

// TemplateStore is the slice of the data store the Postgres fallback needs.
type TemplateStore interface {
	SearchTemplates(ctx context.Context, userID, query string, limit int) ([]store.TemplateSummary, error)
}

// PgFTS answers searches straight from Postgres full text search. It is the
// fallback path and always available when the database is.
type PgFTS struct {
	store TemplateStore
}

func NewPgFTS(store TemplateStore) *PgFTS {
	return &PgFTS{store: store}
}

// Search runs the query against Postgres. Offset is applied client-side on
// top of a widened limit; result sets here are small.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	summaries, err := p.store.SearchTemplates(ctx, q.UserID, q.Text, limit+q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}

	total := len(summaries)
	if q.Offset >= len(summaries) {
		return []Result{}, total, nil
	}
	summaries = summaries[q.Offset:]

	results := make([]Result, 0, len(summaries))
	for _, item := range summaries {
		results = append(results, Result{
			ID:            item.ID,
			Title:         item.Title,
			Icon:          item.Icon,
			Snippet:       item.Description,
			NotionPageURL: item.NotionPageURL,
		})
	}
	return results, total, nil
}
