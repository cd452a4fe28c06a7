package notion

import (
	"context"
	"fmt"
	"log"

	"templet/api/internal/template"
)

// CreateTemplatePage materializes a template as a new page under
// parentPageID. The inline database (when present) is created after the
// page, and initial rows are inserted one by one; the page id parent is
// normalized before use.
func CreateTemplatePage(ctx context.Context, client *Client, parentPageID string, tpl *template.Template) (Page, error) {
	parent := NormalizePageID(parentPageID)

	page, err := client.CreatePage(ctx, parent, tpl.Title, tpl.Icon, encodeBlocks(tpl.Blocks))
	if err != nil {
		return Page{}, fmt.Errorf("create page: %w", err)
	}

	if tpl.Database != nil {
		db, err := client.CreateDatabase(ctx, page.ID, tpl.Database.Title, encodeDatabaseProperties(tpl.Database))
		if err != nil {
			return Page{}, fmt.Errorf("create database: %w", err)
		}
		for i, row := range tpl.Database.Rows {
			properties := encodeRow(tpl.Database, row)
			if len(properties) == 0 {
				continue
			}
			if err := client.CreateDatabaseRow(ctx, db.ID, properties); err != nil {
				return Page{}, fmt.Errorf("create database row %d: %w", i, err)
			}
		}
	}

	return page, nil
}

// FetchTemplate reads a page and its first 100 child blocks back into the
// internal model. Unsupported block kinds are dropped; child_page blocks are
// collected as references, with a best-effort lookup of their icons.
func FetchTemplate(ctx context.Context, client *Client, pageID string) (*template.Template, error) {
	id := NormalizePageID(pageID)

	page, err := client.RetrievePage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("retrieve page: %w", err)
	}

	tpl := &template.Template{
		Title:  "Untitled",
		Blocks: []template.Block{},
	}
	if pid, ok := page["id"].(string); ok {
		tpl.PageID = pid
	}
	if title := pageTitle(page); title != "" {
		tpl.Title = title
	}
	tpl.Icon = pageEmojiIcon(page)

	children, err := client.ListChildren(ctx, id, 100)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	for _, raw := range children {
		kind, _ := raw["type"].(string)
		if kind == "child_page" {
			tpl.ChildPages = append(tpl.ChildPages, decodeChildPage(ctx, client, raw))
			continue
		}
		if block := decodeBlock(raw); block != nil {
			tpl.Blocks = append(tpl.Blocks, *block)
		}
	}

	return tpl, nil
}

func decodeChildPage(ctx context.Context, client *Client, raw map[string]any) template.ChildPage {
	child := template.ChildPage{}
	child.ID, _ = raw["id"].(string)
	if body, ok := raw["child_page"].(map[string]any); ok {
		child.Title, _ = body["title"].(string)
	}
	// The icon lives on the page object, not the block. Skip it silently if
	// the integration has no access to the child page.
	if page, err := client.RetrievePage(ctx, child.ID); err == nil {
		child.Icon = pageEmojiIcon(page)
	}
	return child
}

func pageTitle(page map[string]any) string {
	properties, _ := page["properties"].(map[string]any)
	titleProp, _ := properties["title"].(map[string]any)
	return plainText(map[string]any{"rich_text": titleProp["title"]})
}

func pageEmojiIcon(page map[string]any) string {
	icon, _ := page["icon"].(map[string]any)
	if kind, _ := icon["type"].(string); kind != "emoji" {
		return ""
	}
	emoji, _ := icon["emoji"].(string)
	return emoji
}

// SkippedOp records one delete or update that failed during a sync and was
// skipped instead of aborting the batch.
type SkippedOp struct {
	Op      string `json:"op"`
	BlockID string `json:"blockId"`
	Reason  string `json:"reason"`
}

// SyncReport summarizes what a SyncBlocks run actually did, including the
// per-block failures it swallowed.
type SyncReport struct {
	Deleted int         `json:"deleted"`
	Updated int         `json:"updated"`
	Created int         `json:"created"`
	Skipped []SkippedOp `json:"skipped,omitempty"`
}

// SyncBlocks converges a page's blocks from original to updated. Operations
// run strictly in order — all deletes, then all updates, then one batched
// append — each awaited before the next so the remote never sees interleaved
// mutations. Individual delete and update failures are logged, recorded in
// the report and skipped; only a failure of the final append aborts the run.
func SyncBlocks(ctx context.Context, client *Client, pageID string, original, updated []template.Block) (SyncReport, error) {
	plan := Diff(original, updated)
	report := SyncReport{}

	for _, blockID := range plan.Delete {
		if err := client.DeleteBlock(ctx, blockID); err != nil {
			log.Printf("notion: delete block %s failed: %v", blockID, err)
			report.Skipped = append(report.Skipped, SkippedOp{Op: "delete", BlockID: blockID, Reason: err.Error()})
			continue
		}
		report.Deleted++
	}

	for _, block := range plan.Update {
		if err := client.UpdateBlock(ctx, block.RemoteID, blockUpdatePayload(block)); err != nil {
			log.Printf("notion: update block %s failed: %v", block.RemoteID, err)
			report.Skipped = append(report.Skipped, SkippedOp{Op: "update", BlockID: block.RemoteID, Reason: err.Error()})
			continue
		}
		report.Updated++
	}

	if len(plan.Create) > 0 {
		if err := client.AppendChildren(ctx, NormalizePageID(pageID), encodeBlocks(plan.Create)); err != nil {
			return report, fmt.Errorf("append blocks: %w", err)
		}
		report.Created = len(plan.Create)
	}

	return report, nil
}

// UpdateTemplatePage pushes an edited template back to its page: title and
// icon first, then the block reconciliation.
func UpdateTemplatePage(ctx context.Context, client *Client, pageID, title, icon string, original, updated []template.Block) (SyncReport, error) {
	id := NormalizePageID(pageID)
	if err := client.UpdatePageProperties(ctx, id, title, icon); err != nil {
		return SyncReport{}, fmt.Errorf("update page properties: %w", err)
	}
	return SyncBlocks(ctx, client, id, original, updated)
}
