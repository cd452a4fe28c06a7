package export

import (
	"strings"
	"testing"

	"templet/api/internal/template"
)

func TestRenderBlocksBasicKinds(t *testing.T) {
	cases := []struct {
		name  string
		block template.Block
		want  string
	}{
		{"heading", template.Block{Kind: template.KindHeading1, Content: "Title"}, "<h1>Title</h1>"},
		{"paragraph", template.Block{Kind: template.KindParagraph, Content: "Body"}, "<p>Body</p>"},
		{"quote", template.Block{Kind: template.KindQuote, Content: "Said"}, "<blockquote>Said</blockquote>"},
		{"divider", template.Block{Kind: template.KindDivider}, "<hr>"},
		{"code", template.Block{Kind: template.KindCode, Content: "x := 1"}, "<pre><code>x := 1</code></pre>"},
		{"todo unchecked", template.Block{Kind: template.KindToDo, Content: "task"}, `<input type="checkbox" disabled>`},
		{"todo checked", template.Block{Kind: template.KindToDo, Content: "task", Checked: true}, `<input type="checkbox" checked disabled>`},
		{"callout default emoji", template.Block{Kind: template.KindCallout, Content: "note"}, "💡 note"},
		{"image", template.Block{Kind: template.KindImage, URL: "https://x/a.png"}, `<img src="https://x/a.png"`},
		{"unknown kind", template.Block{Kind: "whatever", Content: "text"}, "<p>text</p>"},
	}
	for _, tc := range cases {
		got := renderBlocks([]template.Block{tc.block})
		if !strings.Contains(got, tc.want) {
			t.Errorf("%s: output %q does not contain %q", tc.name, got, tc.want)
		}
	}
}

func TestRenderBlocksEscapesHTML(t *testing.T) {
	got := renderBlocks([]template.Block{
		{Kind: template.KindParagraph, Content: "<script>alert(1)</script>"},
	})
	if strings.Contains(got, "<script>") {
		t.Fatalf("content was not escaped: %q", got)
	}
}

func TestRenderBlocksGroupsListItems(t *testing.T) {
	got := renderBlocks([]template.Block{
		{Kind: template.KindBulletedListItem, Content: "a"},
		{Kind: template.KindBulletedListItem, Content: "b"},
		{Kind: template.KindParagraph, Content: "break"},
		{Kind: template.KindNumberedListItem, Content: "c"},
	})
	if strings.Count(got, "<ul>") != 1 || strings.Count(got, "<ol>") != 1 {
		t.Errorf("list grouping wrong: %q", got)
	}
	if strings.Count(got, "<li>") != 3 {
		t.Errorf("want 3 list items: %q", got)
	}
}

func TestRenderBlocksToggleAndColumns(t *testing.T) {
	got := renderBlocks([]template.Block{
		{Kind: template.KindToggle, Content: "More", Children: []template.Block{
			{Kind: template.KindParagraph, Content: "hidden"},
		}},
		{Kind: template.KindColumnList, Children: []template.Block{
			{Kind: template.KindColumn, Children: []template.Block{
				{Kind: template.KindHeading2, Content: "Left"},
			}},
			{Kind: template.KindColumn, Children: []template.Block{
				{Kind: template.KindHeading2, Content: "Right"},
			}},
		}},
	})
	for _, want := range []string{"<details><summary>More</summary>", "<p>hidden</p>", `<div class="columns">`, "<h2>Left</h2>", "<h2>Right</h2>"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
}

func TestRenderDatabaseTitleColumnFirst(t *testing.T) {
	got := renderDatabase(&template.DatabaseSchema{
		Title: "Habits",
		Properties: map[string]template.DatabaseProperty{
			"Done": {Type: template.PropCheckbox},
			"Date": {Type: template.PropTitle},
		},
		Rows: []template.DatabaseRow{
			{"Date": "Monday", "Done": true},
		},
	})
	dateIdx := strings.Index(got, "<th>Date</th>")
	doneIdx := strings.Index(got, "<th>Done</th>")
	if dateIdx == -1 || doneIdx == -1 || dateIdx > doneIdx {
		t.Errorf("title column must come first: %q", got)
	}
	if !strings.Contains(got, "<td>Monday</td>") || !strings.Contains(got, "<td>✓</td>") {
		t.Errorf("row cells missing: %q", got)
	}
}

func TestExportHTMLProducesFullDocument(t *testing.T) {
	svc := NewService()
	result, err := svc.Export(&template.Template{
		Title:  "Weekly Plan",
		Icon:   "📒",
		Blocks: []template.Block{{Kind: template.KindHeading1, Content: "Goals"}},
	}, FormatHTML)
	if err != nil {
		t.Fatal(err)
	}
	page := string(result.Data)
	for _, want := range []string{"<!DOCTYPE html>", "<title>Weekly Plan</title>", "📒 Weekly Plan", "<h1>Goals</h1>"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if result.Filename != "Weekly-Plan.html" {
		t.Errorf("filename = %q", result.Filename)
	}
	if result.MimeType != "text/html; charset=utf-8" {
		t.Errorf("mime = %q", result.MimeType)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	svc := NewService()
	if _, err := svc.Export(&template.Template{Title: "x"}, Format("docx")); err == nil {
		t.Fatal("want error for unsupported format")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Weekly Plan", "Weekly-Plan"},
		{"템플릿", "template"},
		{"a/b\\c?", "abc"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, c := range cases {
		if got := sanitizeFilename(c.in); got != c.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
