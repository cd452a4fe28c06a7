package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"templet/api/internal/template"
)

// fakeNotion records the order of mutating calls and lets tests fail
// specific block operations.
type fakeNotion struct {
	mu       sync.Mutex
	calls    []string
	failOn   map[string]int // "DELETE /v1/blocks/b1" -> status
	appended []any
}

func (f *fakeNotion) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		f.calls = append(f.calls, key)
		status := f.failOn[key]
		if strings.HasSuffix(r.URL.Path, "/children") && r.Method == http.MethodPatch {
			var body struct {
				Children []any `json:"children"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.appended = body.Children
		}
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"code":"validation_error","message":"induced failure"}`)
			return
		}
		w.Write([]byte(`{"id":"created","results":[]}`))
	})
}

func TestSyncBlocksOrdering(t *testing.T) {
	fake := &fakeNotion{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	original := []template.Block{
		{RemoteID: "keep", Kind: template.KindParagraph, Content: "same"},
		{RemoteID: "edit", Kind: template.KindParagraph, Content: "old"},
		{RemoteID: "gone", Kind: template.KindParagraph, Content: "bye"},
	}
	updated := []template.Block{
		{RemoteID: "keep", Kind: template.KindParagraph, Content: "same"},
		{RemoteID: "edit", Kind: template.KindParagraph, Content: "new"},
		{Kind: template.KindToDo, Content: "fresh"},
	}

	client := NewClientWithBaseURL("tok", srv.URL)
	report, err := SyncBlocks(context.Background(), client, "page1", original, updated)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"DELETE /v1/blocks/gone",
		"PATCH /v1/blocks/edit",
		"PATCH /v1/blocks/page1/children",
	}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fake.calls, want)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, fake.calls[i], want[i])
		}
	}

	if report.Deleted != 1 || report.Updated != 1 || report.Created != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Skipped) != 0 {
		t.Errorf("skipped = %+v", report.Skipped)
	}
	if len(fake.appended) != 1 {
		t.Errorf("appended = %v", fake.appended)
	}
}

func TestSyncBlocksSkipsFailedDeleteAndContinues(t *testing.T) {
	fake := &fakeNotion{failOn: map[string]int{
		"DELETE /v1/blocks/bad": http.StatusBadRequest,
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	original := []template.Block{
		{RemoteID: "bad", Kind: template.KindParagraph, Content: "a"},
		{RemoteID: "ok", Kind: template.KindParagraph, Content: "b"},
	}

	client := NewClientWithBaseURL("tok", srv.URL)
	report, err := SyncBlocks(context.Background(), client, "page1", original, nil)
	if err != nil {
		t.Fatalf("per-block failure must not abort: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", report.Deleted)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Op != "delete" || report.Skipped[0].BlockID != "bad" {
		t.Errorf("skipped = %+v", report.Skipped)
	}
}

func TestSyncBlocksSkipsFailedUpdate(t *testing.T) {
	fake := &fakeNotion{failOn: map[string]int{
		"PATCH /v1/blocks/b1": http.StatusConflict,
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	original := []template.Block{
		{RemoteID: "b1", Kind: template.KindParagraph, Content: "old"},
		{RemoteID: "b2", Kind: template.KindParagraph, Content: "old"},
	}
	updated := []template.Block{
		{RemoteID: "b1", Kind: template.KindParagraph, Content: "new"},
		{RemoteID: "b2", Kind: template.KindParagraph, Content: "new"},
	}

	client := NewClientWithBaseURL("tok", srv.URL)
	report, err := SyncBlocks(context.Background(), client, "page1", original, updated)
	if err != nil {
		t.Fatal(err)
	}
	if report.Updated != 1 {
		t.Errorf("updated = %d, want 1", report.Updated)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Op != "update" {
		t.Errorf("skipped = %+v", report.Skipped)
	}
}

func TestSyncBlocksAppendFailureAborts(t *testing.T) {
	fake := &fakeNotion{failOn: map[string]int{
		"PATCH /v1/blocks/page1/children": http.StatusBadRequest,
	}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	updated := []template.Block{{Kind: template.KindParagraph, Content: "new"}}

	client := NewClientWithBaseURL("tok", srv.URL)
	report, err := SyncBlocks(context.Background(), client, "page1", nil, updated)
	if err == nil {
		t.Fatal("append failure must surface")
	}
	if report.Created != 0 {
		t.Errorf("created = %d, want 0", report.Created)
	}
}

func TestSyncBlocksNoOpsSkipsRequests(t *testing.T) {
	fake := &fakeNotion{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	blocks := []template.Block{{RemoteID: "a", Kind: template.KindParagraph, Content: "x"}}
	client := NewClientWithBaseURL("tok", srv.URL)
	report, err := SyncBlocks(context.Background(), client, "page1", blocks, blocks)
	if err != nil {
		t.Fatal(err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("calls = %v, want none", fake.calls)
	}
	if report.Deleted+report.Updated+report.Created != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestCreateTemplatePageCreatesDatabaseAndRows(t *testing.T) {
	fake := &fakeNotion{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	tpl := &template.Template{
		Title: "Habit Tracker",
		Icon:  "📊",
		Blocks: []template.Block{
			{Kind: template.KindHeading1, Content: "Habits"},
		},
		Database: &template.DatabaseSchema{
			Title: "Log",
			Properties: map[string]template.DatabaseProperty{
				"Name": {Type: template.PropTitle},
				"Done": {Type: template.PropCheckbox},
			},
			Rows: []template.DatabaseRow{
				{"Name": "Monday", "Done": false},
				{"Name": "Tuesday", "Done": true},
			},
		},
	}

	client := NewClientWithBaseURL("tok", srv.URL)
	page, err := CreateTemplatePage(context.Background(), client, "parent-id", tpl)
	if err != nil {
		t.Fatal(err)
	}
	if page.ID != "created" {
		t.Errorf("page = %+v", page)
	}

	// Page create, database create, then one insert per row.
	want := []string{
		"POST /v1/pages",
		"POST /v1/databases",
		"POST /v1/pages",
		"POST /v1/pages",
	}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %v", fake.calls)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, fake.calls[i], want[i])
		}
	}
}

func TestFetchTemplateDecodesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/pages/page1":
			w.Write([]byte(`{
				"id": "page1",
				"icon": {"type": "emoji", "emoji": "📒"},
				"properties": {"title": {"title": [{"plain_text": "Weekly Plan"}]}}
			}`))
		case r.URL.Path == "/v1/pages/child1":
			w.Write([]byte(`{"id":"child1","icon":{"type":"emoji","emoji":"📌"}}`))
		case strings.HasSuffix(r.URL.Path, "/children"):
			w.Write([]byte(`{"results":[
				{"id":"b1","type":"heading_1","heading_1":{"rich_text":[{"plain_text":"Goals"}]}},
				{"id":"b2","type":"child_database","child_database":{"title":"ignored"}},
				{"id":"child1","type":"child_page","child_page":{"title":"Notes"}},
				{"id":"b3","type":"to_do","to_do":{"rich_text":[{"plain_text":"Plan week"}],"checked":true}}
			]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("tok", srv.URL)
	tpl, err := FetchTemplate(context.Background(), client, "page1")
	if err != nil {
		t.Fatal(err)
	}

	if tpl.PageID != "page1" || tpl.Title != "Weekly Plan" || tpl.Icon != "📒" {
		t.Errorf("template = %+v", tpl)
	}
	if len(tpl.Blocks) != 2 {
		t.Fatalf("blocks = %+v, want heading and to_do only", tpl.Blocks)
	}
	if tpl.Blocks[0].Content != "Goals" || !tpl.Blocks[1].Checked {
		t.Errorf("blocks = %+v", tpl.Blocks)
	}
	if len(tpl.ChildPages) != 1 || tpl.ChildPages[0].Title != "Notes" || tpl.ChildPages[0].Icon != "📌" {
		t.Errorf("child pages = %+v", tpl.ChildPages)
	}
}

func TestFetchTemplateUntitledFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/children") {
			w.Write([]byte(`{"results":[]}`))
			return
		}
		w.Write([]byte(`{"id":"page1","properties":{"title":{"title":[]}}}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("tok", srv.URL)
	tpl, err := FetchTemplate(context.Background(), client, "page1")
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", tpl.Title)
	}
	if tpl.Blocks == nil || len(tpl.Blocks) != 0 {
		t.Errorf("blocks = %#v, want empty non-nil slice", tpl.Blocks)
	}
}
