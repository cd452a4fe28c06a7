package template

import (
	"errors"
	"testing"
)

func TestParseGenerated(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   bool
		wantTitle string
		wantKinds []BlockKind
	}{
		{
			name:      "bare json",
			input:     `{"title":"Weekly Planner","blocks":[{"type":"heading_1","content":"Week"}]}`,
			wantTitle: "Weekly Planner",
			wantKinds: []BlockKind{KindHeading1},
		},
		{
			name: "fenced json",
			input: "```json\n" +
				`{"title":"Tracker","icon":"🎯","blocks":[{"type":"to_do","content":"Run","checked":true}]}` +
				"\n```",
			wantTitle: "Tracker",
			wantKinds: []BlockKind{KindToDo},
		},
		{
			name: "fence without language tag",
			input: "```\n" +
				`{"title":"Notes","blocks":[]}` +
				"\n```",
			wantTitle: "Notes",
			wantKinds: nil,
		},
		{
			name:    "empty response",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "not json",
			input:   "Sure! Here is your template.",
			wantErr: true,
		},
		{
			name:    "json with wrong shape",
			input:   `{"title":42,"blocks":"nope"}`,
			wantErr: true,
		},
		{
			name:    "missing title",
			input:   `{"blocks":[{"type":"paragraph","content":"x"}]}`,
			wantErr: true,
		},
		{
			name:      "database only template without blocks key",
			input:     `{"title":"Habits","database":{"title":"Log","properties":{"Date":{"type":"title"}}}}`,
			wantTitle: "Habits",
			wantKinds: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := ParseGenerated(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got template %+v", tpl)
				}
				if !errors.Is(err, ErrParse) {
					t.Errorf("error %v is not ErrParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGenerated: %v", err)
			}
			if tpl.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", tpl.Title, tt.wantTitle)
			}
			if tpl.Blocks == nil {
				t.Fatal("blocks should never be nil after a successful parse")
			}
			if len(tpl.Blocks) != len(tt.wantKinds) {
				t.Fatalf("got %d blocks, want %d", len(tpl.Blocks), len(tt.wantKinds))
			}
			for i, kind := range tt.wantKinds {
				if tpl.Blocks[i].Kind != kind {
					t.Errorf("block %d kind = %q, want %q", i, tpl.Blocks[i].Kind, kind)
				}
			}
		})
	}
}

func TestParseGeneratedKeepsNestedChildren(t *testing.T) {
	input := `{"title":"Layout","blocks":[{"type":"column_list","content":"","children":[
		{"type":"column","content":"","children":[{"type":"heading_2","content":"Left"}]},
		{"type":"column","content":"","children":[{"type":"heading_2","content":"Right"}]}
	]}]}`
	tpl, err := ParseGenerated(input)
	if err != nil {
		t.Fatalf("ParseGenerated: %v", err)
	}
	if len(tpl.Blocks) != 1 || len(tpl.Blocks[0].Children) != 2 {
		t.Fatalf("unexpected structure: %+v", tpl.Blocks)
	}
	left := tpl.Blocks[0].Children[0]
	if left.Kind != KindColumn || len(left.Children) != 1 || left.Children[0].Content != "Left" {
		t.Errorf("left column decoded wrong: %+v", left)
	}
}

func TestPlainText(t *testing.T) {
	tpl := Template{Blocks: []Block{
		{Kind: KindHeading1, Content: "Title"},
		{Kind: KindDivider},
		{Kind: KindToggle, Content: "More", Children: []Block{
			{Kind: KindParagraph, Content: "Hidden"},
		}},
	}}
	got := tpl.PlainText()
	want := "Title\nMore\nHidden"
	if got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}
