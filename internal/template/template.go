// Package template defines the internal document model: the shape the
// generator produces and the shape the Notion sync layer consumes. The JSON
// tags mirror the wire format exchanged with the editor frontend.
package template

// BlockKind identifies the structural type of a block. The set is open:
// kinds this package does not know about are encoded as paragraphs.
type BlockKind string

const (
	KindHeading1         BlockKind = "heading_1"
	KindHeading2         BlockKind = "heading_2"
	KindHeading3         BlockKind = "heading_3"
	KindParagraph        BlockKind = "paragraph"
	KindBulletedListItem BlockKind = "bulleted_list_item"
	KindNumberedListItem BlockKind = "numbered_list_item"
	KindToDo             BlockKind = "to_do"
	KindToggle           BlockKind = "toggle"
	KindCode             BlockKind = "code"
	KindDivider          BlockKind = "divider"
	KindCallout          BlockKind = "callout"
	KindQuote            BlockKind = "quote"
	KindBookmark         BlockKind = "bookmark"
	KindEmbed            BlockKind = "embed"
	KindImage            BlockKind = "image"
	KindColumnList       BlockKind = "column_list"
	KindColumn           BlockKind = "column"
	KindTableOfContents  BlockKind = "table_of_contents"
	KindBreadcrumb       BlockKind = "breadcrumb"
)

// Block is one structural unit of a template. RemoteID is set only on blocks
// that came from (or have been pushed to) Notion; a block without a RemoteID
// is locally new and will be created on the next sync.
type Block struct {
	Kind     BlockKind `json:"type"`
	Content  string    `json:"content"`
	Checked  bool      `json:"checked,omitempty"`
	Emoji    string    `json:"emoji,omitempty"`
	URL      string    `json:"url,omitempty"`
	Language string    `json:"language,omitempty"`
	Children []Block   `json:"children,omitempty"`
	RemoteID string    `json:"id,omitempty"`
}

// PropertyType tags a database property schema.
type PropertyType string

const (
	PropTitle          PropertyType = "title"
	PropRichText       PropertyType = "rich_text"
	PropCheckbox       PropertyType = "checkbox"
	PropSelect         PropertyType = "select"
	PropMultiSelect    PropertyType = "multi_select"
	PropDate           PropertyType = "date"
	PropNumber         PropertyType = "number"
	PropURL            PropertyType = "url"
	PropEmail          PropertyType = "email"
	PropPhoneNumber    PropertyType = "phone_number"
	PropFormula        PropertyType = "formula"
	PropRelation       PropertyType = "relation"
	PropRollup         PropertyType = "rollup"
	PropCreatedTime    PropertyType = "created_time"
	PropLastEditedTime PropertyType = "last_edited_time"
	PropStatus         PropertyType = "status"
)

// StatusGroups names the option labels for each of the three status buckets.
type StatusGroups struct {
	ToDo       []string `json:"todo,omitempty"`
	InProgress []string `json:"in_progress,omitempty"`
	Complete   []string `json:"complete,omitempty"`
}

// DatabaseProperty describes one column of a template database. Options,
// Formula, Format and StatusGroups are meaningful only for their
// corresponding Type; encoders ignore them otherwise.
type DatabaseProperty struct {
	Type         PropertyType  `json:"type"`
	Options      []string      `json:"options,omitempty"`
	Formula      string        `json:"formula,omitempty"`
	Format       string        `json:"format,omitempty"`
	StatusGroups *StatusGroups `json:"statusGroups,omitempty"`
}

// DatabaseRow is an initial data row keyed by property name. Values are
// coerced to the property's type when the row is pushed to Notion.
type DatabaseRow map[string]any

// DatabaseSchema describes an inline database attached to a template.
// Property names double as the Notion display names.
type DatabaseSchema struct {
	Title      string                      `json:"title"`
	Properties map[string]DatabaseProperty `json:"properties"`
	Rows       []DatabaseRow               `json:"rows,omitempty"`
}

// ChildPage is a reference to a sub-page of a fetched Notion page. The sync
// layer never mutates child pages, it only records them for navigation.
type ChildPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// Template is the full internal document representation. PageID is set once
// the template corresponds to a real Notion page.
type Template struct {
	PageID     string          `json:"pageId,omitempty"`
	Title      string          `json:"title"`
	Icon       string          `json:"icon,omitempty"`
	Blocks     []Block         `json:"blocks"`
	Database   *DatabaseSchema `json:"database,omitempty"`
	ChildPages []ChildPage     `json:"childPages,omitempty"`
}

// PlainText returns the concatenated text content of the template's blocks,
// recursing into children. Used for search indexing.
func (t *Template) PlainText() string {
	var out []byte
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for _, b := range blocks {
			if b.Content != "" {
				if len(out) > 0 {
					out = append(out, '\n')
				}
				out = append(out, b.Content...)
			}
			if len(b.Children) > 0 {
				walk(b.Children)
			}
		}
	}
	walk(t.Blocks)
	return string(out)
}
