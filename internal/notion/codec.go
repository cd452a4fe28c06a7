// Package notion translates the internal template model to and from the
// Notion REST API's block and property payloads, and computes the minimal
// set of operations needed to push an edited template back to a page.
package notion

import (
	"strconv"
	"strings"

	"templet/api/internal/template"
)

const (
	defaultCalloutEmoji = "💡"
	defaultCodeLanguage = "plain text"
)

// Default status option labels, one per bucket, used when the schema does
// not name any.
const (
	defaultStatusToDo       = "Not started"
	defaultStatusInProgress = "In progress"
	defaultStatusComplete   = "Done"
)

func richText(content string) []map[string]any {
	return []map[string]any{
		{"type": "text", "text": map[string]any{"content": content}},
	}
}

func emojiIcon(emoji string) map[string]any {
	return map[string]any{"type": "emoji", "emoji": emoji}
}

// encodeBlock converts one internal block into the create payload the Notion
// API expects. It is total: a kind this package does not recognize is
// written as a paragraph so generator drift never fails a page create.
func encodeBlock(b template.Block) map[string]any {
	payload := map[string]any{"object": "block"}

	set := func(kind string, body map[string]any) map[string]any {
		payload["type"] = kind
		payload[kind] = body
		return payload
	}

	switch b.Kind {
	case template.KindHeading1, template.KindHeading2, template.KindHeading3,
		template.KindBulletedListItem, template.KindNumberedListItem,
		template.KindQuote:
		return set(string(b.Kind), map[string]any{"rich_text": richText(b.Content)})
	case template.KindToDo:
		return set("to_do", map[string]any{
			"rich_text": richText(b.Content),
			"checked":   b.Checked,
		})
	case template.KindCallout:
		emoji := b.Emoji
		if emoji == "" {
			emoji = defaultCalloutEmoji
		}
		return set("callout", map[string]any{
			"rich_text": richText(b.Content),
			"icon":      emojiIcon(emoji),
		})
	case template.KindCode:
		language := b.Language
		if language == "" {
			language = defaultCodeLanguage
		}
		return set("code", map[string]any{
			"rich_text": richText(b.Content),
			"language":  language,
		})
	case template.KindToggle:
		body := map[string]any{"rich_text": richText(b.Content)}
		if len(b.Children) > 0 {
			body["children"] = encodeBlocks(b.Children)
		}
		return set("toggle", body)
	case template.KindDivider, template.KindTableOfContents, template.KindBreadcrumb:
		return set(string(b.Kind), map[string]any{})
	case template.KindBookmark:
		body := map[string]any{"url": b.URL}
		if b.Content != "" {
			body["caption"] = richText(b.Content)
		}
		return set("bookmark", body)
	case template.KindEmbed:
		return set("embed", map[string]any{"url": b.URL})
	case template.KindImage:
		// Always an external reference; binary uploads never go to Notion.
		return set("image", map[string]any{
			"type":     "external",
			"external": map[string]any{"url": b.URL},
		})
	case template.KindColumnList:
		return set("column_list", map[string]any{"children": encodeBlocks(b.Children)})
	case template.KindColumn:
		return set("column", map[string]any{"children": encodeBlocks(b.Children)})
	default:
		return set("paragraph", map[string]any{"rich_text": richText(b.Content)})
	}
}

func encodeBlocks(blocks []template.Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, encodeBlock(b))
	}
	return out
}

// blockUpdatePayload builds the body for PATCH /blocks/{id}. Unlike create
// payloads it carries no object/type envelope and no children: nested edits
// are not synchronized incrementally.
func blockUpdatePayload(b template.Block) map[string]any {
	text := richText(b.Content)

	switch b.Kind {
	case template.KindHeading1, template.KindHeading2, template.KindHeading3,
		template.KindBulletedListItem, template.KindNumberedListItem,
		template.KindQuote, template.KindToggle:
		return map[string]any{string(b.Kind): map[string]any{"rich_text": text}}
	case template.KindToDo:
		return map[string]any{"to_do": map[string]any{
			"rich_text": text,
			"checked":   b.Checked,
		}}
	case template.KindCallout:
		emoji := b.Emoji
		if emoji == "" {
			emoji = defaultCalloutEmoji
		}
		return map[string]any{"callout": map[string]any{
			"rich_text": text,
			"icon":      emojiIcon(emoji),
		}}
	case template.KindCode:
		language := b.Language
		if language == "" {
			language = defaultCodeLanguage
		}
		return map[string]any{"code": map[string]any{
			"rich_text": text,
			"language":  language,
		}}
	default:
		return map[string]any{"paragraph": map[string]any{"rich_text": text}}
	}
}

// decodableKinds is the set of remote block types decodeBlock understands.
// Anything else is dropped from the decoded sequence: unsupported remote
// constructs silently disappear from the internal model.
var decodableKinds = map[string]struct{}{
	"heading_1":          {},
	"heading_2":          {},
	"heading_3":          {},
	"paragraph":          {},
	"bulleted_list_item": {},
	"numbered_list_item": {},
	"quote":              {},
	"callout":            {},
	"toggle":             {},
	"code":               {},
	"to_do":              {},
	"divider":            {},
}

// decodeBlock converts one Notion block object into an internal block, or
// returns nil for unsupported kinds. Only the remote id, the plain text and
// the to_do checked flag survive a decode; ancillary fields (emoji, url,
// language) are not reconstructed.
func decodeBlock(raw map[string]any) *template.Block {
	kind, _ := raw["type"].(string)
	if _, ok := decodableKinds[kind]; !ok {
		return nil
	}
	id, _ := raw["id"].(string)
	body, _ := raw[kind].(map[string]any)

	block := template.Block{
		Kind:     template.BlockKind(kind),
		Content:  plainText(body),
		RemoteID: id,
	}
	if kind == "to_do" {
		block.Checked, _ = body["checked"].(bool)
	}
	return &block
}

// plainText concatenates the plain_text fields of a block body's rich_text
// runs in order.
func plainText(body map[string]any) string {
	if body == nil {
		return ""
	}
	runs, ok := body["rich_text"].([]any)
	if !ok {
		return ""
	}
	var sb strings.Builder
	for _, run := range runs {
		item, ok := run.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := item["plain_text"].(string); ok {
			sb.WriteString(text)
		}
	}
	return sb.String()
}

// encodeProperty converts one database property schema into the Notion
// database-create payload for that column.
func encodeProperty(prop template.DatabaseProperty) map[string]any {
	switch prop.Type {
	case template.PropTitle, template.PropRichText, template.PropCheckbox,
		template.PropDate, template.PropURL, template.PropEmail,
		template.PropPhoneNumber, template.PropCreatedTime,
		template.PropLastEditedTime:
		return map[string]any{string(prop.Type): map[string]any{}}
	case template.PropSelect, template.PropMultiSelect:
		return map[string]any{string(prop.Type): map[string]any{
			"options": namedOptions(prop.Options),
		}}
	case template.PropNumber:
		format := prop.Format
		if format == "" {
			format = "number"
		}
		return map[string]any{"number": map[string]any{"format": format}}
	case template.PropFormula:
		return map[string]any{"formula": map[string]any{"expression": prop.Formula}}
	case template.PropStatus:
		return map[string]any{"status": encodeStatusSchema(prop.StatusGroups)}
	default:
		// Includes relation and rollup: both need a target database that a
		// freshly created template cannot reference, so they degrade to text.
		return map[string]any{"rich_text": map[string]any{}}
	}
}

func namedOptions(labels []string) []map[string]any {
	out := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		out = append(out, map[string]any{"name": label})
	}
	return out
}

// encodeStatusSchema synthesizes options for the three status buckets.
// Notion's grouping of options into buckets is not settable through the
// create API, so the named groups are emitted empty alongside the options.
func encodeStatusSchema(groups *template.StatusGroups) map[string]any {
	todo := []string{defaultStatusToDo}
	inProgress := []string{defaultStatusInProgress}
	complete := []string{defaultStatusComplete}
	if groups != nil {
		if len(groups.ToDo) > 0 {
			todo = groups.ToDo
		}
		if len(groups.InProgress) > 0 {
			inProgress = groups.InProgress
		}
		if len(groups.Complete) > 0 {
			complete = groups.Complete
		}
	}

	options := make([]map[string]any, 0, len(todo)+len(inProgress)+len(complete))
	options = append(options, namedOptions(todo)...)
	options = append(options, namedOptions(inProgress)...)
	options = append(options, namedOptions(complete)...)

	return map[string]any{
		"options": options,
		"groups": []map[string]any{
			{"name": "To-do", "option_ids": []any{}},
			{"name": "In progress", "option_ids": []any{}},
			{"name": "Complete", "option_ids": []any{}},
		},
	}
}

// encodeDatabaseProperties converts a full schema's property map.
func encodeDatabaseProperties(schema *template.DatabaseSchema) map[string]any {
	properties := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		properties[name] = encodeProperty(prop)
	}
	return properties
}

// encodeRowValue coerces one stored row value into the page-property payload
// its schema type demands. The second return is false for read-only types
// (formula, created_time, last_edited_time, relation, rollup): setting them
// on row creation is a silent no-op, not an error.
func encodeRowValue(propType template.PropertyType, value any) (map[string]any, bool) {
	switch propType {
	case template.PropTitle:
		return map[string]any{"title": richText(stringify(value))}, true
	case template.PropRichText:
		return map[string]any{"rich_text": richText(stringify(value))}, true
	case template.PropCheckbox:
		return map[string]any{"checkbox": boolify(value)}, true
	case template.PropSelect:
		return map[string]any{"select": map[string]any{"name": stringify(value)}}, true
	case template.PropMultiSelect:
		return map[string]any{"multi_select": multiSelectValues(value)}, true
	case template.PropStatus:
		return map[string]any{"status": map[string]any{"name": stringify(value)}}, true
	case template.PropDate:
		return map[string]any{"date": map[string]any{"start": stringify(value)}}, true
	case template.PropNumber:
		return map[string]any{"number": numberify(value)}, true
	case template.PropURL:
		return map[string]any{"url": stringify(value)}, true
	case template.PropEmail:
		return map[string]any{"email": stringify(value)}, true
	case template.PropPhoneNumber:
		return map[string]any{"phone_number": stringify(value)}, true
	default:
		return nil, false
	}
}

// encodeRow builds the properties payload for one database row, skipping
// values whose schema type cannot be set.
func encodeRow(schema *template.DatabaseSchema, row template.DatabaseRow) map[string]any {
	properties := make(map[string]any)
	for name, value := range row {
		prop, ok := schema.Properties[name]
		if !ok {
			continue
		}
		payload, settable := encodeRowValue(prop.Type, value)
		if !settable {
			continue
		}
		properties[name] = payload
	}
	return properties
}

// multiSelectValues accepts either a slice of labels or a single scalar and
// normalizes it to the multi_select name list.
func multiSelectValues(value any) []map[string]any {
	switch v := value.(type) {
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if label := stringify(item); label != "" {
				out = append(out, map[string]any{"name": label})
			}
		}
		return out
	case []string:
		return namedOptions(v)
	default:
		if label := stringify(value); label != "" {
			return []map[string]any{{"name": label}}
		}
		return []map[string]any{}
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func boolify(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	case float64:
		return v != 0
	default:
		return false
	}
}

func numberify(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}
