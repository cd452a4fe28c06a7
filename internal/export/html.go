package export

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"templet/api/internal/template"
)

// renderBlocks converts a block sequence to HTML. Consecutive list items of
// the same kind are grouped into one list element.
func renderBlocks(blocks []template.Block) string {
	var sb strings.Builder
	for i := 0; i < len(blocks); i++ {
		block := blocks[i]
		switch block.Kind {
		case template.KindBulletedListItem, template.KindNumberedListItem:
			tag := "ul"
			if block.Kind == template.KindNumberedListItem {
				tag = "ol"
			}
			fmt.Fprintf(&sb, "<%s>\n", tag)
			for i < len(blocks) && blocks[i].Kind == block.Kind {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(blocks[i].Content))
				i++
			}
			i--
			fmt.Fprintf(&sb, "</%s>\n", tag)
		default:
			sb.WriteString(renderBlock(block))
		}
	}
	return sb.String()
}

func renderBlock(block template.Block) string {
	text := html.EscapeString(block.Content)

	switch block.Kind {
	case template.KindHeading1:
		return fmt.Sprintf("<h1>%s</h1>\n", text)
	case template.KindHeading2:
		return fmt.Sprintf("<h2>%s</h2>\n", text)
	case template.KindHeading3:
		return fmt.Sprintf("<h3>%s</h3>\n", text)
	case template.KindParagraph:
		return fmt.Sprintf("<p>%s</p>\n", text)
	case template.KindToDo:
		checked := ""
		if block.Checked {
			checked = " checked"
		}
		return fmt.Sprintf("<div class=\"todo\"><input type=\"checkbox\"%s disabled> %s</div>\n", checked, text)
	case template.KindToggle:
		return fmt.Sprintf("<details><summary>%s</summary>\n%s</details>\n", text, renderBlocks(block.Children))
	case template.KindCode:
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", text)
	case template.KindDivider:
		return "<hr>\n"
	case template.KindCallout:
		emoji := block.Emoji
		if emoji == "" {
			emoji = "💡"
		}
		return fmt.Sprintf("<div class=\"callout\">%s %s</div>\n", emoji, text)
	case template.KindQuote:
		return fmt.Sprintf("<blockquote>%s</blockquote>\n", text)
	case template.KindBookmark, template.KindEmbed:
		label := text
		if label == "" {
			label = html.EscapeString(block.URL)
		}
		return fmt.Sprintf("<p><a href=\"%s\">%s</a></p>\n", html.EscapeString(block.URL), label)
	case template.KindImage:
		return fmt.Sprintf("<img src=\"%s\" alt=\"%s\">\n", html.EscapeString(block.URL), text)
	case template.KindColumnList:
		var sb strings.Builder
		sb.WriteString("<div class=\"columns\">\n")
		for _, child := range block.Children {
			sb.WriteString(renderBlock(child))
		}
		sb.WriteString("</div>\n")
		return sb.String()
	case template.KindColumn:
		return fmt.Sprintf("<div class=\"column\">\n%s</div>\n", renderBlocks(block.Children))
	case template.KindTableOfContents, template.KindBreadcrumb:
		// Navigation chrome has no meaning in a static export.
		return ""
	default:
		return fmt.Sprintf("<p>%s</p>\n", text)
	}
}

// renderDatabase renders the schema and seed rows as a plain table. Column
// order follows the property names sorted with the title column first.
func renderDatabase(db *template.DatabaseSchema) string {
	if db == nil {
		return ""
	}

	columns := make([]string, 0, len(db.Properties))
	for name := range db.Properties {
		columns = append(columns, name)
	}
	sort.Slice(columns, func(i, j int) bool {
		iTitle := db.Properties[columns[i]].Type == template.PropTitle
		jTitle := db.Properties[columns[j]].Type == template.PropTitle
		if iTitle != jTitle {
			return iTitle
		}
		return columns[i] < columns[j]
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2>%s</h2>\n<table>\n<tr>\n", html.EscapeString(db.Title))
	for _, name := range columns {
		fmt.Fprintf(&sb, "<th>%s</th>\n", html.EscapeString(name))
	}
	sb.WriteString("</tr>\n")

	for _, row := range db.Rows {
		sb.WriteString("<tr>\n")
		for _, name := range columns {
			fmt.Fprintf(&sb, "<td>%s</td>\n", html.EscapeString(cellText(row[name])))
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>\n")
	return sb.String()
}

func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "✓"
		}
		return ""
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, cellText(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
