package gitrepo

import (
	"fmt"

	"templet/api/internal/template"
)

// Change is one field-level difference between two template versions.
type Change struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// DiffVersions summarizes what changed between two versions of a template.
// Block edits are reported as a count rather than a structural diff.
func DiffVersions(from, to *template.Template) []Change {
	changes := []Change{}

	if from.Title != to.Title {
		changes = append(changes, Change{Field: "title", Before: from.Title, After: to.Title})
	}
	if from.Icon != to.Icon {
		changes = append(changes, Change{Field: "icon", Before: from.Icon, After: to.Icon})
	}

	if edited := editedBlockCount(from.Blocks, to.Blocks); edited > 0 || len(from.Blocks) != len(to.Blocks) {
		changes = append(changes, Change{
			Field:  "blocks",
			Before: fmt.Sprintf("%d blocks", len(from.Blocks)),
			After:  fmt.Sprintf("%d blocks, %d edited", len(to.Blocks), edited),
		})
	}

	fromDB, toDB := from.Database != nil, to.Database != nil
	switch {
	case !fromDB && toDB:
		changes = append(changes, Change{Field: "database", Before: "none", After: to.Database.Title})
	case fromDB && !toDB:
		changes = append(changes, Change{Field: "database", Before: from.Database.Title, After: "none"})
	case fromDB && toDB && (from.Database.Title != to.Database.Title || len(from.Database.Properties) != len(to.Database.Properties)):
		changes = append(changes, Change{
			Field:  "database",
			Before: fmt.Sprintf("%s (%d properties)", from.Database.Title, len(from.Database.Properties)),
			After:  fmt.Sprintf("%s (%d properties)", to.Database.Title, len(to.Database.Properties)),
		})
	}

	return changes
}

func editedBlockCount(from, to []template.Block) int {
	edited := 0
	for i := 0; i < len(from) && i < len(to); i++ {
		if from[i].Kind != to[i].Kind || from[i].Content != to[i].Content || from[i].Checked != to[i].Checked {
			edited++
		}
	}
	return edited
}
