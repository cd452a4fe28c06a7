package notion

import "templet/api/internal/template"

// Plan is the result of diffing an original block list against an edited
// one: the remote ids to delete, the blocks to update in place, and the new
// blocks to append at the end of the page, in order.
type Plan struct {
	Delete []string
	Update []template.Block
	Create []template.Block
}

// Empty reports whether applying the plan would be a no-op.
func (p Plan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Update) == 0 && len(p.Create) == 0
}

// Diff computes the operations needed to converge a page's blocks from
// original to updated. Identity is the remote id: a block that kept its id
// is updated even when its kind changed, a block without an id (or with an
// id the original never had) is created, and an original id missing from
// updated is deleted. Only content, kind and the checked flag are compared;
// pure reordering of existing blocks is not detected, and children of
// toggle/column blocks are not diffed recursively.
func Diff(original, updated []template.Block) Plan {
	byID := make(map[string]template.Block, len(original))
	for _, block := range original {
		if block.RemoteID != "" {
			byID[block.RemoteID] = block
		}
	}

	var plan Plan
	seen := make(map[string]struct{}, len(byID))

	for _, block := range updated {
		prev, exists := byID[block.RemoteID]
		if block.RemoteID == "" || !exists {
			plan.Create = append(plan.Create, block)
			continue
		}
		seen[block.RemoteID] = struct{}{}
		if prev.Content != block.Content || prev.Kind != block.Kind || prev.Checked != block.Checked {
			plan.Update = append(plan.Update, block)
		}
	}

	for _, block := range original {
		if block.RemoteID == "" {
			continue
		}
		if _, ok := seen[block.RemoteID]; !ok {
			plan.Delete = append(plan.Delete, block.RemoteID)
		}
	}

	return plan
}
