package analytics

import (
	"strings"

	"github.com/tabula-org/tabula/plan"
)

// ============================================================================
// CLASSIFY — Coarse transformation category for event logging
// ============================================================================

var cleanOps = map[string]bool{
	plan.OpRenameColumn:   true,
	plan.OpDropColumns:    true,
	plan.OpFillNull:       true,
	plan.OpCastType:       true,
	plan.OpTrimWhitespace: true,
	plan.OpChangeCase:     true,
}

// ClassifyPlan buckets a plan into {clean, group, merge, mixed, other}
// from its operation kinds alone. The merge/group substring checks guard
// against future kinds without needing a new release of this table.
func ClassifyPlan(p plan.Plan) string {
	if len(p.Operations) == 0 {
		return "other"
	}

	kinds := map[string]bool{}
	for _, op := range p.Operations {
		kind := strings.ToLower(strings.TrimSpace(op.Type))
		if kind != "" {
			kinds[kind] = true
		}
	}
	if len(kinds) == 0 {
		return "other"
	}

	for kind := range kinds {
		if strings.Contains(kind, "merge") || strings.Contains(kind, "join") {
			return "merge"
		}
	}
	for kind := range kinds {
		if strings.Contains(kind, "group") || strings.Contains(kind, "aggregate") {
			return "group"
		}
	}

	if subsetOf(kinds, cleanOps) {
		return "clean"
	}
	if kinds[plan.OpDeriveNumeric] {
		return "group"
	}
	if kinds[plan.OpFilterRows] || kinds[plan.OpSortRows] {
		return "clean"
	}
	return "mixed"
}

func subsetOf(kinds, allowed map[string]bool) bool {
	for kind := range kinds {
		if !allowed[kind] {
			return false
		}
	}
	return true
}
