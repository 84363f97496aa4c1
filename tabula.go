// Package tabula turns natural-language requests into deterministic
// tabular transformations.
//
// Usage:
//
//	import (
//	    "github.com/tabula-org/tabula/planner"
//	    "github.com/tabula-org/tabula/transform"
//	)
//
//	outcome := p.CreatePlan(ctx, "trim names and add a gross column", profile)
//	if outcome.Type == planner.OutcomePlan {
//	    result, err := transform.Apply(ds, *outcome.Plan)
//	    ...
//	}
//
// The planner mediates between an untrusted text-generation service and a
// closed, typed operation language; the transform package executes a
// validated plan locally. Execution never calls any external service —
// all computation happens against the in-memory dataset.
//
// The quota package provides the per-user usage ledger that gates paid
// transformations.
package tabula
