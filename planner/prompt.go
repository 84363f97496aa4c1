package planner

import (
	"encoding/json"

	"github.com/tabula-org/tabula/dataset"
)

// ============================================================================
// PROMPT — System instructions + user payload for the planning call
// ============================================================================

const systemPrompt = `You are an expert data transformation planner.
Return ONLY valid JSON and ONLY one of these two shapes:

1) Plan:
{
  "type": "plan",
  "plan": {
    "operations": [
      {
        "type": "operation_name",
        "...": "operation specific fields"
      }
    ]
  }
}

2) Clarify:
{
  "type": "clarify",
  "question": "single concise question",
  "choices": ["option A", "option B"],
  "clarify_id": "optional-id"
}

Rules:
- Return JSON only. No markdown. No prose.
- Use only supported operation types.
- If request is ambiguous or non-deterministic, return type="clarify".
- For type="plan", operations must be non-empty and deterministic.
- For type="clarify", include 2-4 concrete choices when possible.

Supported operations:
- rename_column: {"type":"rename_column","from":"old","to":"new"}
- drop_columns: {"type":"drop_columns","columns":["col_a","col_b"]}
- fill_null: {"type":"fill_null","column":"col","value":"fallback"}
- cast_type: {"type":"cast_type","column":"col","dtype":"string|int64|float64|datetime|bool"}
- trim_whitespace: {"type":"trim_whitespace","columns":["col"]}
- change_case: {"type":"change_case","columns":["col"],"case":"upper|lower|title"}
- derive_numeric: {"type":"derive_numeric","left_column":"a","right_column":"b","new_column":"c","operator":"add|sub|mul|div","round":2}
- filter_rows: {"type":"filter_rows","column":"col","comparator":"eq|neq|gt|gte|lt|lte","value":100}
- sort_rows: {"type":"sort_rows","by":["col"],"ascending":true}`

// clarificationContext is attached to the user payload when resuming a
// clarification dialogue.
type clarificationContext struct {
	ClarifyID string `json:"clarify_id"`
	Answer    string `json:"answer"`
}

type userPayload struct {
	Prompt         string                `json:"prompt"`
	DatasetProfile dataset.Analysis      `json:"dataset_profile"`
	Clarification  *clarificationContext `json:"clarification"`
}

// buildUserPayload serializes the planning request. clarification is nil
// for a fresh request.
func buildUserPayload(prompt string, profile dataset.Analysis, clarification *clarificationContext) string {
	payload := userPayload{
		Prompt:         prompt,
		DatasetProfile: profile,
		Clarification:  clarification,
	}
	out, err := json.Marshal(payload)
	if err != nil {
		// profiles are always JSON-safe; fall back to the bare prompt
		return prompt
	}
	return string(out)
}
