package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-org/tabula/dataset"
	"github.com/tabula-org/tabula/plan"
)

// stubClient returns a canned response or error and records what it saw.
type stubClient struct {
	response string
	err      error

	lastSystem string
	lastUser   string
}

func (s *stubClient) Complete(_ context.Context, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testProfile() dataset.Analysis {
	ds, _ := dataset.New(
		dataset.Column{Name: "name", Cells: []any{"anna", "bruno"}},
		dataset.Column{Name: "amount", Cells: []any{int64(10), nil}},
	)
	return dataset.Analyze(ds, 5)
}

func TestCreatePlanAcceptsWellFormedPlan(t *testing.T) {
	client := &stubClient{response: `{
		"type": "plan",
		"plan": {"operations": [
			{"type": "trim_whitespace", "columns": ["name"]},
			{"type": "sort_rows", "by": ["amount"], "ascending": false}
		]}
	}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "clean it up", testProfile())

	require.Equal(t, OutcomePlan, outcome.Type)
	require.NotNil(t, outcome.Plan)
	require.Len(t, outcome.Plan.Operations, 2)
	assert.Equal(t, plan.OpTrimWhitespace, outcome.Plan.Operations[0].Type)
	assert.Equal(t, []string{"amount"}, outcome.Plan.Operations[1].By)
	assert.NotNil(t, outcome.Warnings)
}

func TestCreatePlanDropsUnsupportedOperations(t *testing.T) {
	client := &stubClient{response: `{
		"type": "plan",
		"plan": {"operations": [
			{"type": "pivot_table", "index": "name"},
			{"type": "trim_whitespace", "columns": ["name"]},
			"not-an-object"
		]}
	}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "pivot please", testProfile())

	require.Equal(t, OutcomePlan, outcome.Type)
	require.Len(t, outcome.Plan.Operations, 1)
	assert.Equal(t, plan.OpTrimWhitespace, outcome.Plan.Operations[0].Type)
}

func TestCreatePlanEmptyAfterSanitizationDegradesToClarify(t *testing.T) {
	client := &stubClient{response: `{
		"type": "plan",
		"plan": {"operations": [{"type": "pivot_table"}]}
	}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "pivot please", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, GenericClarifyQuestion, outcome.Question)
	assert.Equal(t, GenericClarifyChoices, outcome.Choices)
	assert.NotEmpty(t, outcome.ClarifyID)
	assert.Nil(t, outcome.Plan)
}

func TestCreatePlanMissingTypeDegradesToClarify(t *testing.T) {
	client := &stubClient{response: `{"question": "what?"}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "do things", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, GenericClarifyQuestion, outcome.Question)
	assert.NotEmpty(t, outcome.ClarifyID)
}

func TestCreatePlanNonJSONDegradesToClarify(t *testing.T) {
	client := &stubClient{response: "I think you should normalize the data first."}

	outcome := New(client, nil).CreatePlan(context.Background(), "do things", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.NotEmpty(t, outcome.ClarifyID)
}

func TestCreatePlanExtractsJSONFromProse(t *testing.T) {
	client := &stubClient{response: "Here you go:\n```json\n" +
		`{"type": "plan", "plan": {"operations": [{"type": "drop_columns", "columns": ["tmp"]}]}}` +
		"\n```"}

	outcome := New(client, nil).CreatePlan(context.Background(), "drop tmp", testProfile())

	require.Equal(t, OutcomePlan, outcome.Type)
	require.Len(t, outcome.Plan.Operations, 1)
	assert.Equal(t, []string{"tmp"}, outcome.Plan.Operations[0].Columns)
}

func TestCreatePlanClarifyPassthrough(t *testing.T) {
	client := &stubClient{response: `{
		"type": "clarify",
		"question": "  Which column holds the price?  ",
		"choices": ["amount", "  total ", "", 7],
		"clarify_id": "clar-123"
	}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "round the price", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, "Which column holds the price?", outcome.Question)
	assert.Equal(t, []string{"amount", "total"}, outcome.Choices)
	assert.Equal(t, "clar-123", outcome.ClarifyID)
}

func TestCreatePlanClarifyChoicesCappedAtFour(t *testing.T) {
	client := &stubClient{response: `{
		"type": "clarify",
		"question": "pick one",
		"choices": ["a", "b", "c", "d", "e", "f"]
	}`}

	outcome := New(client, nil).CreatePlan(context.Background(), "x", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Len(t, outcome.Choices, 4)
}

func TestCreatePlanTransportFailureDegradesToClarify(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}

	outcome := New(client, nil).CreatePlan(context.Background(), "x", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, GenericClarifyQuestion, outcome.Question)
}

func TestCreatePlanAuthFailureGetsSpecificQuestion(t *testing.T) {
	client := &stubClient{err: &StatusError{Code: 401, Body: "bad key"}}

	outcome := New(client, nil).CreatePlan(context.Background(), "x", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, authClarifyQuestion, outcome.Question)
	assert.Equal(t, authClarifyChoices, outcome.Choices)
	assert.NotEmpty(t, outcome.ClarifyID)
}

func TestCreatePlanNilClientFailsOpen(t *testing.T) {
	outcome := New(nil, nil).CreatePlan(context.Background(), "x", testProfile())

	require.Equal(t, OutcomeClarify, outcome.Type)
	assert.Equal(t, GenericClarifyQuestion, outcome.Question)
	assert.NotEmpty(t, outcome.ClarifyID)
}

func TestResumeClarificationCarriesContextAndID(t *testing.T) {
	client := &stubClient{response: `{"type": "clarify", "question": "still unclear"}`}
	p := New(client, nil)

	outcome := p.ResumeClarification(context.Background(), "sort it", testProfile(), "clar-9", "by amount")

	require.Equal(t, OutcomeClarify, outcome.Type)
	// the provider sent no clarify_id, so the incoming one is carried over
	assert.Equal(t, "clar-9", outcome.ClarifyID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(client.lastUser), &payload))
	clar, ok := payload["clarification"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "clar-9", clar["clarify_id"])
	assert.Equal(t, "by amount", clar["answer"])
}

func TestCreatePlanFreshClarifyIDsAreUnique(t *testing.T) {
	client := &stubClient{response: "garbage"}
	p := New(client, nil)

	first := p.CreatePlan(context.Background(), "x", testProfile())
	second := p.CreatePlan(context.Background(), "x", testProfile())

	assert.NotEmpty(t, first.ClarifyID)
	assert.NotEmpty(t, second.ClarifyID)
	assert.NotEqual(t, first.ClarifyID, second.ClarifyID)
}

func TestUserPayloadCarriesProfile(t *testing.T) {
	client := &stubClient{response: `{"type": "clarify", "question": "q"}`}
	p := New(client, nil)

	p.CreatePlan(context.Background(), "trim names", testProfile())

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(client.lastUser), &payload))
	assert.Equal(t, "trim names", payload["prompt"])
	profile, ok := payload["dataset_profile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), profile["row_count"])
}

func TestNewChatClientFailsClosedWithoutKey(t *testing.T) {
	_, err := NewChatClient(ClientConfig{})
	require.ErrorIs(t, err, ErrNotConfigured)
}
