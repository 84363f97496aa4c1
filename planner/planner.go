package planner

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabula-org/tabula/dataset"
	"github.com/tabula-org/tabula/plan"
)

// ============================================================================
// PLANNER — Natural language → validated Plan, or a clarification
// ============================================================================
// The backing text-generation service is untrusted input. Whatever it
// returns — wrong shape, broken JSON, transport failure, empty plan — the
// Planner resolves to exactly one of two outcomes: a sanitized Plan or a
// resumable ClarificationRequest. Raw failures never reach the caller.
// ============================================================================

// Outcome types.
const (
	OutcomePlan    = "plan"
	OutcomeClarify = "clarify"
)

// Generic clarification fallback. Every degraded path lands here so the
// user always gets something answerable.
const GenericClarifyQuestion = "The request is not clear enough yet. Do you want to proceed with recommended settings?"

// GenericClarifyChoices are the fixed choices of the generic fallback.
var GenericClarifyChoices = []string{
	"Yes, use recommended settings",
	"No, I want to be more specific",
}

const authClarifyQuestion = "I cannot authenticate with the language-model provider. Do you want to retry with a more specific prompt?"

var authClarifyChoices = []string{"Retry now", "Edit the prompt"}

const maxClarifyChoices = 4

// Outcome is the Planner's only result type: a plan or a clarification,
// tagged by Type.
type Outcome struct {
	Type      string     `json:"type"`
	Plan      *plan.Plan `json:"plan,omitempty"`
	Warnings  []string   `json:"warnings,omitempty"`
	Question  string     `json:"question,omitempty"`
	Choices   []string   `json:"choices,omitempty"`
	ClarifyID string     `json:"clarify_id,omitempty"`
}

// Planner orchestrates plan acquisition against a Client.
type Planner struct {
	client Client
	logger *zap.Logger
}

// New creates a Planner. A nil client is allowed and fails open: every
// request degrades to the generic clarification. Use NewChatClient when
// a provider is explicitly required.
func New(client Client, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{client: client, logger: logger.Named("planner")}
}

// CreatePlan asks the service for a plan matching the prompt and profile.
func (p *Planner) CreatePlan(ctx context.Context, prompt string, profile dataset.Analysis) *Outcome {
	return p.createPlan(ctx, prompt, profile, nil)
}

// ResumeClarification continues a clarification dialogue: same
// normalization as CreatePlan, with the prior clarify context attached.
func (p *Planner) ResumeClarification(ctx context.Context, prompt string, profile dataset.Analysis, clarifyID, answer string) *Outcome {
	return p.createPlan(ctx, prompt, profile, &clarificationContext{
		ClarifyID: clarifyID,
		Answer:    answer,
	})
}

func (p *Planner) createPlan(ctx context.Context, prompt string, profile dataset.Analysis, clarification *clarificationContext) *Outcome {
	carriedID := ""
	if clarification != nil {
		carriedID = clarification.ClarifyID
	}

	if p.client == nil {
		p.logger.Info("no provider configured, falling back to clarification")
		return clarifyOutcome(GenericClarifyQuestion, GenericClarifyChoices, carriedID)
	}

	raw, err := p.client.Complete(ctx, systemPrompt, buildUserPayload(prompt, profile, clarification))
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && (statusErr.Code == 401 || statusErr.Code == 403) {
			p.logger.Warn("provider rejected credentials",
				zap.Int("status", statusErr.Code))
			return clarifyOutcome(authClarifyQuestion, authClarifyChoices, carriedID)
		}
		p.logger.Warn("provider call failed, falling back to clarification", zap.Error(err))
		return clarifyOutcome(GenericClarifyQuestion, GenericClarifyChoices, carriedID)
	}

	parsed := parseJSONPayload(raw)
	if parsed == nil {
		p.logger.Warn("provider returned non-JSON output",
			zap.String("raw", truncate(raw, 200)))
		return clarifyOutcome(GenericClarifyQuestion, GenericClarifyChoices, carriedID)
	}

	return p.normalize(parsed, carriedID)
}

// normalize turns an arbitrary decoded payload into an Outcome. Anything
// that is not a well-formed plan or clarify collapses to the generic
// clarification.
func (p *Planner) normalize(payload map[string]any, carriedID string) *Outcome {
	switch payload["type"] {
	case "clarify":
		question, _ := payload["question"].(string)
		if strings.TrimSpace(question) == "" {
			question = GenericClarifyQuestion
		}
		choices := normalizeChoices(payload["choices"])
		if len(choices) == 0 {
			choices = GenericClarifyChoices
		}
		id := carriedID
		if raw, ok := payload["clarify_id"].(string); ok && strings.TrimSpace(raw) != "" {
			id = raw
		}
		return clarifyOutcome(question, choices, id)

	case "plan":
		operations := sanitizeOperations(payload["plan"])
		if len(operations) > 0 {
			if sanitized := decodePlan(operations); sanitized != nil {
				p.logger.Info("plan accepted", zap.Int("operations", len(sanitized.Operations)))
				return &Outcome{
					Type:     OutcomePlan,
					Plan:     sanitized,
					Warnings: []string{},
				}
			}
		}
		p.logger.Info("plan payload empty after sanitization, falling back to clarification")
		return clarifyOutcome(GenericClarifyQuestion, GenericClarifyChoices, carriedID)
	}

	p.logger.Info("payload without valid type, falling back to clarification")
	return clarifyOutcome(GenericClarifyQuestion, GenericClarifyChoices, carriedID)
}

// sanitizeOperations drops (never fails on) malformed entries and any
// operation whose kind is outside the supported set.
func sanitizeOperations(rawPlan any) []map[string]any {
	planMap, ok := rawPlan.(map[string]any)
	if !ok {
		return nil
	}
	rawOps, ok := planMap["operations"].([]any)
	if !ok {
		return nil
	}

	safe := make([]map[string]any, 0, len(rawOps))
	for _, rawOp := range rawOps {
		op, ok := rawOp.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := op["type"].(string)
		if !plan.Supported(kind) {
			continue
		}
		safe = append(safe, op)
	}
	return safe
}

// decodePlan converts sanitized operation maps into a typed Plan. Field
// type mismatches mean the plan is not actionable, so nil is returned and
// the caller degrades to clarification.
func decodePlan(operations []map[string]any) *plan.Plan {
	data, err := json.Marshal(map[string]any{"operations": operations})
	if err != nil {
		return nil
	}
	decoded, err := plan.ParseJSON(data)
	if err != nil {
		return nil
	}
	return decoded
}

// clarifyOutcome builds a resumable clarification. The id is carried over
// when present, otherwise freshly generated.
func clarifyOutcome(question string, choices []string, clarifyID string) *Outcome {
	if len(choices) > maxClarifyChoices {
		choices = choices[:maxClarifyChoices]
	}
	id := strings.TrimSpace(clarifyID)
	if id == "" {
		id = uuid.NewString()
	}
	return &Outcome{
		Type:      OutcomeClarify,
		Question:  strings.TrimSpace(question),
		Choices:   choices,
		ClarifyID: id,
	}
}

func normalizeChoices(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	choices := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			choices = append(choices, strings.TrimSpace(s))
		}
	}
	return choices
}

// parseJSONPayload decodes the raw model output. When the whole text is
// not valid JSON it retries on the outermost brace window, since models
// like to wrap JSON in prose or markdown fences.
func parseJSONPayload(raw string) map[string]any {
	var direct map[string]any
	if err := json.Unmarshal([]byte(raw), &direct); err == nil {
		return direct
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil
	}

	var windowed map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &windowed); err == nil {
		return windowed
	}
	return nil
}
