package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tabula-org/tabula/analytics"
	"github.com/tabula-org/tabula/config"
	"github.com/tabula-org/tabula/dataset"
	"github.com/tabula-org/tabula/helpers"
	"github.com/tabula-org/tabula/plan"
	"github.com/tabula-org/tabula/planner"
	"github.com/tabula-org/tabula/quota"
	"github.com/tabula-org/tabula/store"
	"github.com/tabula-org/tabula/transform"
)

// ============================================================================
// TABULA CLI — Describe a transformation, get it executed
// ============================================================================

const version = "0.1.0"

func main() {
	filePath := flag.String("file", "", "Path to CSV data file (required)")
	prompt := flag.String("prompt", "", "Natural language description of the transformation")
	planPath := flag.String("plan", "", "Path to a plan JSON file (skips the planner)")
	userID := flag.String("user", "anonymous", "User id for quota accounting")
	clarifyID := flag.String("clarify-id", "", "Clarify id from a previous clarification")
	answer := flag.String("answer", "", "Answer to a previous clarification question")
	explain := flag.Bool("explain", false, "Print the plan explanation and exit without executing")
	format := flag.String("format", "csv", "Output format: csv, json, pretty")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	saveDir := flag.String("save-dir", "", "Also persist the result as CSV under this directory and print its handle")
	timeout := flag.Duration("timeout", 45*time.Second, "Deadline for the planning call")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Tabula — natural-language tabular transformations

Usage:
  tabula --file data.csv --prompt "trim the name column and title-case it"
  tabula --file data.csv --prompt "..." --explain
  tabula --file data.csv --plan plan.json --format csv --out clean.csv
  tabula --file data.csv --prompt "..." --clarify-id <id> --answer "option A"

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  LLM_PROVIDER      openai (default) or kimi
  OPENAI_API_KEY    Required for --prompt with the openai provider
  KIMI_API_KEY      Required for --prompt with the kimi provider
  DATABASE_DSN      Postgres DSN for quota + analytics (optional)
  MAX_FREE_USES     Quota ceiling per user (default 5)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("tabula %s\n", version)
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatalf("Invalid configuration: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		flag.Usage()
		os.Exit(1)
	}
	if *prompt == "" && *planPath == "" {
		fmt.Fprintln(os.Stderr, "Error: either --prompt or --plan is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	// ── Data ──────────────────────────────────────────────────────────────
	data, err := os.ReadFile(*filePath)
	if err != nil {
		fatalf("Failed to read file: %v", err)
	}
	ds, err := helpers.ParseCSV(data)
	if err != nil {
		fatalf("Failed to parse CSV: %v", err)
	}
	profile := dataset.Analyze(ds, cfg.PreviewRows)
	logger.Info("dataset loaded",
		zap.Int("rows", profile.RowCount),
		zap.Int("columns", profile.ColumnCount))

	// ── Persistence ───────────────────────────────────────────────────────
	var ledger *quota.Ledger
	var events *analytics.EventLogger
	if cfg.DatabaseDSN != "" {
		db, err := sqlx.Connect("pgx", cfg.DatabaseDSN)
		if err != nil {
			fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		sqlStore := quota.NewSQLStore(db)
		if err := sqlStore.EnsureSchema(ctx); err != nil {
			fatalf("Failed to prepare quota schema: %v", err)
		}
		ledger = quota.NewLedger(sqlStore, cfg.MaxFreeUses, logger)

		events = analytics.NewEventLogger(db, logger)
		if err := events.EnsureSchema(ctx); err != nil {
			logger.Warn("analytics schema unavailable", zap.Error(err))
			events = nil
		}
	} else {
		ledger = quota.NewLedger(quota.NewMemoryStore(), cfg.MaxFreeUses, logger)
	}

	// ── Plan acquisition ──────────────────────────────────────────────────
	var p *plan.Plan
	if *planPath != "" {
		raw, err := os.ReadFile(*planPath)
		if err != nil {
			fatalf("Failed to read plan file: %v", err)
		}
		p, err = plan.ParseJSON(raw)
		if err != nil {
			fatalf("Invalid plan: %v", err)
		}
	} else {
		client := buildClient(cfg, logger)
		pl := planner.New(client, logger)

		planCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()

		var outcome *planner.Outcome
		if *clarifyID != "" && *answer != "" {
			outcome = pl.ResumeClarification(planCtx, *prompt, profile, *clarifyID, *answer)
		} else {
			outcome = pl.CreatePlan(planCtx, *prompt, profile)
		}

		if outcome.Type == planner.OutcomeClarify {
			writeJSON(os.Stdout, outcome, "pretty")
			return
		}
		p = outcome.Plan
	}

	// ── Explain mode ──────────────────────────────────────────────────────
	if *explain {
		writeJSON(os.Stdout, plan.Explain(*p), "pretty")
		return
	}

	// ── Quota gate ────────────────────────────────────────────────────────
	allowed, err := ledger.CanConsume(ctx, *userID)
	if err != nil {
		fatalf("Quota check failed: %v", err)
	}
	if !allowed {
		usage, _ := ledger.Usage(ctx, *userID)
		fatalf("Usage limit reached (%d/%d). No more free transformations available.",
			usage, ledger.Limit())
	}

	// ── Execute ───────────────────────────────────────────────────────────
	started := time.Now()
	result, applyErr := transform.Apply(ds, *p)
	elapsed := time.Since(started)

	status := "success"
	errorCode := ""
	if applyErr != nil {
		status = "error"
		errorCode = classifyError(applyErr)
	}
	events.LogTransformEvent(ctx, analytics.Event{
		UserID:        *userID,
		Plan:          *p,
		FileSizeBytes: int64(len(data)),
		ProcessingMS:  elapsed.Milliseconds(),
		Status:        status,
		ErrorCode:     errorCode,
		OutputFormat:  *format,
	})

	if applyErr != nil {
		fatalf("Transformation failed: %v", applyErr)
	}

	newCount, remaining, err := ledger.Consume(ctx, *userID)
	if err != nil {
		fatalf("Quota update failed: %v", err)
	}
	logger.Info("transformation applied",
		zap.Int("operations", len(p.Operations)),
		zap.Duration("elapsed", elapsed),
		zap.Int("usage", newCount),
		zap.Int("remaining", remaining))

	// ── Output ────────────────────────────────────────────────────────────
	writer := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	switch *format {
	case "json", "pretty":
		writeJSON(writer, dataset.Analyze(result, cfg.PreviewRows), *format)
	default:
		if err := helpers.WriteCSV(writer, result); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	}

	if *saveDir != "" {
		provider, err := store.NewFileProvider(*saveDir)
		if err != nil {
			fatalf("Failed to open result store: %v", err)
		}
		handle, err := provider.Save(ctx, result, "csv")
		if err != nil {
			fatalf("Failed to persist result: %v", err)
		}
		logger.Info("result persisted", zap.String("handle", handle))
		fmt.Fprintf(os.Stderr, "Saved result handle: %s\n", handle)
	}
}

// buildClient wires the configured provider. A missing key either fails
// closed (LLM_PROVIDER_REQUIRED=1) or degrades to clarification-only mode.
func buildClient(cfg *config.Settings, logger *zap.Logger) planner.Client {
	if cfg.ProviderAPIKey() == "" {
		if cfg.RequireProvider {
			fatalf("Provider %q selected but no API key configured", cfg.Provider)
		}
		logger.Warn("no provider API key configured, planning will degrade to clarification",
			zap.String("provider", cfg.Provider))
		return nil
	}

	client, err := planner.NewChatClient(planner.ClientConfig{
		APIKey:      cfg.ProviderAPIKey(),
		Model:       cfg.ProviderModel(),
		BaseURL:     cfg.ProviderBaseURL(),
		Temperature: cfg.ProviderTemperature(),
	})
	if err != nil {
		fatalf("Failed to build provider client: %v", err)
	}
	return client
}

func buildLogger(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zapCfg.Build()
}

func classifyError(err error) string {
	switch err.(type) {
	case *transform.MissingColumnError:
		return "missing_column"
	case *transform.OperationError:
		return "invalid_operation"
	case *plan.ValidationError:
		return "invalid_plan"
	}
	return "transform_failed"
}

func writeJSON(w *os.File, v any, format string) {
	var out []byte
	var err error
	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
