package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fecgen/fecgen/config"
	"github.com/fecgen/fecgen/fec"
	"github.com/fecgen/fecgen/ledger"
	"github.com/fecgen/fecgen/manual"
	"github.com/fecgen/fecgen/qonto"
)

// GenerateCmd runs the full pipeline: fetch the fiscal period from
// Qonto, post every event, close the period, validate and write the
// export files.
type GenerateCmd struct {
	Siren   string `help:"SIREN of the company (defaults to FECGEN_SIREN)."`
	From    string `help:"Fiscal period start, YYYY-MM-DD (defaults to FECGEN_PERIOD_START)."`
	To      string `help:"Fiscal period end, YYYY-MM-DD (defaults to FECGEN_PERIOD_END)."`
	Manual  string `help:"Path to a manual journal entries file." type:"existingfile" optional:""`
	DataDir string `help:"Directory for the export files (defaults to FECGEN_DATA_DIR)."`
	Yes     bool   `help:"Overwrite an existing export without prompting." short:"y"`
}

func (cmd *GenerateCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := config.LoadEnv(globals.Env)
	if err != nil {
		return err
	}
	setupLogging(env, globals.Verbose)

	if err := env.RequireQonto(); err != nil {
		return err
	}

	cmd.applyOverrides(env)
	if env.SIREN == "" {
		return stdErrors.New("a SIREN is required (--siren or FECGEN_SIREN)")
	}
	period, err := env.Period()
	if err != nil {
		return err
	}

	planPath := globals.Plan
	if planPath == "" {
		planPath = env.PlanPath
	}
	plan, err := config.LoadPlan(planPath)
	if err != nil {
		return err
	}

	store := config.NewStore(env.DataDir, env.SIREN, period.End)
	if store.FECExists() && !cmd.Yes {
		overwrite, err := promptYesNo(ctx, fmt.Sprintf("Overwrite %s?", store.FECPath()))
		if err != nil {
			return err
		}
		if !overwrite {
			printInfof(ctx.Stdout, "keeping existing export %s", pathStyle.Render(store.FECPath()))
			return nil
		}
	}

	engine, err := cmd.buildEngine(plan, store, period)
	if err != nil {
		return err
	}

	if err := cmd.loadManualEntries(engine); err != nil {
		return err
	}

	runCtx := context.Background()
	transactions, err := cmd.fetch(runCtx, env, period, engine)
	if err != nil {
		return err
	}

	for _, tx := range transactions {
		if err := engine.PostTransaction(tx); err != nil {
			printError(ctx.Stderr, err.Error())
			return NewCommandError(1)
		}
	}
	if err := engine.Close(); err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	records := engine.Records()
	report := ledger.NewValidator(period).Validate(records)
	for _, warning := range report.Warnings {
		printWarning(ctx.Stderr, warning.Error())
	}
	for _, failure := range report.Errors {
		printError(ctx.Stderr, failure.Error())
	}
	if err := report.Err(); err != nil {
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d validation error(s) found", len(report.Errors)))
		return NewCommandError(1)
	}

	if err := store.SaveRecords(records); err != nil {
		return err
	}
	if err := store.SaveAccounts(engine.Chart()); err != nil {
		return err
	}
	if err := store.SaveEvidences(engine.Evidence()); err != nil {
		return err
	}

	printInfof(ctx.Stdout, "%d operations, %d records", countOperations(records), len(records))
	printSuccess(ctx.Stdout, fmt.Sprintf("wrote %s", pathStyle.Render(store.FECPath())))

	return nil
}

// applyOverrides lets command flags win over the environment.
func (cmd *GenerateCmd) applyOverrides(env *config.Env) {
	if cmd.Siren != "" {
		env.SIREN = cmd.Siren
	}
	if cmd.From != "" {
		env.PeriodStart = cmd.From
	}
	if cmd.To != "" {
		env.PeriodEnd = cmd.To
	}
	if cmd.DataDir != "" {
		env.DataDir = cmd.DataDir
	}
}

// buildEngine assembles the posting engine from the plan and the
// persisted tables, so account and piece numbers stay stable across
// runs.
func (cmd *GenerateCmd) buildEngine(plan *config.Plan, store *config.Store, period ledger.Period) (*ledger.Engine, error) {
	persisted, err := store.LoadAccounts()
	if err != nil {
		return nil, err
	}
	evidences, err := store.LoadEvidences()
	if err != nil {
		return nil, err
	}

	chart := plan.BuildChart(persisted)
	journals := plan.BuildJournals()
	opts := append(plan.EngineOptions(), ledger.WithEvidenceRegistry(evidences))

	return ledger.NewEngine(chart, journals, plan.Rules, period, opts...), nil
}

func (cmd *GenerateCmd) loadManualEntries(engine *ledger.Engine) error {
	if cmd.Manual == "" {
		return nil
	}

	f, err := os.Open(cmd.Manual)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := manual.NewParser(engine.Journals(), engine.Chart()).Parse(f)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Manual, err)
	}
	engine.SetManualEntries(entries)
	slog.Info("loaded manual entries", "count", len(entries), "file", cmd.Manual)
	return nil
}

// fetch pulls the period's bank transactions and invoices from Qonto.
// Invoices go straight into the engine; transactions are returned for
// posting.
func (cmd *GenerateCmd) fetch(ctx context.Context, env *config.Env, period ledger.Period, engine *ledger.Engine) ([]*ledger.BankTransaction, error) {
	client, err := qonto.NewClient(qonto.Config{
		BaseURL: env.QontoBaseURL,
		Slug:    env.QontoSlug,
		Key:     env.QontoKey,
		IBAN:    env.QontoIBAN,
	})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	transactions, err := client.Transactions(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}

	var invoices []*ledger.Invoice
	for _, list := range []struct {
		name  string
		fetch func(context.Context, ledger.Period) ([]*ledger.Invoice, error)
	}{
		{"client invoices", client.ClientInvoices},
		{"client credit notes", client.ClientCreditNotes},
		{"supplier invoices", client.SupplierInvoices},
	} {
		batch, err := list.fetch(ctx, period)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", list.name, err)
		}
		invoices = append(invoices, batch...)
	}
	engine.AddInvoices(invoices)

	slog.Info("fetched fiscal period from Qonto",
		"transactions", len(transactions),
		"invoices", len(invoices),
		"took", time.Since(started).Round(time.Millisecond))
	return transactions, nil
}

func countOperations(records []*fec.Record) int {
	seen := map[string]bool{}
	for _, r := range records {
		seen[r.EcritureNum] = true
	}
	return len(seen)
}
