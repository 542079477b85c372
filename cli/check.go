package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fecgen/fecgen/config"
	"github.com/fecgen/fecgen/fec"
	"github.com/fecgen/fecgen/ledger"
)

// CheckCmd validates an existing FEC export. Errors are fatal (exit 1),
// warnings are listed but non-fatal.
type CheckCmd struct {
	File FileOrStdin `help:"FEC export filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	From string      `help:"Fiscal period start, YYYY-MM-DD (defaults to the export's date range)."`
	To   string      `help:"Fiscal period end, YYYY-MM-DD (defaults to the export's date range)."`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	env, err := config.LoadEnv(globals.Env)
	if err != nil {
		return err
	}
	setupLogging(env, globals.Verbose)

	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	records, err := cmd.File.ReadRecords()
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	period, err := cmd.period(records)
	if err != nil {
		return err
	}

	report := ledger.NewValidator(period).Validate(records)
	for _, warning := range report.Warnings {
		printWarning(ctx.Stderr, warning.Error())
	}
	for _, failure := range report.Errors {
		printError(ctx.Stderr, failure.Error())
	}
	if len(report.Errors) > 0 {
		_, _ = fmt.Fprintln(ctx.Stderr)
		printError(ctx.Stderr, fmt.Sprintf("%d validation error(s) found", len(report.Errors)))
		return NewCommandError(1)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed (%d records)", len(records)))

	return nil
}

// period returns the fiscal period to validate against: the --from/--to
// flags when given, otherwise the export's own date range so the period
// checks stay quiet.
func (cmd *CheckCmd) period(records []*fec.Record) (ledger.Period, error) {
	if cmd.From != "" && cmd.To != "" {
		start, err := time.Parse("2006-01-02", cmd.From)
		if err != nil {
			return ledger.Period{}, fmt.Errorf("--from: %w", err)
		}
		end, err := time.Parse("2006-01-02", cmd.To)
		if err != nil {
			return ledger.Period{}, fmt.Errorf("--to: %w", err)
		}
		return ledger.Period{Start: start, End: end}, nil
	}
	if cmd.From != "" || cmd.To != "" {
		return ledger.Period{}, fmt.Errorf("--from and --to must be given together")
	}

	var period ledger.Period
	grow := func(when time.Time) {
		if period.Start.IsZero() || when.Before(period.Start) {
			period.Start = when
		}
		if when.After(period.End) {
			period.End = when
		}
	}
	// Unparseable dates are skipped here; the validator reports them.
	for _, r := range records {
		if when, err := r.EntryDate(); err == nil {
			grow(when)
		}
		if when, err := r.ValidationDate(); err == nil {
			grow(when)
		}
	}
	return period, nil
}
