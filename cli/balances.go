package cli

import (
	"fmt"
	"sort"

	"github.com/Rhymond/go-money"
	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"

	"github.com/fecgen/fecgen/config"
	"github.com/fecgen/fecgen/fec"
	"github.com/fecgen/fecgen/ledger"
)

// BalancesCmd reports account and class balances of a FEC export:
// credit minus debit per group, so revenue shows positive and expenses
// negative.
type BalancesCmd struct {
	File    FileOrStdin `help:"FEC export filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Monthly bool        `help:"Show class balances per calendar month."`
}

func (cmd *BalancesCmd) Run(ctx *kong.Context, globals *Globals) error {
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

	if cmd.Monthly {
		return cmd.runMonthly(ctx, records)
	}
	return cmd.runGeneral(ctx, records)
}

func (cmd *BalancesCmd) runGeneral(ctx *kong.Context, records []*fec.Record) error {
	balances, err := ledger.RecordBalances(records)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	rows := make([][2]string, 0, len(balances)+2)
	var patrimony int64
	for _, group := range balances.Groups() {
		rows = append(rows, [2]string{group, eur(balances[group])})
		if len(group) == 1 && group < "6" {
			patrimony += balances[group]
		}
	}
	rows = append(rows,
		[2]string{"classes 1..5", eur(patrimony)},
		[2]string{"result (6+7)", eur(balances.Result())},
	)
	renderTable(ctx, rows)

	return nil
}

func (cmd *BalancesCmd) runMonthly(ctx *kong.Context, records []*fec.Record) error {
	months, err := ledger.MonthlyRecordBalances(records)
	if err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}

	keys := make([]string, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Strings(keys)

	var rows [][2]string
	for _, month := range keys {
		balances := months[month]
		for _, class := range balances.Groups() {
			rows = append(rows, [2]string{fmt.Sprintf("%s  %s", month, class), eur(balances[class])})
		}
		rows = append(rows, [2]string{fmt.Sprintf("%s  result", month), eur(balances.Result())})
	}
	renderTable(ctx, rows)

	return nil
}

// renderTable prints two aligned columns: group left, amount right.
func renderTable(ctx *kong.Context, rows [][2]string) {
	var groupWidth, amountWidth int
	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > groupWidth {
			groupWidth = w
		}
		if w := runewidth.StringWidth(row[1]); w > amountWidth {
			amountWidth = w
		}
	}
	for _, row := range rows {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %s\n",
			runewidth.FillRight(row[0], groupWidth),
			runewidth.FillLeft(row[1], amountWidth),
		)
	}
}

func eur(cents int64) string {
	return money.New(cents, money.EUR).Display()
}
