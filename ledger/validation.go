package ledger

import (
	"fmt"

	"github.com/fecgen/fecgen/fec"
)

// ValidationErrors wraps the blocking findings of a validation run.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping.
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// Report is the outcome of validating a ledger: blocking errors and
// non-blocking warnings, each naming the record (1-based, header
// excluded) it was raised on.
type Report struct {
	Errors   []error
	Warnings []error
}

// Err returns the blocking findings as a single error, nil when the
// ledger is exportable.
func (r *Report) Err() error {
	if len(r.Errors) > 0 {
		return &ValidationErrors{Errors: r.Errors}
	}
	return nil
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Errorf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Errorf(format, args...))
}

// Validator checks an exported ledger for internal consistency. It
// works on FEC records rather than engine lines so an already-exported
// file can be re-checked. Validation never mutates its input and can
// run any number of times with the same outcome.
type Validator struct {
	Period       Period
	CarryForward string // journal code exempt from period-bound checks
}

// NewValidator creates a validator for the given fiscal period.
func NewValidator(period Period) *Validator {
	return &Validator{Period: period, CarryForward: DefaultJournalRoles().CarryForward}
}

// Validate runs every check and returns the collected report.
func (v *Validator) Validate(records []*fec.Record) *Report {
	report := &Report{}

	v.checkRecords(records, report)
	v.checkOperationBalance(records, report)
	v.checkChronology(records, report)
	v.checkLettrage(records, report)
	v.checkCarryForward(records, report)

	return report
}

// checkRecords validates each record in isolation: exactly one side
// carries an amount, the validation date does not precede the entry
// date, and both dates fall inside the period (carry-forward entries
// excepted).
func (v *Validator) checkRecords(records []*fec.Record, report *Report) {
	for i, rec := range records {
		debit, derr := rec.DebitCents()
		credit, cerr := rec.CreditCents()
		if derr != nil || cerr != nil {
			report.errorf("record %d: unparseable amount (debit %q, credit %q)", i+1, rec.Debit, rec.Credit)
			continue
		}
		if debit == 0 && credit == 0 {
			report.errorf("record %d: zero debit and credit", i+1)
		}
		if debit != 0 && credit != 0 {
			report.errorf("record %d: both debit and credit carry an amount", i+1)
		}
		if debit < 0 || credit < 0 {
			report.errorf("record %d: negative amount", i+1)
		}

		entry, err := rec.EntryDate()
		if err != nil {
			report.errorf("record %d: unparseable entry date %q", i+1, rec.EcritureDate)
			continue
		}
		valid, err := rec.ValidationDate()
		if err != nil {
			report.errorf("record %d: unparseable validation date %q", i+1, rec.ValidDate)
		} else if valid.Before(entry) {
			report.errorf("record %d: validated %s before entry date %s", i+1, rec.ValidDate, rec.EcritureDate)
		}

		if rec.JournalCode != v.CarryForward {
			if !v.Period.Contains(entry) {
				report.warnf("record %d: entry date %s outside fiscal period", i+1, rec.EcritureDate)
			}
			if err == nil && !v.Period.Contains(valid) {
				report.warnf("record %d: validation date %s outside fiscal period", i+1, rec.ValidDate)
			}
		}
	}
}

// checkOperationBalance verifies that every operation nets to zero.
func (v *Validator) checkOperationBalance(records []*fec.Record, report *Report) {
	nets := map[string]int64{}
	order := []string{}
	for _, rec := range records {
		debit, derr := rec.DebitCents()
		credit, cerr := rec.CreditCents()
		if derr != nil || cerr != nil {
			continue // reported by checkRecords
		}
		if _, seen := nets[rec.EcritureNum]; !seen {
			order = append(order, rec.EcritureNum)
		}
		nets[rec.EcritureNum] += debit - credit
	}
	for _, num := range order {
		if nets[num] != 0 {
			report.errorf("operation %s is not balanced (off by %s)", num, fec.FormatCents(nets[num]))
		}
	}
}

// checkChronology warns when entry dates go backwards in file order.
func (v *Validator) checkChronology(records []*fec.Record, report *Report) {
	last := ""
	for i, rec := range records {
		if last != "" && rec.EcritureDate < last {
			report.warnf("record %d: entry date %s precedes earlier record date %s", i+1, rec.EcritureDate, last)
		}
		if rec.EcritureDate > last {
			last = rec.EcritureDate
		}
	}
}

// checkLettrage warns when the records sharing a reconciliation code do
// not net to zero, or when a code appears on a single record.
func (v *Validator) checkLettrage(records []*fec.Record, report *Report) {
	nets := map[string]int64{}
	counts := map[string]int{}
	order := []string{}
	for _, rec := range records {
		if rec.EcritureLet == "" {
			continue
		}
		debit, derr := rec.DebitCents()
		credit, cerr := rec.CreditCents()
		if derr != nil || cerr != nil {
			continue
		}
		if _, seen := nets[rec.EcritureLet]; !seen {
			order = append(order, rec.EcritureLet)
		}
		nets[rec.EcritureLet] += debit - credit
		counts[rec.EcritureLet]++
	}
	for _, code := range order {
		if counts[code] < 2 {
			report.warnf("reconciliation code %s appears on a single record", code)
		}
		if nets[code] != 0 {
			report.warnf("reconciliation code %s does not net to zero (off by %s)", code, fec.FormatCents(nets[code]))
		}
	}
}

// checkCarryForward warns when the opening-balance journal does not net
// to zero: a carried-forward balance sheet must balance on its own.
func (v *Validator) checkCarryForward(records []*fec.Record, report *Report) {
	var net int64
	var seen bool
	for _, rec := range records {
		if rec.JournalCode != v.CarryForward {
			continue
		}
		debit, derr := rec.DebitCents()
		credit, cerr := rec.CreditCents()
		if derr != nil || cerr != nil {
			continue
		}
		seen = true
		net += debit - credit
	}
	if seen && net != 0 {
		report.warnf("carry-forward journal %s does not net to zero (off by %s)", v.CarryForward, fec.FormatCents(net))
	}
}
