package ledger

import (
	"fmt"
	"sort"

	"github.com/fecgen/fecgen/fec"
)

// Balances maps an aggregation group to its net credit balance in
// cents. Groups are the single-digit account class ("6") and the full
// account with label ("706 (Prestations de services)"); credits count
// positive, debits negative, so revenue classes come out positive and
// expense classes negative.
type Balances map[string]int64

// ComputeBalances aggregates the ledger per account and per class.
func ComputeBalances(lines []*Line) Balances {
	balances := Balances{}
	for _, line := range lines {
		change := line.CreditCents - line.DebitCents
		balances[line.Account.Class()] += change
		balances[fmt.Sprintf("%s (%s)", line.Account.CompteNum(), line.Account.Label)] += change
	}
	return balances
}

// Class returns the net balance of an account class, zero when the
// class never appears.
func (b Balances) Class(class string) int64 {
	return b[class]
}

// Result returns the period result: revenue minus expenses, classes 7
// and 6 together (6 carries a negative balance).
func (b Balances) Result() int64 {
	return b["7"] + b["6"]
}

// Groups returns the aggregation keys in sorted order, classes first.
func (b Balances) Groups() []string {
	groups := make([]string, 0, len(b))
	for g := range b {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// RecordBalances aggregates an exported FEC ledger the way
// ComputeBalances aggregates live lines. It lets reporting commands
// work from a written export alone.
func RecordBalances(records []*fec.Record) (Balances, error) {
	balances := Balances{}
	for _, r := range records {
		change, err := recordNet(r)
		if err != nil {
			return nil, err
		}
		balances[r.CompteNum[:1]] += change
		balances[fmt.Sprintf("%s (%s)", r.CompteNum, r.CompteLib)] += change
	}
	return balances, nil
}

// MonthlyRecordBalances aggregates an exported FEC ledger per calendar
// month, keyed "2006-01", then per class within the month.
func MonthlyRecordBalances(records []*fec.Record) (map[string]Balances, error) {
	months := map[string]Balances{}
	for _, r := range records {
		change, err := recordNet(r)
		if err != nil {
			return nil, err
		}
		when, err := r.EntryDate()
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", r.EcritureNum, err)
		}
		key := when.Format("2006-01")
		if months[key] == nil {
			months[key] = Balances{}
		}
		months[key][r.CompteNum[:1]] += change
	}
	return months, nil
}

func recordNet(r *fec.Record) (int64, error) {
	if r.CompteNum == "" {
		return 0, fmt.Errorf("operation %s: record without account", r.EcritureNum)
	}
	debit, err := r.DebitCents()
	if err != nil {
		return 0, fmt.Errorf("operation %s: %w", r.EcritureNum, err)
	}
	credit, err := r.CreditCents()
	if err != nil {
		return 0, fmt.Errorf("operation %s: %w", r.EcritureNum, err)
	}
	return credit - debit, nil
}

// MonthlyBalances aggregates the ledger per calendar month, keyed
// "2006-01", then per class within the month.
func MonthlyBalances(lines []*Line) map[string]Balances {
	months := map[string]Balances{}
	for _, line := range lines {
		key := line.Date.Format("2006-01")
		if months[key] == nil {
			months[key] = Balances{}
		}
		change := line.CreditCents - line.DebitCents
		months[key][line.Account.Class()] += change
	}
	return months
}
