package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func manualEntry(t *testing.T, e *Engine, when time.Time, label string, postings ...ManualPosting) *ManualEntry {
	t.Helper()
	return &ManualEntry{
		Date:      when,
		Label:     label,
		PieceRef:  "OD-" + when.Format("20060102"),
		PieceDate: when,
		Postings:  postings,
	}
}

func manualPosting(t *testing.T, e *Engine, code string, debit, credit int64) ManualPosting {
	t.Helper()
	journal, err := e.journals.ByCode("OD")
	assert.NoError(t, err)
	account, err := e.chart.ByCode(code)
	assert.NoError(t, err)
	return ManualPosting{Journal: journal, Account: account, DebitCents: debit, CreditCents: credit}
}

func TestCorporateTax(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Prestations",
			manualPosting(t, e, "512", 13250000, 0),
			manualPosting(t, e, "706", 0, 13250000)),
		manualEntry(t, e, date(2024, time.March, 1), "Charges",
			manualPosting(t, e, "616", 5000000, 0),
			manualPosting(t, e, "512", 0, 5000000)),
	})
	assert.NoError(t, e.Close())
	assertBalanced(t, e)

	// Result 82500: 42500 at the reduced rate, 40000 at the full rate.
	// 42500*0.15 + 40000*0.25 = 16375.
	taxExpense := findLines(e, "6951")
	assert.Equal(t, 1, len(taxExpense))
	assert.Equal(t, int64(1637500), taxExpense[0].DebitCents)
	taxDue := findLines(e, "444")
	assert.Equal(t, 1, len(taxDue))
	assert.Equal(t, int64(1637500), taxDue[0].CreditCents)
	assert.Equal(t, taxExpense[0].Operation, taxDue[0].Operation)
	assert.Equal(t, date(2024, time.December, 31), taxExpense[0].Date)
}

func TestCorporateTaxOnLossPostsNothing(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Charges",
			manualPosting(t, e, "616", 100000, 0),
			manualPosting(t, e, "512", 0, 100000)),
	})
	assert.NoError(t, e.Close())
	assert.Equal(t, 0, len(findLines(e, "6951")))
}

func TestSocialTaxProvision(t *testing.T) {
	e := newTestEngine()

	// Owner pay before the ACRE cutoff accrues at the reduced rate, pay
	// after it at the full rate.
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -300000,
		When:               date(2024, time.March, 28),
		Category:           "pay",
		Counterparty:       "Gérant",
		Reference:          "Rémunération mars",
	}))
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -100000,
		When:               date(2024, time.September, 30),
		Category:           "pay",
		Counterparty:       "Gérant",
		Reference:          "Rémunération septembre",
	}))
	// Optional Madelin contribution, paid as a regular expense.
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -200000,
		When:               date(2024, time.October, 2),
		Category:           "madelin",
		Counterparty:       "Generali",
		Reference:          "Cotisation prévoyance",
	}))
	// Contributions already paid reduce the provision.
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.November, 5), "Acompte URSSAF",
			manualPosting(t, e, "646", 10000, 0),
			manualPosting(t, e, "512", 0, 10000)),
	})

	assert.NoError(t, e.Close())
	assertBalanced(t, e)

	// mandatory = 300000*0.167 + 100000*0.455 - 10000 = 85600
	// madelin  = 200000*0.455 = 91000, under the deduction cap
	payable := findLines(e, "431")
	assert.Equal(t, 1, len(payable))
	assert.Equal(t, int64(176600), payable[0].CreditCents)
	assert.Equal(t, "Provision URSSAF TNS", payable[0].Label)

	paid := findLines(e, "646")
	assert.Equal(t, 2, len(paid))
	assert.Equal(t, int64(85600), paid[1].DebitCents)
	optional := findLines(e, "646100")
	assert.Equal(t, int64(91000), optional[0].DebitCents)
}

func TestSocialTaxProvisionSingleBucket(t *testing.T) {
	// Owner pay without any Madelin contribution: the optional leg is
	// omitted entirely, never posted with a zero amount.
	e := newTestEngine()
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -300000,
		When:               date(2024, time.September, 2),
		Category:           "pay",
		Counterparty:       "Gérant",
		Reference:          "Rémunération septembre",
	}))
	assert.NoError(t, e.Close())
	assertBalanced(t, e)

	payable := findLines(e, "431")
	assert.Equal(t, 1, len(payable))
	assert.Equal(t, int64(136500), payable[0].CreditCents)
	paid := findLines(e, "646")
	assert.Equal(t, 1, len(paid))
	assert.Equal(t, int64(136500), paid[0].DebitCents)
	assert.Equal(t, 0, len(findLines(e, "646100")))

	report := NewValidator(testPeriod()).Validate(e.Records())
	assert.NoError(t, report.Err())
	assert.Equal(t, 0, len(report.Warnings))
}

func TestSocialTaxProvisionMadelinOnly(t *testing.T) {
	// Madelin contributions with no owner pay and nothing prepaid: the
	// mandatory leg is omitted.
	e := newTestEngine()
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -100000,
		When:               date(2024, time.October, 2),
		Category:           "madelin",
		Counterparty:       "Generali",
		Reference:          "Cotisation prévoyance",
	}))
	assert.NoError(t, e.Close())
	assertBalanced(t, e)

	assert.Equal(t, 0, len(findLines(e, "646")))
	optional := findLines(e, "646100")
	assert.Equal(t, 1, len(optional))
	assert.Equal(t, int64(45500), optional[0].DebitCents)

	report := NewValidator(testPeriod()).Validate(e.Records())
	assert.NoError(t, report.Err())
}

func TestSocialTaxProvisionMadelinCap(t *testing.T) {
	e := newTestEngine()
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: -500000,
		When:               date(2024, time.October, 2),
		Category:           "madelin",
		Counterparty:       "Generali",
		Reference:          "Cotisation prévoyance",
	}))
	assert.NoError(t, e.Close())

	// 500000*0.455 = 227500; the excess over the cap moves to mandatory.
	optional := findLines(e, "646100")
	assert.Equal(t, int64(167400), optional[0].DebitCents)
	paid := findLines(e, "646")
	assert.Equal(t, int64(60100), paid[0].DebitCents)
}

func TestPeriodMonths(t *testing.T) {
	assert.Equal(t, 12, testPeriod().Months())
	short := Period{Start: date(2024, time.October, 1), End: date(2024, time.December, 31)}
	assert.Equal(t, 3, short.Months())
}
