package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestComputeBalances(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Prestations",
			manualPosting(t, e, "512", 120000, 0),
			manualPosting(t, e, "706", 0, 120000)),
		manualEntry(t, e, date(2024, time.March, 1), "Charges",
			manualPosting(t, e, "616", 50000, 0),
			manualPosting(t, e, "512", 0, 50000)),
	})
	assert.NoError(t, e.FlushDeferred())

	balances := ComputeBalances(e.Lines())
	assert.Equal(t, int64(120000), balances.Class("7"))
	assert.Equal(t, int64(-50000), balances.Class("6"))
	assert.Equal(t, int64(-70000), balances.Class("5"))
	assert.Equal(t, int64(70000), balances.Result())
	assert.Equal(t, int64(120000), balances["706 (Prestations de services)"])
}

func TestMonthlyBalances(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Prestations",
			manualPosting(t, e, "512", 120000, 0),
			manualPosting(t, e, "706", 0, 120000)),
		manualEntry(t, e, date(2024, time.March, 1), "Charges",
			manualPosting(t, e, "616", 50000, 0),
			manualPosting(t, e, "512", 0, 50000)),
	})
	assert.NoError(t, e.FlushDeferred())

	months := MonthlyBalances(e.Lines())
	assert.Equal(t, 2, len(months))
	assert.Equal(t, int64(120000), months["2024-02"].Class("7"))
	assert.Equal(t, int64(-50000), months["2024-03"].Class("6"))
	assert.Zero(t, months["2024-03"].Class("7"))
}

func TestRecordBalances(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Prestations",
			manualPosting(t, e, "512", 120000, 0),
			manualPosting(t, e, "706", 0, 120000)),
	})
	assert.NoError(t, e.FlushDeferred())

	balances, err := RecordBalances(e.Records())
	assert.NoError(t, err)
	assert.Equal(t, ComputeBalances(e.Lines()), balances)

	months, err := MonthlyRecordBalances(e.Records())
	assert.NoError(t, err)
	assert.Equal(t, int64(120000), months["2024-02"].Class("7"))
}

func TestRecordBalancesRejectsBadAmounts(t *testing.T) {
	e := newTestEngine()
	e.SetManualEntries([]*ManualEntry{
		manualEntry(t, e, date(2024, time.February, 1), "Prestations",
			manualPosting(t, e, "512", 120000, 0),
			manualPosting(t, e, "706", 0, 120000)),
	})
	assert.NoError(t, e.FlushDeferred())

	records := e.Records()
	records[0].Debit = "12,3,4"
	_, err := RecordBalances(records)
	assert.Error(t, err)
}
