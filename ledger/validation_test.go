package ledger

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/fecgen/fecgen/fec"
)

func record(num, entryDate, validDate, debit, credit, lettrage string) *fec.Record {
	return &fec.Record{
		JournalCode:  "BQ",
		JournalLib:   "Banque",
		EcritureNum:  num,
		EcritureDate: entryDate,
		CompteNum:    "512",
		CompteLib:    "Banque",
		PieceDate:    entryDate,
		EcritureLib:  "test",
		Debit:        debit,
		Credit:       credit,
		EcritureLet:  lettrage,
		ValidDate:    validDate,
	}
}

func TestValidateCleanLedger(t *testing.T) {
	e := newTestEngine()
	e.AddInvoices([]*Invoice{{
		Kind:         ClientInvoice,
		Number:       "2024-001",
		AttachmentID: "att-1",
		When:         date(2024, time.March, 1),
		TotalCents:   120000,
		VATCents:     20000,
		ThirdParty:   "ACME",
	}})
	assert.NoError(t, e.PostTransaction(&BankTransaction{
		AmountExclVATCents: 100000,
		VATCents:           20000,
		When:               date(2024, time.March, 10),
		Category:           "sales",
		Counterparty:       "ACME",
		Reference:          "Facture 2024-001",
	}))
	assert.NoError(t, e.Close())

	v := NewValidator(testPeriod())
	report := v.Validate(e.Records())
	assert.NoError(t, report.Err())
	assert.Equal(t, 0, len(report.Warnings))
}

func TestValidateErrors(t *testing.T) {
	v := NewValidator(testPeriod())

	tests := []struct {
		name    string
		records []*fec.Record
		errs    int
	}{
		{
			name:    "zero amounts",
			records: []*fec.Record{record("1", "20240315", "20240329", "0,00", "0,00", "")},
			errs:    1,
		},
		{
			name: "both sides carry an amount",
			records: []*fec.Record{
				record("1", "20240315", "20240329", "10,00", "10,00", ""),
			},
			errs: 1,
		},
		{
			name: "validated before entry",
			records: []*fec.Record{
				record("1", "20240315", "20240301", "10,00", "0,00", ""),
				record("1", "20240315", "20240329", "0,00", "10,00", ""),
			},
			errs: 1,
		},
		{
			name: "unbalanced operation",
			records: []*fec.Record{
				record("1", "20240315", "20240329", "10,00", "0,00", ""),
				record("1", "20240315", "20240329", "0,00", "9,00", ""),
			},
			errs: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.Validate(tt.records)
			assert.Equal(t, tt.errs, len(report.Errors))
			assert.Error(t, report.Err())
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	v := NewValidator(testPeriod())

	t.Run("chronology", func(t *testing.T) {
		report := v.Validate([]*fec.Record{
			record("1", "20240601", "20240628", "10,00", "0,00", ""),
			record("1", "20240601", "20240628", "0,00", "10,00", ""),
			record("2", "20240301", "20240329", "10,00", "0,00", ""),
			record("2", "20240301", "20240329", "0,00", "10,00", ""),
		})
		assert.NoError(t, report.Err())
		assert.Equal(t, 1, len(report.Warnings))
	})

	t.Run("outside period", func(t *testing.T) {
		// Both dates precede the period, so each record warns twice.
		report := v.Validate([]*fec.Record{
			record("1", "20231201", "20231229", "10,00", "0,00", ""),
			record("1", "20231201", "20231229", "0,00", "10,00", ""),
		})
		assert.NoError(t, report.Err())
		assert.Equal(t, 4, len(report.Warnings))
	})

	t.Run("validation date outside period", func(t *testing.T) {
		// A December entry validating in January of the next year
		// warns on the validation date only.
		report := v.Validate([]*fec.Record{
			record("1", "20241230", "20250102", "10,00", "0,00", ""),
			record("1", "20241230", "20250102", "0,00", "10,00", ""),
		})
		assert.NoError(t, report.Err())
		assert.Equal(t, 2, len(report.Warnings))
	})

	t.Run("carry-forward exempt from period bounds", func(t *testing.T) {
		ran := record("1", "20231201", "20231229", "10,00", "0,00", "")
		ran.JournalCode = "RAN"
		ran2 := record("1", "20231201", "20231229", "0,00", "10,00", "")
		ran2.JournalCode = "RAN"
		report := v.Validate([]*fec.Record{ran, ran2})
		assert.Equal(t, 0, len(report.Warnings))
	})

	t.Run("unbalanced carry-forward journal", func(t *testing.T) {
		ran := record("1", "20240101", "20240131", "10,00", "0,00", "")
		ran.JournalCode = "RAN"
		bq := record("1", "20240101", "20240131", "0,00", "10,00", "")
		report := v.Validate([]*fec.Record{ran, bq})
		assert.NoError(t, report.Err())
		assert.Equal(t, 1, len(report.Warnings))
	})

	t.Run("unbalanced reconciliation group", func(t *testing.T) {
		report := v.Validate([]*fec.Record{
			record("1", "20240601", "20240628", "10,00", "0,00", "A"),
			record("1", "20240601", "20240628", "0,00", "10,00", ""),
			record("2", "20240602", "20240628", "4,00", "0,00", ""),
			record("2", "20240602", "20240628", "0,00", "4,00", "A"),
		})
		assert.NoError(t, report.Err())
		assert.Equal(t, 1, len(report.Warnings))
	})

	t.Run("lonely reconciliation code", func(t *testing.T) {
		report := v.Validate([]*fec.Record{
			record("1", "20240601", "20240628", "10,00", "0,00", "B"),
			record("1", "20240601", "20240628", "0,00", "10,00", ""),
		})
		assert.Equal(t, 2, len(report.Warnings)) // lonely and unbalanced
	})
}

func TestValidateIsIdempotent(t *testing.T) {
	v := NewValidator(testPeriod())
	records := []*fec.Record{
		record("1", "20240601", "20240628", "10,00", "0,00", "A"),
		record("1", "20240601", "20240628", "0,00", "9,00", ""),
	}
	first := v.Validate(records)
	second := v.Validate(records)
	assert.Equal(t, len(first.Errors), len(second.Errors))
	assert.Equal(t, len(first.Warnings), len(second.Warnings))
	for i := range first.Errors {
		assert.Equal(t, first.Errors[i].Error(), second.Errors[i].Error())
	}
}
