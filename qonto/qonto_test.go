package qonto

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/fecgen/fecgen/ledger"
)

func testPeriod() ledger.Period {
	return ledger.Period{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Slug: "slug", Key: "key", IBAN: "FR7630001007941234567890185"})
	assert.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{Slug: "slug", Key: "key"})
	assert.Error(t, err)
}

func TestTransactionsPagination(t *testing.T) {
	pages := []string{
		`{"meta":{"next_page":2},"transactions":[
			{"transaction_id":"tx-1","label":"ACME","status":"completed","currency":"EUR",
			 "amount_cents":12000,"side":"credit","settled_at":"2024-03-10T09:00:00Z",
			 "category":"sales","reference":"Facture 2024-001","attachment_ids":["att-1"]}]}`,
		`{"meta":{"next_page":null},"transactions":[
			{"transaction_id":"tx-2","label":"AXA","status":"completed","currency":"EUR",
			 "amount_cents":12000,"side":"debit","settled_at":"2024-02-03T09:00:00Z",
			 "category":"insurance","reference":"Prime","attachment_ids":["att-2"],
			 "vat_details":{"items":[{"rate":20,"amount_cents":2000,"amount_excluding_vat_cents":10000}]}},
			{"transaction_id":"tx-3","label":"Declined","status":"declined","currency":"EUR",
			 "amount_cents":100,"side":"debit","settled_at":"2024-02-04T09:00:00Z"}]}`,
	}
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/transactions", r.URL.Path)
		assert.Equal(t, "slug:key", r.Header.Get("Authorization"))
		assert.Equal(t, fmt.Sprint(calls+1), r.URL.Query().Get("page"))
		fmt.Fprint(w, pages[calls])
		calls++
	})

	txs, err := c.Transactions(context.Background(), testPeriod())
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, len(txs))

	// Sorted by settlement time, declined dropped.
	assert.Equal(t, "AXA", txs[0].Counterparty)
	assert.Equal(t, int64(-10000), txs[0].AmountExclVATCents)
	assert.Equal(t, int64(-2000), txs[0].VATCents)
	assert.Equal(t, "ACME", txs[1].Counterparty)
	assert.Equal(t, int64(12000), txs[1].AmountExclVATCents)
}

func TestTransactionsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	_, err := c.Transactions(context.Background(), testPeriod())
	assert.Error(t, err)
}

func TestNormalizeTransaction(t *testing.T) {
	base := func() *rawTransaction {
		return &rawTransaction{
			TransactionID: "tx-1",
			Label:         "ACME",
			Status:        "completed",
			Currency:      "EUR",
			AmountCents:   12000,
			Side:          "credit",
			SettledAt:     time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC),
			Category:      "sales",
			Reference:     "Facture 2024-001",
			AttachmentIDs: []string{"att-1"},
		}
	}

	t.Run("credit keeps positive sign", func(t *testing.T) {
		tx, err := base().Normalize()
		assert.NoError(t, err)
		assert.Equal(t, int64(12000), tx.AmountExclVATCents)
		assert.Equal(t, int64(0), tx.VATCents)
	})

	t.Run("wrong currency", func(t *testing.T) {
		raw := base()
		raw.Currency = "USD"
		_, err := raw.Normalize()
		var invalid *InvalidEventError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "tx-1", invalid.ID)
	})

	t.Run("missing required attachment", func(t *testing.T) {
		raw := base()
		raw.AttachmentRequired = true
		raw.AttachmentIDs = nil
		_, err := raw.Normalize()
		assert.Error(t, err)
	})

	t.Run("qonto fee skips attachment requirement and gets a note", func(t *testing.T) {
		raw := base()
		raw.AttachmentRequired = true
		raw.AttachmentIDs = nil
		raw.OperationType = "qonto_fee"
		tx, err := raw.Normalize()
		assert.NoError(t, err)
		assert.Equal(t, "Frais bancaires Qonto", tx.Note)
	})

	t.Run("more than one analytic label", func(t *testing.T) {
		raw := base()
		raw.LabelIDs = []string{"a", "b"}
		_, err := raw.Normalize()
		assert.Error(t, err)
	})

	t.Run("analytic label overrides category", func(t *testing.T) {
		raw := base()
		raw.LabelIDs = []string{"a"}
		raw.Labels = []struct {
			Name string `json:"name"`
		}{{Name: "madelin"}}
		tx, err := raw.Normalize()
		assert.NoError(t, err)
		assert.Equal(t, "madelin", tx.Category)
	})

	t.Run("unsupported VAT rate", func(t *testing.T) {
		raw := base()
		raw.VatDetails.Items = []struct {
			Rate               float64 `json:"rate"`
			AmountCents        int64   `json:"amount_cents"`
			AmountExclVatCents int64   `json:"amount_excluding_vat_cents"`
		}{{Rate: 2.1, AmountCents: 246, AmountExclVatCents: 11754}}
		_, err := raw.Normalize()
		assert.Error(t, err)
	})

	t.Run("incoherent amounts", func(t *testing.T) {
		raw := base()
		raw.VatDetails.Items = []struct {
			Rate               float64 `json:"rate"`
			AmountCents        int64   `json:"amount_cents"`
			AmountExclVatCents int64   `json:"amount_excluding_vat_cents"`
		}{{Rate: 20, AmountCents: 2000, AmountExclVatCents: 9000}}
		_, err := raw.Normalize()
		assert.Error(t, err)
	})
}

func TestClientInvoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/client_invoices", r.URL.Path)
		fmt.Fprint(w, `{"meta":{"next_page":null},"client_invoices":[
			{"id":"inv-1","attachment_id":"att-9","issue_date":"2024-03-01T00:00:00Z",
			 "number":"2024-001","total_amount_cents":120000,"vat_amount_cents":20000,
			 "credit_notes_ids":["cn-1"],"client":{"name":"ACME"}}]}`)
	})

	invoices, err := c.ClientInvoices(context.Background(), testPeriod())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(invoices))
	assert.Equal(t, ledger.ClientInvoice, invoices[0].Kind)
	assert.Equal(t, "2024-001", invoices[0].Number)
	assert.Equal(t, int64(120000), invoices[0].TotalCents)
	assert.Equal(t, int64(100000), invoices[0].ExclVATCents())
	assert.Equal(t, []string{"cn-1"}, invoices[0].AssociatedCredits)
}

func TestSupplierInvoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{"next_page":null},"supplier_invoices":[
			{"id":"sup-1","attachment_id":"att-5","issue_date":"2024-06-01T00:00:00Z",
			 "invoice_number":"F-778","status":"pending","supplier_name":"OVH",
			 "total_amount":{"value":"120.50","currency":"EUR"}},
			{"id":"sup-2","attachment_id":"att-6","issue_date":"2024-06-02T00:00:00Z",
			 "invoice_number":"F-779","status":"paid","supplier_name":"OVH",
			 "total_amount":{"value":"10.00","currency":"EUR"}},
			{"id":"sup-3","attachment_id":"att-7","issue_date":"2023-01-02T00:00:00Z",
			 "invoice_number":"F-100","status":"pending","supplier_name":"OVH",
			 "total_amount":{"value":"10.00","currency":"EUR"}}]}`)
	})

	invoices, err := c.SupplierInvoices(context.Background(), testPeriod())
	assert.NoError(t, err)

	// Paid and out-of-period invoices are dropped.
	assert.Equal(t, 1, len(invoices))
	assert.Equal(t, ledger.SupplierInvoice, invoices[0].Kind)
	assert.Equal(t, int64(12050), invoices[0].TotalCents)
}
