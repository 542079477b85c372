package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/fecgen/fecgen/fec"
)

// fakeQonto serves a minimal fiscal period: one client invoice and its
// settlement.
func fakeQonto(t *testing.T) *httptest.Server {
	t.Helper()

	empty := func(key string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintf(w, `{"%s": [], "meta": {"next_page": null}}`, key)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/transactions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{
			"transactions": [{
				"transaction_id": "tx-1",
				"label": "ACME SARL",
				"status": "completed",
				"currency": "EUR",
				"amount_cents": 120000,
				"side": "credit",
				"settled_at": "2024-03-10T09:00:00Z",
				"attachment_ids": ["att-2"],
				"reference": "Facture INV-2024-001",
				"category": "sales"
			}],
			"meta": {"next_page": null}
		}`)
	})
	mux.HandleFunc("/v2/client_invoices", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{
			"client_invoices": [{
				"id": "inv-1",
				"attachment_id": "att-1",
				"issue_date": "2024-03-01T00:00:00Z",
				"number": "INV-2024-001",
				"total_amount_cents": 120000,
				"vat_amount_cents": 0,
				"client": {"name": "ACME SARL"}
			}],
			"meta": {"next_page": null}
		}`)
	})
	mux.HandleFunc("/v2/credit_notes", empty("credit_notes"))
	mux.HandleFunc("/v2/supplier_invoices", empty("supplier_invoices"))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGenerateCmdEndToEnd(t *testing.T) {
	server := fakeQonto(t)
	dataDir := t.TempDir()

	t.Setenv("QONTO_API_SLUG", "acme-1234")
	t.Setenv("QONTO_API_KEY", "secret")
	t.Setenv("QONTO_API_IBAN", "FR7616798000010000012345678")
	t.Setenv("QONTO_API_URL", server.URL)

	stdout, stderr, err := runCLI(t, "generate",
		"--siren", "123456789",
		"--from", "2024-01-01", "--to", "2024-12-31",
		"--data-dir", dataDir, "--yes")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "123456789FEC20241231.txt")
	assert.Equal(t, stderr, "")

	f, err := os.Open(filepath.Join(dataDir, "123456789FEC20241231.txt"))
	assert.NoError(t, err)
	defer f.Close()
	records, err := fec.Read(f)
	assert.NoError(t, err)

	// Invoice (receivable/revenue), settlement (bank/receivable) and
	// the period-end corporate tax accrual.
	assert.Equal(t, 6, len(records))

	var reconciled int
	var taxed bool
	for _, r := range records {
		if r.EcritureLet != "" {
			reconciled++
		}
		if r.CompteNum == "6951" {
			taxed = true
			assert.Equal(t, "180,00", r.Debit)
		}
	}
	assert.Equal(t, 2, reconciled)
	assert.True(t, taxed)

	// The companion tables came out alongside the ledger.
	_, err = os.Stat(filepath.Join(dataDir, "123456789ACCOUNTS.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dataDir, "123456789EVIDENCES20241231.txt"))
	assert.NoError(t, err)
}

func TestGenerateCmdKeepsExistingExport(t *testing.T) {
	server := fakeQonto(t)
	dataDir := t.TempDir()

	t.Setenv("QONTO_API_SLUG", "acme-1234")
	t.Setenv("QONTO_API_KEY", "secret")
	t.Setenv("QONTO_API_IBAN", "FR7616798000010000012345678")
	t.Setenv("QONTO_API_URL", server.URL)

	existing := filepath.Join(dataDir, "123456789FEC20241231.txt")
	assert.NoError(t, os.WriteFile(existing, []byte("sentinel"), 0o644))

	// Without --yes and without a terminal the prompt answers no.
	stdout, _, err := runCLI(t, "generate",
		"--siren", "123456789",
		"--from", "2024-01-01", "--to", "2024-12-31",
		"--data-dir", dataDir)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "keeping existing export")

	content, err := os.ReadFile(existing)
	assert.NoError(t, err)
	assert.Equal(t, "sentinel", string(content))
}

func TestGenerateCmdRequiresPeriod(t *testing.T) {
	t.Setenv("QONTO_API_SLUG", "acme-1234")
	t.Setenv("QONTO_API_KEY", "secret")
	t.Setenv("QONTO_API_IBAN", "FR7616798000010000012345678")
	t.Setenv("FECGEN_PERIOD_START", "")
	t.Setenv("FECGEN_PERIOD_END", "")

	_, _, err := runCLI(t, "generate", "--siren", "123456789")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FECGEN_PERIOD_START")
}
