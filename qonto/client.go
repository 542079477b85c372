// Package qonto fetches bank transactions and invoices from the Qonto
// business API and normalizes them into ledger events. Normalization is
// strict: an event that fails validation aborts ingestion rather than
// producing a silently wrong ledger.
package qonto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fecgen/fecgen/ledger"
)

// DefaultBaseURL is the production Qonto API endpoint.
const DefaultBaseURL = "https://thirdparty.qonto.com"

// Config carries the API credentials. Slug and Key form the
// authorization header, IBAN selects the account.
type Config struct {
	BaseURL string
	Slug    string
	Key     string
	IBAN    string
}

// Client is a Qonto API client scoped to one bank account.
type Client struct {
	baseURL string
	auth    string
	iban    string
	http    *http.Client
}

// NewClient creates a client from credentials. All three credential
// fields are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Slug == "" || cfg.Key == "" || cfg.IBAN == "" {
		return nil, fmt.Errorf("qonto: slug, key and iban are all required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		auth:    cfg.Slug + ":" + cfg.Key,
		iban:    cfg.IBAN,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type page struct {
	Meta struct {
		NextPage *int `json:"next_page"`
	} `json:"meta"`
	Transactions     []rawTransaction     `json:"transactions"`
	ClientInvoices   []rawClientInvoice   `json:"client_invoices"`
	CreditNotes      []rawClientInvoice   `json:"credit_notes"`
	SupplierInvoices []rawSupplierInvoice `json:"supplier_invoices"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out *page) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("qonto: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qonto: GET %s: %s: %s", path, resp.Status, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Transactions returns the settled bank transactions of the period,
// normalized and sorted by settlement time. Declined transactions are
// skipped; transactions still pending are skipped with a warning since
// they may settle inside the period later.
func (c *Client) Transactions(ctx context.Context, period ledger.Period) ([]*ledger.BankTransaction, error) {
	from := period.Start
	to := period.End.Add(23*time.Hour + 59*time.Minute)

	query := url.Values{}
	query.Set("iban", c.iban)
	query.Add("includes[]", "vat_details")
	query.Add("includes[]", "labels")
	query.Add("includes[]", "attachments")
	query.Set("settled_at_from", from.UTC().Format(time.RFC3339))
	if to.Before(time.Now()) {
		query.Set("settled_at_to", to.UTC().Format(time.RFC3339))
	}

	var out []*ledger.BankTransaction
	for next := 1; ; {
		query.Set("page", strconv.Itoa(next))
		var p page
		if err := c.get(ctx, "/v2/transactions", query, &p); err != nil {
			return nil, err
		}

		for i := range p.Transactions {
			raw := &p.Transactions[i]
			switch raw.Status {
			case "declined":
				continue
			case "completed":
			default:
				slog.Warn("transaction not settled yet, skipping", "id", raw.TransactionID, "status", raw.Status)
				continue
			}

			tx, err := raw.Normalize()
			if err != nil {
				return nil, err
			}
			if tx.When.Before(from) || tx.When.After(to) {
				return nil, fmt.Errorf("qonto: transaction %s settled %s outside requested range", raw.TransactionID, tx.When)
			}
			out = append(out, tx)
		}

		if p.Meta.NextPage == nil {
			break
		}
		next = *p.Meta.NextPage
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out, nil
}

// ClientInvoices returns the client invoices issued during the period.
func (c *Client) ClientInvoices(ctx context.Context, period ledger.Period) ([]*ledger.Invoice, error) {
	return c.listInvoices(ctx, "/v2/client_invoices", period, ledger.ClientInvoice)
}

// ClientCreditNotes returns the client credit notes of the period.
func (c *Client) ClientCreditNotes(ctx context.Context, period ledger.Period) ([]*ledger.Invoice, error) {
	return c.listInvoices(ctx, "/v2/credit_notes", period, ledger.ClientCredit)
}

func (c *Client) listInvoices(ctx context.Context, path string, period ledger.Period, kind ledger.InvoiceKind) ([]*ledger.Invoice, error) {
	to := period.End.Add(23*time.Hour + 59*time.Minute)

	query := url.Values{}
	query.Set("filter[created_at_from]", period.Start.UTC().Format(time.RFC3339))
	query.Set("filter[created_at_to]", to.UTC().Format(time.RFC3339))

	var out []*ledger.Invoice
	for next := 1; ; {
		query.Set("page", strconv.Itoa(next))
		var p page
		if err := c.get(ctx, path, query, &p); err != nil {
			return nil, err
		}

		raws := p.ClientInvoices
		if kind == ledger.ClientCredit {
			raws = p.CreditNotes
		}
		for i := range raws {
			invoice, err := raws[i].Normalize(kind)
			if err != nil {
				return nil, err
			}
			out = append(out, invoice)
		}

		if p.Meta.NextPage == nil {
			break
		}
		next = *p.Meta.NextPage
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out, nil
}

// SupplierInvoices returns the supplier invoices of the period still
// awaiting payment. The endpoint has no date filter, so filtering
// happens client side on the issue date.
func (c *Client) SupplierInvoices(ctx context.Context, period ledger.Period) ([]*ledger.Invoice, error) {
	to := period.End.Add(23*time.Hour + 59*time.Minute)

	var out []*ledger.Invoice
	query := url.Values{}
	for next := 1; ; {
		query.Set("page", strconv.Itoa(next))
		var p page
		if err := c.get(ctx, "/v2/supplier_invoices", query, &p); err != nil {
			return nil, err
		}

		for i := range p.SupplierInvoices {
			raw := &p.SupplierInvoices[i]
			if raw.Status == "paid" || raw.Status == "discarded" {
				continue
			}
			invoice, err := raw.Normalize()
			if err != nil {
				return nil, err
			}
			if invoice.When.Before(period.Start) || invoice.When.After(to) {
				continue
			}
			out = append(out, invoice)
		}

		if p.Meta.NextPage == nil {
			break
		}
		next = *p.Meta.NextPage
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out, nil
}

func centsFromValue(value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
