// Package ledger implements the posting engine that turns classified
// financial events (bank transactions, invoices, manual entries) into a
// balanced FEC general ledger.
//
// The engine evaluates an ordered, data-driven rule table per event and
// emits balanced operations through a posting factory; deferred event
// classes (pending invoices, manual entries) are flushed into the ledger
// whenever a newer operation date would overtake them, so the ledger
// stays chronological. After all events are consumed, the closing
// processor appends period-end tax entries and the validator checks the
// result for internal consistency.
//
// All mutable running state (operation counter, reconciliation
// sequencer, evidence cache, posted lines) lives on the Engine so a
// fiscal period is one instantiable, testable unit. The engine is
// strictly single-writer; nothing here is safe for concurrent use.
package ledger

import (
	"log/slog"
	"sort"
	"time"

	"github.com/fecgen/fecgen/fec"
)

// JournalRoles names the journal codes the posting actions target.
type JournalRoles struct {
	Bank          string `yaml:"bank"`
	SecondaryBank string `yaml:"secondary_bank"`
	Sales         string `yaml:"sales"`
	Purchases     string `yaml:"purchases"`
	Misc          string `yaml:"misc"`
	CarryForward  string `yaml:"carry_forward"`
}

// DefaultJournalRoles returns the conventional French journal codes.
func DefaultJournalRoles() JournalRoles {
	return JournalRoles{
		Bank:          "BQ",
		SecondaryBank: "BQ1",
		Sales:         "VE",
		Purchases:     "AC",
		Misc:          "OD",
		CarryForward:  "RAN",
	}
}

// Period is the fiscal period being accounted.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the period, bounds included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Months returns the period length in calendar months, bounds
// inclusive: a full civil year counts twelve.
func (p Period) Months() int {
	return (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()) - int(p.Start.Month()) + 1
}

// Engine is the posting engine for one fiscal period.
type Engine struct {
	chart    *Chart
	journals Journals
	factory  *Factory
	evidence *EvidenceRegistry
	lettrage *Sequencer
	rules    []Rule
	excepts  []AccountException
	dispatch DispatchMode
	codes    Codes
	roles    JournalRoles
	period   Period

	opCounter  int
	lines      []*Line
	invoices   []*Invoice
	manual     []*ManualEntry
	manualNext int

	invoiceSource string
	manualSource  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDispatchMode overrides the rule dispatch mode.
func WithDispatchMode(mode DispatchMode) Option {
	return func(e *Engine) { e.dispatch = mode }
}

// WithLettrageWidth overrides the reconciliation code ceiling.
func WithLettrageWidth(width int) Option {
	return func(e *Engine) { e.lettrage = NewSequencer(width) }
}

// WithCodes overrides the structural account codes.
func WithCodes(codes Codes) Option {
	return func(e *Engine) { e.codes = codes }
}

// WithJournalRoles overrides the journal role codes.
func WithJournalRoles(roles JournalRoles) Option {
	return func(e *Engine) { e.roles = roles }
}

// WithAccountExceptions installs the priority-ordered account-exception
// table consulted before the generic expense action.
func WithAccountExceptions(excepts []AccountException) Option {
	return func(e *Engine) { e.excepts = excepts }
}

// WithEvidenceRegistry installs a preloaded evidence registry, so piece
// numbers assigned on earlier runs stay stable.
func WithEvidenceRegistry(registry *EvidenceRegistry) Option {
	return func(e *Engine) { e.evidence = registry }
}

// WithEvidenceSources overrides the evidence source names recorded for
// bank/invoice attachments and manual entry pieces.
func WithEvidenceSources(invoice, manual string) Option {
	return func(e *Engine) {
		e.invoiceSource = invoice
		e.manualSource = manual
	}
}

// NewEngine creates a posting engine over a chart of accounts, a journal
// registry and an ordered rule table, for the given fiscal period.
func NewEngine(chart *Chart, journals Journals, rules []Rule, period Period, opts ...Option) *Engine {
	e := &Engine{
		chart:         chart,
		journals:      journals,
		evidence:      NewEvidenceRegistry(),
		lettrage:      NewSequencer(DefaultLettrageWidth),
		rules:         rules,
		dispatch:      DispatchFirst,
		codes:         DefaultCodes(),
		roles:         DefaultJournalRoles(),
		period:        period,
		invoiceSource: "Qonto",
		manualSource:  "GoogleDrive",
	}
	for _, opt := range opts {
		opt(e)
	}
	e.factory = &Factory{SalesJournal: e.roles.Sales}
	return e
}

// Lines returns the ledger in posting order.
func (e *Engine) Lines() []*Line { return e.lines }

// Records projects the whole ledger to its FEC export form.
func (e *Engine) Records() []*fec.Record {
	records := make([]*fec.Record, len(e.lines))
	for i, l := range e.lines {
		records[i] = l.Record()
	}
	return records
}

// Evidence exposes the evidence registry for persistence.
func (e *Engine) Evidence() *EvidenceRegistry { return e.evidence }

// Chart exposes the chart of accounts for persistence.
func (e *Engine) Chart() *Chart { return e.chart }

// Journals exposes the journal registry.
func (e *Engine) Journals() Journals { return e.journals }

// AddInvoices registers invoices for deferred posting.
func (e *Engine) AddInvoices(invoices []*Invoice) {
	e.invoices = append(e.invoices, invoices...)
	sort.SliceStable(e.invoices, func(i, j int) bool {
		return e.invoices[i].When.Before(e.invoices[j].When)
	})
}

// SetManualEntries registers manual entries for deferred posting.
func (e *Engine) SetManualEntries(entries []*ManualEntry) {
	e.manual = entries
	sort.SliceStable(e.manual, func(i, j int) bool {
		return e.manual[i].Date.Before(e.manual[j].Date)
	})
	e.manualNext = 0
}

// PostTransaction classifies one bank transaction against the rule table
// and emits its balanced operations. An event that produces no posting
// at all is a fatal error.
func (e *Engine) PostTransaction(tx *BankTransaction) error {
	matched := false
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Match.Matches(tx, e.chart) {
			continue
		}
		slog.Debug("rule matched", "rule", rule.Name, "action", rule.Action, "counterparty", tx.Counterparty)
		if err := e.runAction(rule.Action, tx); err != nil {
			return err
		}
		matched = true
		if e.dispatch == DispatchFirst {
			break
		}
	}

	if !matched || len(tx.Lines()) == 0 {
		return NewUnsupportedEventError(tx.Counterparty, tx.Category, tx.When.Format("2006-01-02"))
	}
	return nil
}

// nextOperation flushes deferred entries that must precede when, then
// allocates the next operation number. A nil when skips the flush (used
// by the flushes themselves and by closing entries).
func (e *Engine) nextOperation(when *time.Time) (int, error) {
	if when != nil {
		if err := e.flushManualBefore(when); err != nil {
			return 0, err
		}
		if err := e.flushInvoicesBefore(when); err != nil {
			return 0, err
		}
	}
	e.opCounter++
	return e.opCounter, nil
}

// FlushDeferred posts every remaining invoice and manual entry. Called
// at closing, before the period-end computations.
func (e *Engine) FlushDeferred() error {
	if err := e.flushManualBefore(nil); err != nil {
		return err
	}
	return e.flushInvoicesBefore(nil)
}

func (e *Engine) flushManualBefore(when *time.Time) error {
	for e.manualNext < len(e.manual) {
		entry := e.manual[e.manualNext]
		if when != nil && entry.Date.After(*when) {
			return nil
		}
		e.manualNext++

		num, err := e.nextOperation(nil)
		if err != nil {
			return err
		}
		evidence, err := e.evidence.GetOrAdd(e.manualSource, entry.PieceRef, entry.PieceDate)
		if err != nil {
			return err
		}
		for _, p := range entry.Postings {
			_, err := e.post(nil, Posting{
				Journal:     p.Journal,
				Account:     p.Account,
				Date:        entry.Date,
				Operation:   num,
				Label:       entry.Label,
				DebitCents:  p.DebitCents,
				CreditCents: p.CreditCents,
				Evidence:    evidence,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) flushInvoicesBefore(when *time.Time) error {
	for _, invoice := range e.invoices {
		if invoice.Posted() || (when != nil && invoice.When.After(*when)) {
			continue
		}
		if err := e.postInvoice(invoice); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) postInvoice(invoice *Invoice) error {
	num, err := e.nextOperation(nil)
	if err != nil {
		return err
	}
	evidence, err := e.evidence.GetOrAdd(e.invoiceSource, invoice.AttachmentID, invoice.When)
	if err != nil {
		return err
	}

	switch invoice.Kind {
	case ClientInvoice, ClientCredit:
		return e.postClientInvoice(invoice, num, evidence)
	case SupplierInvoice:
		return e.postSupplierInvoice(invoice, num, evidence)
	}
	return NewUnsupportedEventError(invoice.Number, invoice.Kind.String(), invoice.When.Format("2006-01-02"))
}

// postClientInvoice posts receivable / revenue / pending-VAT on the
// sales journal. Credit notes mirror the sides.
func (e *Engine) postClientInvoice(invoice *Invoice, num int, evidence *Evidence) error {
	sales, err := e.journals.ByCode(e.roles.Sales)
	if err != nil {
		return err
	}
	receivable, err := e.chart.GetOrCreate(e.codes.Customers, invoice.ThirdParty)
	if err != nil {
		return err
	}
	revenue, err := e.chart.ByCode(e.codes.Revenue)
	if err != nil {
		return err
	}
	pendingVAT, err := e.chart.ByCode(e.codes.VatPending)
	if err != nil {
		return err
	}

	debit, credit := invoice.TotalCents, int64(0)
	if invoice.Kind == ClientCredit {
		debit, credit = 0, invoice.TotalCents
	}
	line, err := e.post(nil, Posting{
		Journal: sales, Account: receivable, Date: invoice.When, Operation: num,
		Label: invoice.Number, DebitCents: debit, CreditCents: credit, Evidence: evidence,
	})
	if err != nil {
		return err
	}
	invoice.line = line

	debit, credit = 0, invoice.ExclVATCents()
	if invoice.Kind == ClientCredit {
		debit, credit = invoice.ExclVATCents(), 0
	}
	if _, err := e.post(nil, Posting{
		Journal: sales, Account: revenue, Date: invoice.When, Operation: num,
		Label: invoice.Number, DebitCents: debit, CreditCents: credit, Evidence: evidence,
	}); err != nil {
		return err
	}

	if invoice.VATCents != 0 {
		debit, credit = 0, invoice.VATCents
		if invoice.Kind == ClientCredit {
			debit, credit = invoice.VATCents, 0
		}
		if _, err := e.post(nil, Posting{
			Journal: sales, Account: pendingVAT, Date: invoice.When, Operation: num,
			Label: invoice.Number, DebitCents: debit, CreditCents: credit, Evidence: evidence,
		}); err != nil {
			return err
		}
	}
	return nil
}

// postSupplierInvoice posts payable / expense on the purchases journal.
// The expense account is resolved through the chart routing keys, so a
// supplier must be routed in configuration before invoices are accepted.
func (e *Engine) postSupplierInvoice(invoice *Invoice, num int, evidence *Evidence) error {
	purchases, err := e.journals.ByCode(e.roles.Purchases)
	if err != nil {
		return err
	}
	expense := e.chart.ByRoutingKey(invoice.ThirdParty)
	if expense == nil || expense.Class() != "6" {
		return NewUnsupportedEventError(invoice.ThirdParty, invoice.Kind.String(), invoice.When.Format("2006-01-02"))
	}
	payable, err := e.chart.GetOrCreate(e.codes.Suppliers, invoice.ThirdParty)
	if err != nil {
		return err
	}

	line, err := e.post(nil, Posting{
		Journal: purchases, Account: payable, Date: invoice.When, Operation: num,
		Label: invoice.Number, CreditCents: invoice.TotalCents, Evidence: evidence,
	})
	if err != nil {
		return err
	}
	invoice.line = line

	if _, err := e.post(nil, Posting{
		Journal: purchases, Account: expense, Date: invoice.When, Operation: num,
		Label: invoice.Number, DebitCents: invoice.ExclVATCents(), Evidence: evidence,
	}); err != nil {
		return err
	}
	if invoice.VATCents != 0 {
		deductible, err := e.chart.ByCode(e.codes.VatDeductible)
		if err != nil {
			return err
		}
		if _, err := e.post(nil, Posting{
			Journal: purchases, Account: deductible, Date: invoice.When, Operation: num,
			Label: invoice.Number, DebitCents: invoice.VATCents, Evidence: evidence,
		}); err != nil {
			return err
		}
	}
	return nil
}

// post builds a line, appends it to the ledger and attaches it to its
// source transaction when there is one.
func (e *Engine) post(tx *BankTransaction, p Posting) (*Line, error) {
	line, err := e.factory.Build(p)
	if err != nil {
		return nil, err
	}
	e.lines = append(e.lines, line)
	if tx != nil {
		tx.attach(line)
	}
	return line, nil
}

// resolveAccount resolves a posting target: third-party roots go through
// lazy sub-account creation, structural accounts must pre-exist.
func (e *Engine) resolveAccount(code, thirdParty string) (*Account, error) {
	if isThirdPartyCode(code) {
		return e.chart.GetOrCreate(code, thirdParty)
	}
	return e.chart.ByCode(code)
}

// postTx is the shorthand used by the posting actions: resolve journal
// and account, compose the label from the transaction, post.
func (e *Engine) postTx(tx *BankTransaction, journalCode, accountCode string, debit, credit int64, num int, lettrage string) (*Line, error) {
	journal, err := e.journals.ByCode(journalCode)
	if err != nil {
		return nil, err
	}
	account, err := e.resolveAccount(accountCode, tx.Counterparty)
	if err != nil {
		return nil, err
	}

	var evidence *Evidence
	if len(tx.Attachments) > 0 {
		evidence, err = e.evidence.GetOrAdd(e.invoiceSource, tx.Attachments[0], tx.When)
		if err != nil {
			return nil, err
		}
	}

	return e.post(tx, Posting{
		Journal:     journal,
		Account:     account,
		Date:        tx.When,
		Operation:   num,
		Reference:   tx.Reference,
		Note:        tx.Note,
		DebitCents:  debit,
		CreditCents: credit,
		Lettrage:    lettrage,
		Evidence:    evidence,
	})
}
