package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Posting actions. Each action emits one or more balanced operations for
// a matched bank transaction. Action names are what the rule table and
// the account-exception table bind to.

const (
	ActionSaleSettlement   = "sale_settlement"
	ActionTreasuryTransfer = "treasury_transfer"
	ActionVatRemittance    = "vat_remittance"
	ActionRouted           = "routed"
	ActionFinancialRevenue = "financial_revenue"
	ActionOwnerDraw        = "owner_draw"
	ActionCetTax           = "cet_tax"
	ActionExpense          = "expense"
)

func (e *Engine) runAction(action string, tx *BankTransaction) error {
	switch action {
	case ActionSaleSettlement:
		return e.actSaleSettlement(tx)
	case ActionTreasuryTransfer:
		return e.actTreasuryTransfer(tx)
	case ActionVatRemittance:
		return e.actVatRemittance(tx)
	case ActionRouted:
		return e.actRouted(tx)
	default:
		return fmt.Errorf("unknown posting action %q", action)
	}
}

// actSaleSettlement posts the cash-in against the customer receivable,
// reconciles the matching posted invoice line with a shared lettrage
// code, and moves its VAT from pending to collected (VAT on collection
// regime: the tax becomes due when the money arrives).
func (e *Engine) actSaleSettlement(tx *BankTransaction) error {
	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	code, err := e.lettrage.Next()
	if err != nil {
		return err
	}

	total := tx.TotalCents()
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, total, 0, num, ""); err != nil {
		return err
	}
	settlement, err := e.postTx(tx, e.roles.Bank, e.codes.Customers, 0, total, num, code)
	if err != nil {
		return err
	}

	invoice := e.findReceivableMatch(settlement)
	if invoice == nil {
		return NewSettlementNotMatchedError(num, settlement.Label, total)
	}
	invoice.Lettrage = settlement.Lettrage
	invoice.LettrageDate = settlement.LettrageDate

	if tx.VATCents == 0 {
		return nil
	}

	sales, err := e.journals.ByCode(e.roles.Sales)
	if err != nil {
		return err
	}
	pending, err := e.chart.ByCode(e.codes.VatPending)
	if err != nil {
		return err
	}
	collected, err := e.chart.ByCode(e.codes.VatCollected)
	if err != nil {
		return err
	}

	label := settlement.Label + " encaissée"
	if _, err := e.post(tx, Posting{
		Journal: sales, Account: pending, Date: tx.When, Operation: num,
		Label: label, DebitCents: max64(tx.VATCents, 0), CreditCents: max64(-tx.VATCents, 0),
	}); err != nil {
		return err
	}
	if _, err := e.post(tx, Posting{
		Journal: sales, Account: collected, Date: tx.When, Operation: num,
		Label: label, DebitCents: max64(-tx.VATCents, 0), CreditCents: max64(tx.VATCents, 0),
	}); err != nil {
		return err
	}
	return nil
}

// findReceivableMatch scans already-posted lines for the receivable the
// settlement pays: mirrored amounts on another operation, and either the
// piece reference or the entry label of the candidate contained in the
// settlement's.
func (e *Engine) findReceivableMatch(settlement *Line) *Line {
	for _, candidate := range e.lines {
		if candidate.Operation == settlement.Operation {
			continue
		}
		if candidate.DebitCents != settlement.CreditCents || candidate.CreditCents != settlement.DebitCents {
			continue
		}
		if e.referenceMatch(candidate, settlement) {
			return candidate
		}
	}
	return nil
}

func (e *Engine) referenceMatch(candidate, settlement *Line) bool {
	if candidate.Evidence != nil && settlement.Evidence != nil &&
		strings.Contains(settlement.Evidence.Ref(), candidate.Evidence.Ref()) {
		return true
	}
	return strings.Contains(settlement.Label, candidate.Label)
}

// actTreasuryTransfer posts two mirrored operations through the internal
// transit account: main bank <-> transit on one journal, transit <->
// secondary bank on the other. Direction follows the amount sign.
func (e *Engine) actTreasuryTransfer(tx *BankTransaction) error {
	amount := tx.AmountExclVATCents

	if amount < 0 { // placing funds on the secondary account
		num, err := e.nextOperation(&tx.When)
		if err != nil {
			return err
		}
		if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, 0, -amount, num, ""); err != nil {
			return err
		}
		if _, err := e.postTx(tx, e.roles.Bank, e.codes.InternalTransit, -amount, 0, num, ""); err != nil {
			return err
		}
		num, err = e.nextOperation(&tx.When)
		if err != nil {
			return err
		}
		if _, err := e.postTx(tx, e.roles.SecondaryBank, e.codes.InternalTransit, 0, -amount, num, ""); err != nil {
			return err
		}
		if _, err := e.postTx(tx, e.roles.SecondaryBank, e.codes.SecondaryBank, -amount, 0, num, ""); err != nil {
			return err
		}
		return nil
	}

	// funds coming back to the main account
	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.SecondaryBank, e.codes.SecondaryBank, 0, amount, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.SecondaryBank, e.codes.InternalTransit, amount, 0, num, ""); err != nil {
		return err
	}
	num, err = e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.InternalTransit, 0, amount, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, amount, 0, num, ""); err != nil {
		return err
	}
	return nil
}

// actVatRemittance books a VAT payment to the tax authority. The note
// carries three structured sub-amounts (in whole units): collected VAT
// (TVA08), deductible VAT on goods (TVA20) and on services (TVA22).
// Their difference must equal the payment.
func (e *Engine) actVatRemittance(tx *BankTransaction) error {
	var collected, goods, services int64
	for _, raw := range strings.Split(tx.Note, "\n") {
		line := strings.TrimSpace(raw)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(key, "TVA08"):
			collected = amount * 100
		case strings.Contains(key, "TVA20"):
			goods = amount * 100
		case strings.Contains(key, "TVA22"):
			services = amount * 100
		}
	}

	paid := -tx.AmountExclVATCents
	if collected-goods-services != paid {
		return NewVatError(tx.Counterparty, collected, goods, services, paid)
	}

	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	// The structured note has served its purpose; labels carry only the
	// transaction reference.
	if _, err := e.postRemittance(tx, e.codes.Bank, 0, paid, num); err != nil {
		return err
	}
	if _, err := e.postRemittance(tx, e.codes.VatCollected, collected, 0, num); err != nil {
		return err
	}
	if goods+services != 0 {
		if _, err := e.postRemittance(tx, e.codes.VatDeductible, 0, goods+services, num); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) postRemittance(tx *BankTransaction, accountCode string, debit, credit int64, num int) (*Line, error) {
	journal, err := e.journals.ByCode(e.roles.Bank)
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
		Journal: journal, Account: account, Date: tx.When, Operation: num,
		Reference: tx.Reference, DebitCents: debit, CreditCents: credit, Evidence: evidence,
	})
}

// actRouted resolves the account through the chart routing keys and
// applies the first matching entry of the account-exception table, or
// the generic expense action for class-6 accounts.
func (e *Engine) actRouted(tx *BankTransaction) error {
	account := e.chart.ByRoutingKey(tx.Category)
	if account == nil {
		return NewUnsupportedEventError(tx.Counterparty, tx.Category, tx.When.Format("2006-01-02"))
	}

	for i := range e.excepts {
		if e.excepts[i].matches(account, tx) {
			return e.runRoutedAction(e.excepts[i].Action, account, tx)
		}
	}
	if account.Class() == "6" && tx.AmountExclVATCents < 0 {
		return e.actExpense(account, tx)
	}
	return NewUnsupportedEventError(tx.Counterparty, tx.Category, tx.When.Format("2006-01-02"))
}

func (e *Engine) runRoutedAction(action string, account *Account, tx *BankTransaction) error {
	switch action {
	case ActionFinancialRevenue:
		return e.actFinancialRevenue(account, tx)
	case ActionOwnerDraw:
		return e.actOwnerDraw(account, tx)
	case ActionCetTax:
		return e.actCetTax(account, tx)
	case ActionExpense:
		return e.actExpense(account, tx)
	default:
		return fmt.Errorf("unknown exception action %q for account %s", action, account.Code)
	}
}

// actFinancialRevenue books money in against a revenue-like account
// (financial products, capital increase, owner current account).
func (e *Engine) actFinancialRevenue(account *Account, tx *BankTransaction) error {
	amount := tx.AmountExclVATCents
	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, amount, 0, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, account.Code, 0, amount, num, ""); err != nil {
		return err
	}
	return nil
}

// actOwnerDraw books money out to the owner (pay, current account,
// social contributions paid directly).
func (e *Engine) actOwnerDraw(account *Account, tx *BankTransaction) error {
	amount := -tx.AmountExclVATCents
	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, 0, amount, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, account.Code, amount, 0, num, ""); err != nil {
		return err
	}
	return nil
}

// actCetTax books a local business tax (CET) payment through the
// awaiting-assessment intermediate account, the two legs linked by a
// lettrage code.
func (e *Engine) actCetTax(account *Account, tx *BankTransaction) error {
	amount := -tx.AmountExclVATCents
	code, err := e.lettrage.Next()
	if err != nil {
		return err
	}

	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Misc, e.codes.TaxPayable, 0, amount, num, code); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Misc, account.Code, amount, 0, num, ""); err != nil {
		return err
	}

	num, err = e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, 0, amount, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.TaxPayable, amount, 0, num, code); err != nil {
		return err
	}
	return nil
}

// actExpense books a generic expense: supplier payable plus the expense
// (VAT split out to the deductible account), then the settlement, the
// two payable legs sharing a lettrage code.
func (e *Engine) actExpense(account *Account, tx *BankTransaction) error {
	total := -tx.AmountExclVATCents - tx.VATCents
	code, err := e.lettrage.Next()
	if err != nil {
		return err
	}

	num, err := e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Purchases, e.codes.Suppliers, 0, total, num, code); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Purchases, account.Code, -tx.AmountExclVATCents, 0, num, ""); err != nil {
		return err
	}
	if tx.VATCents != 0 {
		if _, err := e.postTx(tx, e.roles.Purchases, e.codes.VatDeductible, -tx.VATCents, 0, num, ""); err != nil {
			return err
		}
	}

	num, err = e.nextOperation(&tx.When)
	if err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Bank, 0, total, num, ""); err != nil {
		return err
	}
	if _, err := e.postTx(tx, e.roles.Bank, e.codes.Suppliers, total, 0, num, code); err != nil {
		return err
	}
	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
