package ledger

import (
	"fmt"
)

// Fatal error types. Any of these aborts the run: the export would be
// silently wrong if processing continued past them. Each carries enough
// identification (account, operation number, event label) for audit
// traceability.

// ConfigurationError is returned for malformed account codes or account
// creations missing a required name.
type ConfigurationError struct {
	Code   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid ledger account %q: %s", e.Code, e.Reason)
}

// NewConfigurationError creates an error for an invalid account request.
func NewConfigurationError(code, reason string) *ConfigurationError {
	return &ConfigurationError{Code: code, Reason: reason}
}

// AccountNotFoundError is returned when a fixed structural account (tax,
// VAT, bank) is missing from the chart of accounts.
type AccountNotFoundError struct {
	Code string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %s not found in chart of accounts", e.Code)
}

// NewAccountNotFoundError creates an error for a missing structural account.
func NewAccountNotFoundError(code string) *AccountNotFoundError {
	return &AccountNotFoundError{Code: code}
}

// JournalNotFoundError is returned for an unknown journal code.
type JournalNotFoundError struct {
	Code string
}

func (e *JournalNotFoundError) Error() string {
	return fmt.Sprintf("no journal with code %s", e.Code)
}

// NewJournalNotFoundError creates an error for an unknown journal code.
func NewJournalNotFoundError(code string) *JournalNotFoundError {
	return &JournalNotFoundError{Code: code}
}

// EmptyLabelError is returned when a posting ends up with neither a
// reference nor a note to compose its label from.
type EmptyLabelError struct {
	Operation int
	Account   string
}

func (e *EmptyLabelError) Error() string {
	return fmt.Sprintf("operation %d: empty label for posting to account %s", e.Operation, e.Account)
}

// NewEmptyLabelError creates an error for a posting with no label source.
func NewEmptyLabelError(operation int, account string) *EmptyLabelError {
	return &EmptyLabelError{Operation: operation, Account: account}
}

// LettrageExhaustedError is returned once the reconciliation code space
// is used up. The ceiling is deliberately small: one fiscal period only
// ever carries a bounded number of open reconciliations.
type LettrageExhaustedError struct {
	Width int
}

func (e *LettrageExhaustedError) Error() string {
	return fmt.Sprintf("reconciliation code space exhausted (%d-letter ceiling)", e.Width)
}

// NewLettrageExhaustedError creates an error for sequencer exhaustion.
func NewLettrageExhaustedError(width int) *LettrageExhaustedError {
	return &LettrageExhaustedError{Width: width}
}

// VatError is returned when the VAT sub-amounts declared in a remittance
// note do not reconcile with the payment amount.
type VatError struct {
	Label     string
	Collected int64
	Goods     int64
	Services  int64
	Expected  int64
}

func (e *VatError) Error() string {
	return fmt.Sprintf("invalid VAT note for %q: collected %d - goods %d - services %d does not match payment %d",
		e.Label, e.Collected, e.Goods, e.Services, e.Expected)
}

// NewVatError creates an error for a VAT note arithmetic mismatch.
func NewVatError(label string, collected, goods, services, expected int64) *VatError {
	return &VatError{Label: label, Collected: collected, Goods: goods, Services: services, Expected: expected}
}

// UnsupportedEventError is returned when an event matches no posting rule.
type UnsupportedEventError struct {
	Label    string
	Category string
	When     string
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("no posting rule matches event %q (category %q, %s): create a rule or update the configuration",
		e.Label, e.Category, e.When)
}

// NewUnsupportedEventError creates an error for an unclassifiable event.
func NewUnsupportedEventError(label, category, when string) *UnsupportedEventError {
	return &UnsupportedEventError{Label: label, Category: category, When: when}
}

// SettlementNotMatchedError is returned when a sale settlement finds no
// posted receivable line to reconcile against.
type SettlementNotMatchedError struct {
	Operation int
	Label     string
	Amount    int64
}

func (e *SettlementNotMatchedError) Error() string {
	return fmt.Sprintf("operation %d: no posted invoice matches settlement %q for %d cents", e.Operation, e.Label, e.Amount)
}

// NewSettlementNotMatchedError creates an error for an unmatched settlement.
func NewSettlementNotMatchedError(operation int, label string, amount int64) *SettlementNotMatchedError {
	return &SettlementNotMatchedError{Operation: operation, Label: label, Amount: amount}
}
