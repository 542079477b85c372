package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period-end closing: the payroll-tax provision and the corporate
// income tax, both posted on the miscellaneous journal at the period
// end date.

// acreCutoff is the last day of the reduced social-contribution rate
// granted to new businesses (ACRE).
var acreCutoff = time.Date(2024, time.July, 31, 0, 0, 0, 0, time.UTC)

var (
	socialRateFull    = decimal.NewFromFloat(0.455)
	socialRateReduced = decimal.NewFromFloat(0.167)

	corporateRateReduced = decimal.NewFromFloat(0.15)
	corporateRateFull    = decimal.NewFromFloat(0.25)
)

// madelinDeductionCapCents caps the deductible optional (Madelin)
// contribution provision; the excess is provisioned as mandatory.
const madelinDeductionCapCents = 167400

// corporateReducedThresholdCents is the annual profit ceiling taxed at
// the reduced corporate rate; it is prorated on short fiscal periods.
const corporateReducedThresholdCents = 4250000

// Close flushes every deferred entry, then appends the period-end tax
// operations.
func (e *Engine) Close() error {
	if err := e.FlushDeferred(); err != nil {
		return err
	}
	if err := e.addSocialTaxProvision(); err != nil {
		return err
	}
	return e.addCorporateTax()
}

// addSocialTaxProvision provisions the social contributions due on the
// owner's pay. Contributions already paid through the social-paid
// account reduce the provision; the optional (Madelin) part is
// provisioned separately under its deductibility cap.
func (e *Engine) addSocialTaxProvision() error {
	payrollRoot := e.codes.MadelinAccrual[:minCodeLen]

	var mandatory, madelin int64
	for _, line := range e.lines {
		net := line.DebitCents - line.CreditCents
		code := line.Account.CompteNum()

		if code == e.codes.SocialPaid {
			mandatory -= net
			continue
		}
		if len(code) < len(payrollRoot) || code[:len(payrollRoot)] != payrollRoot {
			continue
		}

		rate := socialRateFull
		if line.Date.Before(acreCutoff) {
			rate = socialRateReduced
		}
		due := decimal.NewFromInt(net).Mul(rate).Round(0).IntPart()
		if code == e.codes.MadelinAccrual {
			madelin += due
		} else {
			mandatory += due
		}
	}

	if madelin > madelinDeductionCapCents {
		mandatory += madelin - madelinDeductionCapCents
		madelin = madelinDeductionCapCents
	}
	if mandatory == 0 && madelin == 0 {
		return nil
	}

	num, err := e.nextOperation(nil)
	if err != nil {
		return err
	}
	const label = "Provision URSSAF TNS"
	legs := []struct {
		code          string
		debit, credit int64
	}{
		{e.codes.SocialPayable, 0, mandatory + madelin},
		{e.codes.SocialPaid, mandatory, 0},
		{e.codes.SocialOptional, madelin, 0},
	}
	for _, leg := range legs {
		if leg.debit == 0 && leg.credit == 0 {
			continue
		}
		if _, err := e.postClosing(leg.code, label, leg.debit, leg.credit, num); err != nil {
			return err
		}
	}
	return nil
}

// addCorporateTax computes the corporate income tax on the period
// result and posts it as expense against the tax-due account. A loss
// posts nothing.
func (e *Engine) addCorporateTax() error {
	result := ComputeBalances(e.lines).Result()
	if result <= 0 {
		return nil
	}

	threshold := decimal.NewFromInt(corporateReducedThresholdCents).
		Mul(decimal.NewFromInt(int64(e.period.Months()))).
		Div(decimal.NewFromInt(12)).
		Round(0).IntPart()

	reduced := result
	if reduced > threshold {
		reduced = threshold
	}
	excess := result - threshold
	if excess < 0 {
		excess = 0
	}
	due := decimal.NewFromInt(reduced).Mul(corporateRateReduced).
		Add(decimal.NewFromInt(excess).Mul(corporateRateFull)).
		IntPart()

	num, err := e.nextOperation(nil)
	if err != nil {
		return err
	}
	const label = "Impôts sur les sociétés"
	if _, err := e.postClosing(e.codes.CorporateTax, label, due, 0, num); err != nil {
		return err
	}
	if _, err := e.postClosing(e.codes.CorporateTaxDue, label, 0, due, num); err != nil {
		return err
	}
	return nil
}

func (e *Engine) postClosing(accountCode, label string, debit, credit int64, num int) (*Line, error) {
	journal, err := e.journals.ByCode(e.roles.Misc)
	if err != nil {
		return nil, err
	}
	account, err := e.chart.ByCode(accountCode)
	if err != nil {
		return nil, err
	}
	return e.post(nil, Posting{
		Journal:     journal,
		Account:     account,
		Date:        e.period.End,
		Operation:   num,
		Label:       label,
		DebitCents:  debit,
		CreditCents: credit,
	})
}
