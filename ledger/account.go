package ledger

import (
	"strings"
)

// Root prefixes under which third-party sub-accounts are allocated on
// demand. The leading digit of every other code denotes its statutory
// class (1 capital, 4 third parties, 5 treasury, 6 expenses, 7 revenue).
const (
	SupplierRoot = "401"
	CustomerRoot = "411"

	// minCodeLen is the shortest valid account code (a bare root).
	minCodeLen = 3
	// subAccountCodeLen is the length of a fully qualified third-party
	// sub-account code (root prefix plus a three-digit suffix).
	subAccountCodeLen = 6
)

// Account is a bucket in the chart of accounts. RoutingKeys hold, for a
// third-party sub-account, the customer or supplier name; for any other
// account, the event categories or labels that route to it.
type Account struct {
	Code        string
	Label       string
	RoutingKeys []string
}

// NewAccount creates an account with pipe-delimited routing keys, the
// form used by the persisted chart table.
func NewAccount(code, label, routingKeys string) *Account {
	a := &Account{Code: strings.TrimSpace(code), Label: strings.TrimSpace(label)}
	if keys := strings.TrimSpace(routingKeys); keys != "" {
		a.RoutingKeys = strings.Split(keys, "|")
	}
	return a
}

// IsThirdParty reports whether the account lives under a customer or
// supplier root.
func (a *Account) IsThirdParty() bool {
	return isThirdPartyCode(a.Code)
}

// Class returns the statutory class digit of the account code.
func (a *Account) Class() string {
	if a.Code == "" {
		return ""
	}
	return a.Code[:1]
}

// RoutesTo reports whether key is one of the account's routing keys.
func (a *Account) RoutesTo(key string) bool {
	for _, k := range a.RoutingKeys {
		if k == key {
			return true
		}
	}
	return false
}

// CompteNum returns the FEC general account column: third-party
// sub-accounts collapse to their root, the auxiliary columns carry the
// sub-account identity.
func (a *Account) CompteNum() string {
	if a.IsThirdParty() {
		return a.Code[:minCodeLen]
	}
	return a.Code
}

// CompAuxNum returns the FEC auxiliary account number, empty for
// non-third-party accounts.
func (a *Account) CompAuxNum() string {
	if a.IsThirdParty() && len(a.Code) > minCodeLen {
		return a.Code
	}
	return ""
}

// CompAuxLib returns the FEC auxiliary account label: the third-party
// name, carried as the sub-account's routing key.
func (a *Account) CompAuxLib() string {
	if a.IsThirdParty() && len(a.RoutingKeys) > 0 {
		return a.RoutingKeys[0]
	}
	return ""
}

// RoutingKeyList renders the routing keys back to their pipe-delimited
// persisted form.
func (a *Account) RoutingKeyList() string {
	return strings.Join(a.RoutingKeys, "|")
}

func isThirdPartyCode(code string) bool {
	if len(code) < minCodeLen {
		return false
	}
	root := code[:minCodeLen]
	return root == SupplierRoot || root == CustomerRoot
}
