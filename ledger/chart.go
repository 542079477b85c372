package ledger

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Chart holds the chart of accounts for one fiscal period. Accounts are
// kept in a slice to preserve load order; lookups scan linearly, which
// is fine at chart-of-accounts scale.
type Chart struct {
	accounts []*Account
}

// NewChart creates a chart seeded with the given accounts.
func NewChart(accounts []*Account) *Chart {
	return &Chart{accounts: accounts}
}

// Accounts returns all accounts in load-then-creation order.
func (c *Chart) Accounts() []*Account {
	return c.accounts
}

// ByCode returns the account with the exact code, or an
// AccountNotFoundError. Use it for fixed structural accounts (bank, VAT,
// tax) that must pre-exist in configuration.
func (c *Chart) ByCode(code string) (*Account, error) {
	if a := c.findByCode(code); a != nil {
		return a, nil
	}
	return nil, NewAccountNotFoundError(code)
}

// ByRoutingKey returns the first account whose routing keys contain key,
// or nil.
func (c *Chart) ByRoutingKey(key string) *Account {
	for _, a := range c.accounts {
		if a.RoutesTo(key) {
			return a
		}
	}
	return nil
}

// GetOrCreate resolves an account, creating it when absent.
//
// Under the customer and supplier roots a sub-account is resolved by
// exact code when fully qualified, then by third-party name, and finally
// allocated with the next sequential code under the root, the name
// becoming both label and routing key. Elsewhere resolution is by exact
// code then by label, and creation requires a non-empty name.
func (c *Chart) GetOrCreate(code, name string) (*Account, error) {
	if len(code) < minCodeLen {
		return nil, NewConfigurationError(code, fmt.Sprintf("code shorter than %d characters", minCodeLen))
	}
	name = strings.TrimSpace(name)

	if isThirdPartyCode(code) {
		root := code[:minCodeLen]

		if len(code) == subAccountCodeLen {
			if a := c.findByCode(code); a != nil {
				return a, nil
			}
		}
		if name != "" {
			for _, a := range c.accounts {
				if strings.HasPrefix(a.Code, root) && a.RoutesTo(name) {
					return a, nil
				}
			}
			return c.createSubAccount(root, name)
		}
		return nil, NewConfigurationError(code, "a third-party name is required to resolve or create a sub-account")
	}

	if a := c.findByCode(code); a != nil {
		return a, nil
	}
	if name != "" {
		for _, a := range c.accounts {
			if a.Label == name {
				return a, nil
			}
		}
		return c.add(&Account{Code: code, Label: name}), nil
	}
	return nil, NewConfigurationError(code, "a name is required to create a new account")
}

func (c *Chart) createSubAccount(root, name string) (*Account, error) {
	main := c.findByCode(root)
	if main == nil {
		return nil, NewAccountNotFoundError(root)
	}

	count := 0
	for _, a := range c.accounts {
		if strings.HasPrefix(a.Code, root) && len(a.Code) > minCodeLen {
			count++
		}
	}
	rootNum, err := strconv.Atoi(root)
	if err != nil {
		return nil, NewConfigurationError(root, "non-numeric third-party root")
	}
	code := strconv.Itoa(rootNum*1000 + count + 1)

	return c.add(&Account{Code: code, Label: main.Label, RoutingKeys: []string{name}}), nil
}

func (c *Chart) add(a *Account) *Account {
	slog.Info("ledger account created", "code", a.Code, "label", a.Label)
	c.accounts = append(c.accounts, a)
	return a
}

func (c *Chart) findByCode(code string) *Account {
	for _, a := range c.accounts {
		if a.Code == code {
			return a
		}
	}
	return nil
}
