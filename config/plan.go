package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fecgen/fecgen/ledger"
)

//go:embed plan.yaml
var defaultPlan []byte

// Plan is the accounting plan: journals, seed accounts, structural
// account codes and the ordered posting rules. It is data, not code, so
// an accounting change is a configuration change.
type Plan struct {
	Journals     map[string]string         `yaml:"journals"`
	JournalRoles ledger.JournalRoles       `yaml:"journal_roles"`
	Codes        ledger.Codes              `yaml:"codes"`
	Dispatch     string                    `yaml:"dispatch"`
	Accounts     []PlanAccount             `yaml:"accounts"`
	Rules        []ledger.Rule             `yaml:"rules"`
	Exceptions   []ledger.AccountException `yaml:"exceptions"`
	Lettrage     struct {
		Width int `yaml:"width"`
	} `yaml:"lettrage"`
}

// PlanAccount is one seeded chart account. Routing carries the
// pipe-delimited event categories or third-party names that resolve to
// the account.
type PlanAccount struct {
	Code    string `yaml:"code"`
	Label   string `yaml:"label"`
	Routing string `yaml:"routing"`
}

// LoadPlan reads an accounting plan. An empty path loads the embedded
// default plan.
func LoadPlan(path string) (*Plan, error) {
	raw := defaultPlan
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var plan Plan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("invalid accounting plan: %w", err)
	}
	if plan.Codes == (ledger.Codes{}) {
		plan.Codes = ledger.DefaultCodes()
	}
	if plan.JournalRoles == (ledger.JournalRoles{}) {
		plan.JournalRoles = ledger.DefaultJournalRoles()
	}
	if err := plan.validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *Plan) validate() error {
	if len(p.Journals) == 0 {
		return fmt.Errorf("accounting plan declares no journals")
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("accounting plan declares no posting rules")
	}
	if _, err := ledger.ParseDispatchMode(p.Dispatch); err != nil {
		return err
	}
	for _, role := range []string{
		p.JournalRoles.Bank, p.JournalRoles.Sales, p.JournalRoles.Purchases, p.JournalRoles.Misc,
	} {
		if _, ok := p.Journals[role]; !ok {
			return fmt.Errorf("journal role %q is not a declared journal", role)
		}
	}
	return nil
}

// BuildJournals creates the journal registry from the plan.
func (p *Plan) BuildJournals() ledger.Journals {
	return ledger.NewJournals(p.Journals)
}

// BuildChart creates the chart of accounts seeded with the plan
// accounts, extended by any persisted extra accounts (third-party
// sub-accounts created on earlier runs).
func (p *Plan) BuildChart(extra []*ledger.Account) *ledger.Chart {
	accounts := make([]*ledger.Account, 0, len(p.Accounts)+len(extra))
	seen := map[string]bool{}
	for _, a := range p.Accounts {
		accounts = append(accounts, ledger.NewAccount(a.Code, a.Label, a.Routing))
		seen[a.Code] = true
	}
	for _, a := range extra {
		if !seen[a.Code] {
			accounts = append(accounts, a)
		}
	}
	return ledger.NewChart(accounts)
}

// EngineOptions derives the engine options the plan configures.
func (p *Plan) EngineOptions() []ledger.Option {
	mode, _ := ledger.ParseDispatchMode(p.Dispatch)
	opts := []ledger.Option{
		ledger.WithDispatchMode(mode),
		ledger.WithCodes(p.Codes),
		ledger.WithJournalRoles(p.JournalRoles),
		ledger.WithAccountExceptions(p.Exceptions),
	}
	if p.Lettrage.Width > 0 {
		opts = append(opts, ledger.WithLettrageWidth(p.Lettrage.Width))
	}
	return opts
}
