// Package config loads the runtime configuration: API credentials from
// the environment (with .env support), the accounting plan from YAML,
// and the file-backed tables (chart of accounts, evidence registry,
// exported ledger) kept under the data directory.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fecgen/fecgen/ledger"
)

// Env holds configuration read from environment variables.
type Env struct {
	QontoSlug    string `envconfig:"QONTO_API_SLUG"`
	QontoKey     string `envconfig:"QONTO_API_KEY"`
	QontoIBAN    string `envconfig:"QONTO_API_IBAN"`
	QontoBaseURL string `envconfig:"QONTO_API_URL"`

	SIREN       string `envconfig:"FECGEN_SIREN"`
	PeriodStart string `envconfig:"FECGEN_PERIOD_START"`
	PeriodEnd   string `envconfig:"FECGEN_PERIOD_END"`

	DataDir   string `envconfig:"FECGEN_DATA_DIR" default:"export"`
	PlanPath  string `envconfig:"FECGEN_PLAN" default:""`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
}

// LoadEnv reads the environment, after loading a .env file when one is
// present. A non-empty path selects a specific .env file and must
// exist.
func LoadEnv(path string) (*Env, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, err
		}
	} else {
		_ = godotenv.Load()
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// periodLayout is the date format of FECGEN_PERIOD_START and
// FECGEN_PERIOD_END.
const periodLayout = "2006-01-02"

// Period parses the fiscal period bounds. Both must be set.
func (e *Env) Period() (ledger.Period, error) {
	if e.PeriodStart == "" || e.PeriodEnd == "" {
		return ledger.Period{}, errors.New("FECGEN_PERIOD_START and FECGEN_PERIOD_END must both be set")
	}
	start, err := time.Parse(periodLayout, e.PeriodStart)
	if err != nil {
		return ledger.Period{}, fmt.Errorf("FECGEN_PERIOD_START: %w", err)
	}
	end, err := time.Parse(periodLayout, e.PeriodEnd)
	if err != nil {
		return ledger.Period{}, fmt.Errorf("FECGEN_PERIOD_END: %w", err)
	}
	if end.Before(start) {
		return ledger.Period{}, errors.New("fiscal period ends before it starts")
	}
	return ledger.Period{Start: start, End: end}, nil
}

// RequireQonto validates that the Qonto credentials are all present.
// Commands that work offline skip this check.
func (e *Env) RequireQonto() error {
	if e.QontoSlug == "" || e.QontoKey == "" || e.QontoIBAN == "" {
		return errors.New("QONTO_API_SLUG, QONTO_API_KEY and QONTO_API_IBAN must all be set")
	}
	return nil
}
