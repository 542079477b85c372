package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fecgen/fecgen/fec"
	"github.com/fecgen/fecgen/ledger"
)

// Store is the file-backed persistence layer under the data directory:
// the FEC export itself plus the two tables that must survive between
// runs, the chart of accounts (third-party sub-accounts keep their
// numbers) and the evidence registry (piece numbers stay stable).
// Tables are tab-separated text with a header row, like the export.
type Store struct {
	dir   string
	siren string
	end   time.Time
}

// NewStore creates a store for one company and fiscal period end.
func NewStore(dir, siren string, periodEnd time.Time) *Store {
	return &Store{dir: dir, siren: siren, end: periodEnd}
}

// FECPath returns the export file path, named after the company SIREN
// and the period end as the French filing convention requires.
func (s *Store) FECPath() string {
	return s.path(fmt.Sprintf("%sFEC%s", s.siren, s.end.Format("20060102")))
}

func (s *Store) accountsPath() string {
	return s.path(s.siren + "ACCOUNTS")
}

func (s *Store) evidencesPath() string {
	return s.path(fmt.Sprintf("%sEVIDENCES%s", s.siren, s.end.Format("20060102")))
}

func (s *Store) path(name string) string {
	name = strings.NewReplacer("/", "", "-", "").Replace(name)
	return filepath.Join(s.dir, name+".txt")
}

// FECExists reports whether an export for the period is already on
// disk.
func (s *Store) FECExists() bool {
	_, err := os.Stat(s.FECPath())
	return err == nil
}

// SaveRecords writes the FEC export.
func (s *Store) SaveRecords(records []*fec.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("refusing to save an empty ledger to %s", s.FECPath())
	}
	f, err := s.create(s.FECPath())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fec.Write(f, records); err != nil {
		return err
	}
	slog.Info("ledger saved", "path", s.FECPath(), "records", len(records))
	return f.Close()
}

// LoadRecords reads a previously exported ledger.
func (s *Store) LoadRecords() ([]*fec.Record, error) {
	f, err := os.Open(s.FECPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fec.Read(f)
}

// SaveAccounts persists the chart of accounts, including the
// sub-accounts created during the run.
func (s *Store) SaveAccounts(chart *ledger.Chart) error {
	f, err := s.create(s.accountsPath())
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Code\tLabel\tRouting")
	for _, a := range chart.Accounts() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Code, a.Label, a.RoutingKeyList())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	slog.Info("accounts saved", "path", s.accountsPath(), "accounts", len(chart.Accounts()))
	return f.Close()
}

// LoadAccounts reads the persisted chart, returning nil when no table
// exists yet.
func (s *Store) LoadAccounts() ([]*ledger.Account, error) {
	f, err := os.Open(s.accountsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var accounts []*ledger.Account
	scanner := bufio.NewScanner(f)
	for line := 0; scanner.Scan(); line++ {
		if line == 0 { // header
			continue
		}
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%s:%d: want at least code and label", s.accountsPath(), line+1)
		}
		routing := ""
		if len(parts) > 2 {
			routing = parts[2]
		}
		accounts = append(accounts, ledger.NewAccount(parts[0], parts[1], routing))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveEvidences persists the evidence registry so piece numbers stay
// stable across runs.
func (s *Store) SaveEvidences(registry *ledger.EvidenceRegistry) error {
	f, err := s.create(s.evidencesPath())
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Number\tSource\tReference\tWhen")
	for _, e := range registry.Evidences() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Number, e.Source, e.SourceRef, e.When.Format(fec.DateFormat))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// LoadEvidences replays the persisted registry, returning an empty one
// when no table exists yet.
func (s *Store) LoadEvidences() (*ledger.EvidenceRegistry, error) {
	registry := ledger.NewEvidenceRegistry()

	f, err := os.Open(s.evidencesPath())
	if os.IsNotExist(err) {
		return registry, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for line := 0; scanner.Scan(); line++ {
		if line == 0 {
			continue
		}
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%s:%d: want number, source, reference, date", s.evidencesPath(), line+1)
		}
		when, err := time.Parse(fec.DateFormat, parts[3])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.evidencesPath(), line+1, err)
		}
		if _, err := registry.GetOrAdd(parts[1], parts[2], when); err != nil {
			return nil, err
		}
		if n, err := strconv.Atoi(parts[0]); err != nil || n != len(registry.Evidences()) {
			return nil, fmt.Errorf("%s:%d: evidence numbers must be sequential", s.evidencesPath(), line+1)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return registry, nil
}

func (s *Store) create(path string) (*os.File, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
