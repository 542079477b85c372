package ledger

import (
	"sort"

	"github.com/fecgen/fecgen/fec"
)

// Journals is the static code -> journal lookup, loaded once from the
// accounting plan.
type Journals map[string]fec.Journal

// NewJournals builds the registry from code -> label pairs.
func NewJournals(labels map[string]string) Journals {
	j := make(Journals, len(labels))
	for code, label := range labels {
		j[code] = fec.Journal{Code: code, Label: label}
	}
	return j
}

// ByCode resolves a journal or returns a JournalNotFoundError.
func (j Journals) ByCode(code string) (fec.Journal, error) {
	journal, ok := j[code]
	if !ok {
		return fec.Journal{}, NewJournalNotFoundError(code)
	}
	return journal, nil
}

// Codes returns the journal codes in sorted order.
func (j Journals) Codes() []string {
	codes := make([]string, 0, len(j))
	for code := range j {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
