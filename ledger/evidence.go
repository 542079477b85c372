package ledger

import (
	"fmt"
	"time"
)

// Evidence identifies a supporting document (invoice, receipt) by a
// stable sequential number, so the export can reference pieces without
// leaking source-system identifiers.
type Evidence struct {
	Number    int
	Source    string
	SourceRef string
	When      time.Time
}

// Ref returns the zero-padded piece reference used in the export.
func (e *Evidence) Ref() string {
	return fmt.Sprintf("%05d", e.Number)
}

// EvidenceRegistry assigns sequential numbers to distinct supporting
// documents, memoized on (source, reference).
type EvidenceRegistry struct {
	evidences []*Evidence
	index     map[string]*Evidence
}

// NewEvidenceRegistry creates an empty registry.
func NewEvidenceRegistry() *EvidenceRegistry {
	return &EvidenceRegistry{index: make(map[string]*Evidence)}
}

// GetOrAdd returns the evidence for (source, reference), creating it
// with the next sequential number on first sight. Evidence is never
// mutated once created.
func (r *EvidenceRegistry) GetOrAdd(source, reference string, when time.Time) (*Evidence, error) {
	if source == "" || reference == "" {
		return nil, NewConfigurationError(reference, fmt.Sprintf("invalid evidence from source %q", source))
	}

	key := source + "\x00" + reference
	if e, ok := r.index[key]; ok {
		return e, nil
	}

	e := &Evidence{
		Number:    len(r.evidences) + 1,
		Source:    source,
		SourceRef: reference,
		When:      when,
	}
	r.evidences = append(r.evidences, e)
	r.index[key] = e
	return e, nil
}

// Evidences returns all registered evidences in creation order.
func (r *EvidenceRegistry) Evidences() []*Evidence {
	return r.evidences
}
