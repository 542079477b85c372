// Package manual parses the miscellaneous-entries file: manually
// recorded operations (opening balances, provisions, corrections) kept
// as plain text next to the configuration.
//
// The format is line oriented. Blank lines and lines starting with **
// are ignored. An entry starts with a three-line header, each line
// prefixed by ==:
//
//	** Opening balances for the period
//	== Report à nouveau
//	== 02/01/2024
//	== RAN-2024	02/01/2024
//	OD	512	1000,00	0
//	OD	110	0	1000,00
//
// The first header line is the entry label, the second the entry date
// (DD/MM/YYYY), the third the supporting-piece reference and date
// separated by a tab. Every following line until the next header is one
// posting: journal code, account code, debit, credit, whitespace
// separated, amounts in euros with comma or dot decimals.
package manual

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fecgen/fecgen/ledger"
)

const dateLayout = "02/01/2006"

// ParseError reports a malformed line in the entries file.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// Parser resolves journal and account codes while reading, so a typo in
// the file fails at load time rather than at posting time.
type Parser struct {
	journals ledger.Journals
	chart    *ledger.Chart
}

// NewParser creates a parser bound to a journal registry and a chart of
// accounts.
func NewParser(journals ledger.Journals, chart *ledger.Chart) *Parser {
	return &Parser{journals: journals, chart: chart}
}

// Parse reads the whole entries file and returns the entries sorted by
// date. Headers without postings are dropped.
func (p *Parser) Parse(r io.Reader) ([]*ledger.ManualEntry, error) {
	var (
		entries []*ledger.ManualEntry
		current *ledger.ManualEntry
		label   string
		when    time.Time
	)

	flush := func() {
		if current != nil && len(current.Postings) > 0 {
			entries = append(entries, current)
		}
		current = nil
		label = ""
		when = time.Time{}
	}

	scanner := bufio.NewScanner(r)
	for linenum := 1; scanner.Scan(); linenum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "**") {
			continue
		}

		if strings.HasPrefix(line, "==") {
			if current != nil {
				flush()
			}
			header := strings.TrimSpace(strings.TrimPrefix(line, "=="))
			parts := splitTabs(header)

			switch {
			case len(parts) == 1 && label == "":
				label = parts[0]
			case len(parts) == 1 && when.IsZero():
				d, err := time.Parse(dateLayout, parts[0])
				if err != nil {
					return nil, parseErrorf(linenum, "unexpected date format %q", parts[0])
				}
				when = d
			case len(parts) == 2:
				if label == "" || when.IsZero() {
					return nil, parseErrorf(linenum, "piece line before label or date")
				}
				pieceDate, err := time.Parse(dateLayout, parts[1])
				if err != nil {
					return nil, parseErrorf(linenum, "unexpected piece date format %q", parts[1])
				}
				current = &ledger.ManualEntry{
					Date:      when,
					Label:     label,
					PieceRef:  parts[0],
					PieceDate: pieceDate,
				}
			default:
				return nil, parseErrorf(linenum, "unexpected header content %q", header)
			}
			continue
		}

		if current == nil {
			return nil, parseErrorf(linenum, "posting line outside an entry block")
		}
		posting, err := p.parsePosting(linenum, line)
		if err != nil {
			return nil, err
		}
		current.Postings = append(current.Postings, posting)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (p *Parser) parsePosting(linenum int, line string) (ledger.ManualPosting, error) {
	parts := strings.Fields(line)
	if len(parts) != 4 {
		return ledger.ManualPosting{}, parseErrorf(linenum, "want journal, account, debit, credit; got %d fields", len(parts))
	}

	journal, err := p.journals.ByCode(parts[0])
	if err != nil {
		return ledger.ManualPosting{}, parseErrorf(linenum, "unexpected journal code %q", parts[0])
	}
	account, err := p.chart.ByCode(parts[1])
	if err != nil {
		return ledger.ManualPosting{}, parseErrorf(linenum, "unexpected account code %q", parts[1])
	}
	debit, err := parseAmount(parts[2])
	if err != nil {
		return ledger.ManualPosting{}, parseErrorf(linenum, "unexpected debit amount %q", parts[2])
	}
	credit, err := parseAmount(parts[3])
	if err != nil {
		return ledger.ManualPosting{}, parseErrorf(linenum, "unexpected credit amount %q", parts[3])
	}

	return ledger.ManualPosting{
		Journal:     journal,
		Account:     account,
		DebitCents:  debit,
		CreditCents: credit,
	}, nil
}

// parseAmount converts a euro amount with comma or dot decimals to
// cents.
func parseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// splitTabs splits on runs of tabs, the separator used inside header
// lines.
func splitTabs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\t' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
