// Package sanctions provides watchlist and PEP screening.
//
// Matching is deliberately permissive: case-insensitive substring
// containment in both directions, favoring recall over precision. False
// positives (e.g. a legitimate name that happens to contain a short alias)
// are expected and surface as REVIEW/REJECT outcomes for a human to clear.
// A stricter deployment would swap in normalized edit-distance or token-set
// matching behind the same Screen contract.
package sanctions

import (
	"fmt"
	"strings"
	"sync"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Screener matches entity names against the watchlist and entity
// descriptions against the PEP vocabulary. Reads are concurrent; entry
// updates are serialized behind the write lock.
type Screener struct {
	mu       sync.RWMutex
	entries  []domain.SanctionsEntry
	pepTerms []string
}

// NewScreener creates a screener over the given watchlist and PEP terms.
func NewScreener(entries []domain.SanctionsEntry, pepTerms []string) *Screener {
	return &Screener{
		entries:  append([]domain.SanctionsEntry(nil), entries...),
		pepTerms: append([]string(nil), pepTerms...),
	}
}

// Screen checks an entity name against the watchlist and its description
// against the PEP vocabulary. The first matching name or alias per entry is
// recorded with the entry's list source.
func (s *Screener) Screen(entityName, entityDescription string) domain.ScreenResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result domain.ScreenResult
	candidate := strings.ToLower(strings.TrimSpace(entityName))

	if candidate != "" {
		for _, entry := range s.entries {
			if containsEither(candidate, strings.ToLower(entry.Name)) {
				result.SanctionsMatches = append(result.SanctionsMatches,
					fmt.Sprintf("Matched %s: %s", entry.ListSource, entry.Name))
				continue
			}
			for _, alias := range entry.Aliases {
				if containsEither(candidate, strings.ToLower(alias)) {
					result.SanctionsMatches = append(result.SanctionsMatches,
						fmt.Sprintf("Matched %s alias: %s -> %s", entry.ListSource, alias, entry.Name))
					break
				}
			}
		}
	}
	result.SanctionsHit = len(result.SanctionsMatches) > 0

	desc := strings.ToLower(entityDescription)
	for _, term := range s.pepTerms {
		if strings.Contains(desc, term) {
			result.PEPMatches = append(result.PEPMatches, "PEP indicator: "+term)
		}
	}
	result.PEPHit = len(result.PEPMatches) > 0

	return result
}

// AddEntries appends watchlist entries at runtime. The list is append-only;
// existing entries are never removed or rewritten.
func (s *Screener) AddEntries(entries []domain.SanctionsEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
}

// AddPEPTerms appends terms to the PEP vocabulary at runtime. Terms are
// lowercased to match the case-insensitive description scan; blanks and
// duplicates are skipped.
func (s *Screener) AddPEPTerms(terms []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.pepTerms))
	for _, t := range s.pepTerms {
		known[t] = true
	}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || known[t] {
			continue
		}
		s.pepTerms = append(s.pepTerms, t)
		known[t] = true
	}
}

// PEPTerms returns a copy of the current PEP vocabulary.
func (s *Screener) PEPTerms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.pepTerms...)
}

// Entries returns a copy of the current watchlist.
func (s *Screener) Entries() []domain.SanctionsEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SanctionsEntry(nil), s.entries...)
}

// Size returns the number of watchlist entries.
func (s *Screener) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// containsEither reports substring containment in either direction, the
// high-recall matching policy described in the package comment.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
