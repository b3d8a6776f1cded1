package sanctions

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/harrier/internal/domain"
)

// watchlistFile is the on-disk shape of a watchlist refresh document.
type watchlistFile struct {
	Entries  []domain.SanctionsEntry `yaml:"entries"`
	PEPTerms []string                `yaml:"pep_terms"`
}

// LoadWatchlistFile parses a YAML watchlist document from disk.
func LoadWatchlistFile(path string) ([]domain.SanctionsEntry, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read watchlist file: %w", err)
	}
	var doc watchlistFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse watchlist file: %w", err)
	}
	for i, e := range doc.Entries {
		if e.Name == "" {
			return nil, nil, fmt.Errorf("watchlist entry %d: missing name", i)
		}
		if e.ListSource == "" {
			return nil, nil, fmt.Errorf("watchlist entry %d (%s): missing list source", i, e.Name)
		}
	}
	return doc.Entries, doc.PEPTerms, nil
}

// DefaultWatchlist seeds the screener for installs without a sanctions feed.
func DefaultWatchlist() []domain.SanctionsEntry {
	return []domain.SanctionsEntry{
		{
			Name:       "Suspicious Corp International",
			EntityType: domain.EntityOrganization,
			Country:    "Unknown",
			ListSource: "OFAC_SDN",
			AddedDate:  "2024-01-15",
			Aliases:    []string{"SCI", "Sus Corp"},
		},
		{
			Name:       "John Doe Sanctioned",
			EntityType: domain.EntityIndividual,
			Country:    "Unknown",
			ListSource: "OFAC_SDN",
			AddedDate:  "2024-02-20",
		},
		{
			Name:       "Blocked Vendor LLC",
			EntityType: domain.EntityOrganization,
			Country:    "Unknown",
			ListSource: "EU_SANCTIONS",
			AddedDate:  "2024-03-10",
		},
	}
}

// DefaultPEPTerms is the seed vocabulary of politically exposed person
// indicators searched for in transaction descriptions.
func DefaultPEPTerms() []string {
	return []string{
		"government official",
		"minister of finance",
		"senator",
		"ambassador",
		"military general",
		"central bank governor",
	}
}
