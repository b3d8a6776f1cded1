package domain

// Entity types for watchlist entries.
const (
	EntityIndividual   = "INDIVIDUAL"
	EntityOrganization = "ORGANIZATION"
)

// SanctionsEntry is a single restricted-entity watchlist record.
// The watchlist is loaded once at startup and append-only at runtime.
type SanctionsEntry struct {
	Name       string   `json:"name" yaml:"name"`
	EntityType string   `json:"entity_type" yaml:"entity_type"`
	Country    string   `json:"country,omitempty" yaml:"country,omitempty"`
	ListSource string   `json:"list_source" yaml:"list_source"`
	AddedDate  string   `json:"added_date,omitempty" yaml:"added_date,omitempty"`
	Aliases    []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// ScreenResult is the outcome of a sanctions/PEP screen for one entity.
type ScreenResult struct {
	SanctionsHit     bool     `json:"sanctions_hit"`
	SanctionsMatches []string `json:"sanctions_matches,omitempty"`
	PEPHit           bool     `json:"pep_hit"`
	PEPMatches       []string `json:"pep_matches,omitempty"`
}
