package finding

import "time"

// Severity tiers, ordered.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// AtLeast reports whether s meets the given minimum severity.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

// FindingType classifies the nature of a finding.
type FindingType string

const (
	TypeSuspicious FindingType = "suspicious"
	TypeExploit    FindingType = "exploit"
)

// EntityType tags what a label points at.
type EntityType string

const (
	EntityAddress     EntityType = "address"
	EntityTransaction EntityType = "transaction"
)

// Label attaches a named role to an on-chain entity with a confidence score.
type Label struct {
	Entity     string     `json:"entity"`
	EntityType EntityType `json:"entityType"`
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
}

// Finding is the sole externally observable product of the detection engine.
// Immutable after assembly: a finding is either emitted with full metadata or
// not emitted at all.
type Finding struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	AlertID     string            `json:"alertId"`
	Severity    Severity          `json:"severity"`
	Type        FindingType       `json:"type"`
	Metadata    map[string]string `json:"metadata"`
	Labels      []Label           `json:"labels"`
	Timestamp   time.Time         `json:"timestamp"`
}
