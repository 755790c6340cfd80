// Package risk defines finding severities and the capped weighted risk score.
package risk

import "encoding/json"

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Weight returns the score contribution of the severity. Unknown severities weigh 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 5
	case SeverityMedium:
		return 15
	case SeverityHigh:
		return 30
	case SeverityCritical:
		return 50
	}
	return 0
}

// Finding is one rule-triggered observation with an assigned severity.
type Finding struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Detail   string   `json:"detail"`
}

// Score is the capped weighted sum of a report's finding severities.
// Factors lists the contributing finding ids in evaluation order.
type Score struct {
	Score   int      `json:"score"`
	Level   Severity `json:"level"`
	Factors []string `json:"factors"`
}

// maxScore caps the weighted sum.
const maxScore = 100

// Aggregate computes the risk score for the given findings.
// The score is min(100, sum of severity weights); the level follows from the
// score alone (<=10 low, <=30 medium, <=60 high, else critical). Factors
// preserve finding order. An empty or nil findings list yields score 0, level low.
func Aggregate(findings []Finding) Score {
	total := 0
	factors := make([]string, 0, len(findings))
	for _, f := range findings {
		total += f.Severity.Weight()
		factors = append(factors, f.ID)
	}
	if total > maxScore {
		total = maxScore
	}
	return Score{Score: total, Level: LevelFor(total), Factors: factors}
}

// LevelFor maps a score in [0,100] to its severity band.
func LevelFor(score int) Severity {
	switch {
	case score <= 10:
		return SeverityLow
	case score <= 30:
		return SeverityMedium
	case score <= 60:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// ScoreField accepts the wire encodings of risk_score seen in agent payloads:
// either a bare number or a full {"score": ..., "level": ..., "factors": [...]}
// object. Older v1 agents sent the bare form.
type ScoreField struct {
	Score
	set bool
}

// Set reports whether a value was present in the payload.
func (f *ScoreField) Set() bool { return f.set }

// UnmarshalJSON decodes either encoding. null leaves the field unset.
func (f *ScoreField) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Score = Score{Score: int(n), Level: LevelFor(int(n))}
		f.set = true
		return nil
	}
	var s Score
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	f.Score = s
	f.set = true
	return nil
}

// MarshalJSON always writes the full object form.
func (f ScoreField) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Score)
}
