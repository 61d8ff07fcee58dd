// Package sde talks to SD Elements and evaluates the countermeasure gate
// check: a project passes when its risk policy reports compliant, and
// otherwise the policy name and CRM-managed expiration window decide
// between a warning and a hard failure.
package sde

// Project is an SD Elements project as returned by the projects API.
type Project struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	URL                 string `json:"url"`
	RiskPolicy          int    `json:"risk_policy"`
	RiskPolicyCompliant bool   `json:"risk_policy_compliant"`
	SurveyComplete      bool   `json:"survey_complete"`
}

// Policy is a risk policy. The gate check branches on well-known names.
type Policy struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Risk policy names the gate check treats specially.
const (
	PolicyHighestRisk = "Highest Risk Requirements Only"
	PolicyRound2      = "Requirements Round 2"
	PolicyRound3      = "Requirements Round 3"
)

// Countermeasure statuses. Complete, Inherited and Not Applicable all
// count as done; only done countermeasures verified by an App Assessor
// count toward gate compliance.
const (
	StatusTodo          = "TODO"
	StatusInProgress    = "IP"
	StatusComplete      = "DONE"
	StatusInherited     = "INHERITED"
	StatusNotApplicable = "NA"
)

// App Assessor verification statuses that satisfy the gate.
const (
	VerificationPass        = "pass"
	VerificationPartialPass = "partial"
)

// Countermeasure is one project countermeasure with its completion and
// verification state.
type Countermeasure struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Status             string `json:"status"`
	VerificationStatus string `json:"verification_status"`
}

// done reports whether the app team considers the countermeasure handled.
func (c Countermeasure) done() bool {
	switch c.Status {
	case StatusComplete, StatusInherited, StatusNotApplicable:
		return true
	}
	return false
}

// verified reports whether an App Assessor signed off on the countermeasure.
func (c Countermeasure) verified() bool {
	return c.VerificationStatus == VerificationPass ||
		c.VerificationStatus == VerificationPartialPass
}

// CountermeasureSummary aggregates a project's countermeasures for the
// gate check summary table.
type CountermeasureSummary struct {
	Total               int
	Incomplete          int
	InProgress          int
	Done                int
	MissingVerification int
}

// Summarize buckets countermeasures by completion and verification state.
// Done counts only verified countermeasures; done-but-unverified ones are
// counted as missing verification instead.
func Summarize(countermeasures []Countermeasure) CountermeasureSummary {
	summary := CountermeasureSummary{Total: len(countermeasures)}
	for _, cm := range countermeasures {
		switch {
		case cm.done() && cm.verified():
			summary.Done++
		case cm.done():
			summary.MissingVerification++
		case cm.Status == StatusInProgress:
			summary.InProgress++
		default:
			summary.Incomplete++
		}
	}
	return summary
}

// PercentComplete returns the gate check completion percentage.
func (s CountermeasureSummary) PercentComplete() float64 {
	if s.Total == 0 {
		return 0
	}
	return 100 * float64(s.Done) / float64(s.Total)
}
