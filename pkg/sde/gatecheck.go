package sde

import (
	"fmt"
	"time"

	"github.com/cato-services/gatecheck/pkg/exitcode"
	"github.com/cato-services/gatecheck/pkg/template"
)

// SummaryTemplate is the Markdown gate check summary posted to the
// workflow step summary. The expiration rows only appear for projects
// whose risk policy carries a CRM-managed expiration window.
const SummaryTemplate = `
- How do I resolve this gate check failure?
    <p>Each countermeasure must have a status of Complete, Inherited or Not Applicable,
    and also include a verification status of <b>Pass</b> or <b>Partial Pass</b> from your App Assessor.</p>
- To do this, leverage either Citrix or GFE to access your [SD Elements Project]({{ url }}) directly, or via your backlog tool (eg Jira) if your team has integrated with SD Elements to address any outstanding Countermeasures.
If you would like to implement an integration between your backlog and SD Elements, contact your App Assessor for assistance.



## SDE Countermeasures Summary for project: {{ project }}
|SD Elements Attribute|Value|
| --- | --- |
|Current Project Risk Policy| {{ risk_policy }} |<if {{ has_expiration }}>
|Risk Policy Start Date| {{ policy_start_date }} |
|Risk Policy Expiration Date| {{ policy_expiration_date }} |
|Days until SDE gate check fails without 100% compliance| {{ days_until_gate_check_failure }} |</if {{ has_expiration }}>
|Gate Check Percentage Completion| {{ gate_check_percent_complete }}% |
|Total Project Countermeasures| {{ total_count }} |
|Incomplete Countermeasures| {{ incomplete_count }} |
|In progress Countermeasures| {{ in_progress_count }} |
|Countermeasures Completed by App Team| {{ done_count }} |
|Countermeasures Missing App Assessor Verification| {{ missing_verification_count }} |
`

// ExpirationWarningTemplate is the annotation emitted while a
// non-compliant project is still inside its policy expiration window.
const ExpirationWarningTemplate = `
cATO Policy warning, your pipeline will become blocked in {{ expiration_days }} days on {{ expiration_date }},
if your SDE Project Compliance is not at 100%.
To avoid this, please ensure all SDE countermeasures that are applicable to your current risk policy have been completed by your team,
and verified by your teams App Assessor. For details on your teams progress, you can either view the SDE gate check summary table at {{ build_url }}, then scroll down and expand the SDE gate check summary table., log in to SD Elements and view your project summary page,
or reach out to your App Assessor to confirm remaining scope.
`

// expiredMessage fills the days-until row once the window has passed.
const expiredMessage = "your risk policy has expired!"

// CRMData carries the per-application policy window dates managed in the
// CRM. Empty fields mean the CRM has not been updated for that round yet.
type CRMData struct {
	Round2StartDate      string `json:"sde-round-2-start-date"`
	Round2ExpirationDate string `json:"sde-round-2-expiration-date"`
	Round3StartDate      string `json:"sde-round-3-start-date"`
	Round3ExpirationDate string `json:"sde-round-3-expiration-date"`
}

// window returns the start/expiration dates for the given policy, or
// ok=false when the CRM has no expiration date for it.
func (d CRMData) window(policyName string) (start, expiration string, ok bool) {
	switch policyName {
	case PolicyRound2:
		return d.Round2StartDate, d.Round2ExpirationDate, d.Round2ExpirationDate != ""
	case PolicyRound3:
		return d.Round3StartDate, d.Round3ExpirationDate, d.Round3ExpirationDate != ""
	}
	return "", "", false
}

// expirationInfo is the optional expiration block of the summary table.
// DaysUntilFailure is an int while the window is open and the expired
// message string afterward.
type expirationInfo struct {
	StartDate        string
	ExpirationDate   string
	DaysUntilFailure any
}

// Outcome is the result of evaluating the gate for one project.
type Outcome struct {
	// Summary is the rendered Markdown summary table.
	Summary string
	// Code is the process exit code the CLI should finish with.
	Code exitcode.Code
	// Warning, when set, should be emitted as a warning annotation.
	Warning string
	// Error, when set, should be emitted as an error annotation.
	Error string
}

// gateFailedMessage points developers at the step summary when the gate
// blocks their build.
func gateFailedMessage(buildURL string) string {
	return fmt.Sprintf("SD Elements gate check failed. Please access the workflow "+
		"summary from this latest run at %s, then scroll down and expand the SDE "+
		"gate check summary table.", buildURL)
}

// Evaluate applies the gate check decision table:
//
//   - compliant projects pass with a plain summary;
//   - Highest Risk projects fail hard when non-compliant;
//   - Round 2/3 projects get a grace window from the CRM dates: a warning
//     inside the window, a hard failure after it, and a pass when the CRM
//     has no dates yet;
//   - any other policy passes.
func Evaluate(project Project, policy Policy, summary CountermeasureSummary,
	crm CRMData, buildURL string, now time.Time) (Outcome, error) {

	if project.RiskPolicyCompliant {
		return renderOutcome(project, policy, summary, nil, exitcode.Success, "", "")
	}
	if policy.Name == PolicyHighestRisk {
		return renderOutcome(project, policy, summary, nil,
			exitcode.GateFailed, "", gateFailedMessage(buildURL))
	}
	if policy.Name != PolicyRound2 && policy.Name != PolicyRound3 {
		return renderOutcome(project, policy, summary, nil, exitcode.Success, "", "")
	}

	// Round 2/3 project whose CRM record has no expiration dates yet:
	// pass, with a table that omits the expiration rows.
	startRaw, expirationRaw, ok := crm.window(policy.Name)
	if !ok {
		return renderOutcome(project, policy, summary, nil, exitcode.Success, "", "")
	}

	start, err := parseCRMDate(startRaw)
	if err != nil {
		return Outcome{}, fmt.Errorf("sde: policy start date: %w", err)
	}
	expiration, err := parseCRMDate(expirationRaw)
	if err != nil {
		return Outcome{}, fmt.Errorf("sde: policy expiration date: %w", err)
	}

	info := expirationInfo{
		StartDate:      start.Format("01/02/06"),
		ExpirationDate: expiration.Format("01/02/06"),
	}
	if now.Before(expiration) {
		days := int(expiration.Sub(now).Hours() / 24)
		info.DaysUntilFailure = days
		warning, err := renderExpirationWarning(days, info.ExpirationDate, buildURL)
		if err != nil {
			return Outcome{}, err
		}
		return renderOutcome(project, policy, summary, &info, exitcode.Success, warning, "")
	}
	info.DaysUntilFailure = expiredMessage
	return renderOutcome(project, policy, summary, &info,
		exitcode.GateFailed, "", gateFailedMessage(buildURL))
}

// parseCRMDate accepts the CRM's ISO-8601 timestamps with or without a
// time component.
func parseCRMDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// renderOutcome renders the summary table and packages it with the exit
// code and annotations.
func renderOutcome(project Project, policy Policy, summary CountermeasureSummary,
	expiration *expirationInfo, code exitcode.Code, warning, errMsg string) (Outcome, error) {

	rendered, err := summaryTable(project, policy, summary, expiration)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Summary: rendered, Code: code, Warning: warning, Error: errMsg}, nil
}

// summaryTable renders the gate check summary for a project. A nil
// expiration drops the policy-window rows from the table.
func summaryTable(project Project, policy Policy, summary CountermeasureSummary,
	expiration *expirationInfo) (string, error) {

	bindings := template.NewBindings().
		Set("url", project.URL).
		Set("project", project.Name).
		Set("risk_policy", policy.Name).
		Set("has_expiration", expiration != nil).
		Set("gate_check_percent_complete", fmt.Sprintf("%.2f", summary.PercentComplete())).
		Set("total_count", summary.Total).
		Set("incomplete_count", summary.Incomplete).
		Set("in_progress_count", summary.InProgress).
		Set("done_count", summary.Done).
		Set("missing_verification_count", summary.MissingVerification)
	if expiration != nil {
		bindings.
			Set("policy_start_date", expiration.StartDate).
			Set("policy_expiration_date", expiration.ExpirationDate).
			Set("days_until_gate_check_failure", expiration.DaysUntilFailure)
	}

	rendered, err := template.Render(SummaryTemplate, bindings)
	if err != nil {
		return "", fmt.Errorf("sde: rendering summary table: %w", err)
	}
	return rendered, nil
}

// renderExpirationWarning builds the in-window warning annotation.
func renderExpirationWarning(days int, expirationDate, buildURL string) (string, error) {
	bindings := template.NewBindings().
		Set("expiration_days", days).
		Set("expiration_date", expirationDate).
		Set("build_url", buildURL)
	rendered, err := template.Render(ExpirationWarningTemplate, bindings)
	if err != nil {
		return "", fmt.Errorf("sde: rendering expiration warning: %w", err)
	}
	return rendered, nil
}
