package gate

import (
	"fmt"
	"strings"

	"github.com/cato-services/gatecheck/pkg/aqua"
	"github.com/cato-services/gatecheck/pkg/template"
)

// SummaryTemplate renders one section per image. Each image's finding
// tables live under dynamically named list bindings (vs-in-<image> and
// friends) so the same row template can expand per image.
const SummaryTemplate = `
# Aqua Gate Check Summary
**Lighthouse Policy:**
Must remediate vulnerabilities designated as Low or higher severity in order to comply with the cATO policy.

---
<for images>
### **Image: [{{ formatted_image }}]({{ url }})**

*Note: Hyperlink can only be accessed if you are on Citrix or utilizing GFE.*

<if {{ has_no_vulnerabilities }}>
### **No new vulnerabilities or suppressed vulnerabilities need your attention at this time**
</if {{ has_no_vulnerabilities }}>

<if {{ has_vulnerabilities }}>
<if {{ has_non-remediated_vulnerabilities }}>
### **Non-Remediated Vulnerabilities**
*Note: More vulnerabilities may exist in Aqua that have not yet been remedied and acknowledged. The following vulnerabilities have fix versions available and have not yet been acknowledged.*
|Severity|Remediation|Fix Version|Resource Path|Description|Vulnerability Name|
|--------|-----------|-----------|-------------|-----------|------------------|<for {{ vulnerabilities }}>
|{{ severity }}|{{ remediation }}|{{ fix_version }}|{{ resource_path }}|{{ description }}|{{ vulnerability_name }}|</for {{ vulnerabilities }}>
</if {{ has_non-remediated_vulnerabilities }}>
<if {{ has_no_non-remediated_vulnerabilities }}>
*No vulnerabilities with a known fix or no vulnerabilities exist*
</if {{ has_no_non-remediated_vulnerabilities }}>
<if {{ has_suppressed_vulnerabilities }}>
### **Expiring Suppressed Vulnerabilities**
*Note: Suppressed vulnerabilities that expire in the next 31 days and have fix versions available are shown below. More suppressed vulnerabilities may exist in Aqua*
|Severity|Expiration|Who Last Suppressed|Reason for Suppression|Remediation|Fix Version|Resource Path|
|--------|----------|-------------------|----------------------|-----------|-----------|-------------|<for {{ suppressed_vulnerabilities }}>
|{{ severity }}|{{ expiration }}|{{ who_last_suppressed }}|{{ reason_for_suppression }}|{{ remediation }}|{{ fix_version }}|{{ resource_path }}|</for {{ suppressed_vulnerabilities }}>
</if {{ has_suppressed_vulnerabilities }}>
<if {{ has_no_suppressed_vulnerabilities }}>
*No suppressed vulnerabilities need your attention at this time*
</if {{ has_no_suppressed_vulnerabilities }}>
</if {{ has_vulnerabilities }}>

<if {{ failed_aqua_policy }}>
The following Aqua policies failed:
<for {{ assurance_results }}>
Control ` + "`{{ control }}`" + ` from policy {{ policy }}</for {{ assurance_results }}>
</if {{ failed_aqua_policy }}>
</for images>
---

`

// SummaryConfig carries what the summary needs beyond the reports.
type SummaryConfig struct {
	// AquaBaseURL is the console URL deep links point at.
	AquaBaseURL string

	// Registry is the Aqua registry name used in deep links.
	Registry string

	// RegistryPrefix is stripped off image names for display,
	// e.g. "ghcr.io/acme/".
	RegistryPrefix string
}

// SummaryBindings builds the bindings for SummaryTemplate. The images
// list is declared before the per-image finding lists: the outer loop
// must expand first so the dynamic vs-in-<image> tags it produces are
// still ahead of their own expansion passes.
func SummaryBindings(reports []ImageReport, cfg SummaryConfig) *template.Bindings {
	bindings := template.NewBindings()

	images := make([]template.Element, 0, len(reports))
	for _, r := range reports {
		name := r.Image.Name
		hasVulns := len(r.Vulnerabilities) > 0
		hasSuppressed := len(r.Suppressed) > 0
		images = append(images, template.Element{
			"formatted_image":                       aqua.TrimRegistryPrefix(name, cfg.RegistryPrefix),
			"url":                                   aqua.UIURL(r.Image, cfg.Registry, cfg.AquaBaseURL),
			"has_suppressed_vulnerabilities":        hasSuppressed,
			"has_non-remediated_vulnerabilities":    hasVulns,
			"has_vulnerabilities":                   hasVulns || hasSuppressed,
			"has_no_vulnerabilities":                !(hasVulns || hasSuppressed),
			"has_no_non-remediated_vulnerabilities": !hasVulns,
			"has_no_suppressed_vulnerabilities":     !hasSuppressed,
			"failed_aqua_policy":                    r.Assurance.Disallowed,
			"vulnerabilities":                       "vs-in-" + name,
			"suppressed_vulnerabilities":            "ss-in-" + name,
			"assurance_results":                     "assurance_results-in-" + name,
		})
	}
	bindings.SetList("images", images...)

	for _, r := range reports {
		bindings.SetList("vs-in-"+r.Image.Name, vulnerabilityRows(r.Vulnerabilities)...)
		bindings.SetList("ss-in-"+r.Image.Name, suppressedRows(r.Suppressed)...)
		bindings.SetList("assurance_results-in-"+r.Image.Name, assuranceRows(r.Assurance)...)
	}
	return bindings
}

// RenderSummary renders the gate check summary for the workflow step.
func RenderSummary(reports []ImageReport, cfg SummaryConfig) (string, error) {
	rendered, err := template.Render(SummaryTemplate, SummaryBindings(reports, cfg))
	if err != nil {
		return "", fmt.Errorf("gate: rendering summary: %w", err)
	}
	return rendered, nil
}

func vulnerabilityRows(vulns []aqua.Vulnerability) []template.Element {
	rows := make([]template.Element, 0, len(vulns))
	for _, v := range vulns {
		rows = append(rows, template.Element{
			"severity":           capitalize(v.AquaSeverity),
			"remediation":        v.Solution,
			"fix_version":        v.FixVersion,
			"resource_path":      v.Resource.Path,
			"description":        flatten(v.Description),
			"vulnerability_name": v.Name,
		})
	}
	return rows
}

func suppressedRows(vulns []aqua.Vulnerability) []template.Element {
	rows := make([]template.Element, 0, len(vulns))
	for _, v := range vulns {
		rows = append(rows, template.Element{
			"severity":               capitalize(v.AquaSeverity),
			"expiration":             fmt.Sprintf("in %d days on %s", v.AckExpirationDays, v.AckExpirationDate),
			"who_last_suppressed":    v.AckAuthor,
			"reason_for_suppression": flatten(v.AckComment),
			"remediation":            v.Solution,
			"fix_version":            v.FixVersion,
			"resource_path":          v.Resource.Path,
		})
	}
	return rows
}

func assuranceRows(results aqua.AssuranceResults) []template.Element {
	checks := results.FailedBlockingChecks()
	rows := make([]template.Element, 0, len(checks))
	for _, check := range checks {
		rows = append(rows, template.Element{
			"control": check.Control,
			"policy":  check.PolicyName,
		})
	}
	return rows
}

// flatten folds newlines into spaces so multi-line text survives a
// Markdown table cell.
var flattener = strings.NewReplacer("\n", " ", "\r", " ")

func flatten(s string) string {
	return flattener.Replace(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
