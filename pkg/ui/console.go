package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/cato-services/gatecheck/pkg/gate"
)

// severityOrder fixes the display order of finding counts.
var severityOrder = []string{"Critical", "High", "Medium", "Low", "Negligible"}

// PrintGateResult writes a one-screen gate check summary: per image, the
// finding counts by severity, then the overall verdict.
func PrintGateResult(w io.Writer, result gate.Result) {
	for _, report := range result.Reports {
		fmt.Fprintf(w, "%s %s\n",
			TitleStyle.Render("Image:"),
			URLStyle.Render(report.Image.Name))

		if len(report.Vulnerabilities) == 0 && len(report.Suppressed) == 0 {
			fmt.Fprintf(w, "  %s\n", PassStyle.Render("no findings need attention"))
		}
		counts := severityCounts(report)
		for _, severity := range severityOrder {
			if counts[severity] == 0 {
				continue
			}
			fmt.Fprintf(w, "  %s %s\n",
				SeverityStyle(severity).Render(severity),
				StatLabelStyle.Render(fmt.Sprintf("x%d", counts[severity])))
		}
		if n := len(report.Suppressed); n > 0 {
			fmt.Fprintf(w, "  %s\n",
				WarnStyle.Render(fmt.Sprintf("%d suppression(s) expiring soon", n)))
		}
		if report.Assurance.Disallowed {
			fmt.Fprintf(w, "  %s\n", FailStyle.Render("assurance policy disallowed this image"))
		}
	}

	if result.Failed {
		fmt.Fprintln(w, FailStyle.Render("GATE FAILED"))
		return
	}
	fmt.Fprintln(w, PassStyle.Render("GATE PASSED"))
}

// severityCounts tallies non-remediated findings by display severity.
func severityCounts(report gate.ImageReport) map[string]int {
	counts := make(map[string]int)
	for _, v := range report.Vulnerabilities {
		severity := v.AquaSeverity
		if severity == "" {
			counts["Negligible"]++
			continue
		}
		counts[strings.ToUpper(severity[:1])+severity[1:]]++
	}
	return counts
}
