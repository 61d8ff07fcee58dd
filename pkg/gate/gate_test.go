package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cato-services/gatecheck/pkg/aqua"
)

type fakeScanner struct {
	suppressions []aqua.Suppression
	vulns        map[string][]aqua.Vulnerability
	assurance    map[string]aqua.AssuranceResults
}

func (f *fakeScanner) Suppressions(context.Context) ([]aqua.Suppression, error) {
	return f.suppressions, nil
}

func (f *fakeScanner) VulnerabilitiesForImage(_ context.Context, image aqua.Image) ([]aqua.Vulnerability, error) {
	return f.vulns[image.Name], nil
}

func (f *fakeScanner) AssuranceResults(_ context.Context, image aqua.Image) (aqua.AssuranceResults, error) {
	return f.assurance[image.Name], nil
}

func TestCheckImages(t *testing.T) {
	api := aqua.Image{Name: "ghcr.io/acme/payments-api:1.4.2", Tag: "1.4.2"}
	worker := aqua.Image{Name: "ghcr.io/acme/payments-worker:1.4.2", Tag: "1.4.2"}

	scanner := &fakeScanner{
		suppressions: []aqua.Suppression{
			{
				IssueName:              "CVE-2024-0001",
				Repository:             "acme/payments-api",
				ExpirationDays:         10,
				ExpirationConfiguredAt: "2026-08-01T00:00:00Z",
				Comment:                "fix lands next sprint",
			},
			{
				IssueName:      "CVE-2024-0002",
				Repository:     "acme/payments-api",
				ExpirationDays: 90,
			},
			{
				IssueName:  "CVE-2024-0003",
				Repository: "acme/payments-api",
				// No expiry configured; never surfaces as expiring.
			},
		},
		vulns: map[string][]aqua.Vulnerability{
			api.Name: {
				{Name: "CVE-2024-0001", AquaSeverity: "high"},
				{Name: "CVE-2024-0002", AquaSeverity: "medium"},
				{Name: "CVE-2024-0003", AquaSeverity: "low"},
				{Name: "CVE-2024-0004", AquaSeverity: "critical"},
			},
		},
		assurance: map[string]aqua.AssuranceResults{
			worker.Name: {Disallowed: true},
		},
	}

	result, err := CheckImages(context.Background(), scanner, []aqua.Image{api, worker})
	require.NoError(t, err)

	assert.True(t, result.Failed)
	require.Len(t, result.Reports, 2)

	apiReport := result.Reports[0]
	require.Len(t, apiReport.Vulnerabilities, 1)
	assert.Equal(t, "CVE-2024-0004", apiReport.Vulnerabilities[0].Name)

	// Only the 10-day suppression is inside the expiring window.
	require.Len(t, apiReport.Suppressed, 1)
	assert.Equal(t, "CVE-2024-0001", apiReport.Suppressed[0].Name)
	assert.Equal(t, "8/11/2026", apiReport.Suppressed[0].AckExpirationDate)

	workerReport := result.Reports[1]
	assert.Empty(t, workerReport.Vulnerabilities)
	assert.True(t, workerReport.Assurance.Disallowed)
}

func TestRenderSummary(t *testing.T) {
	cfg := SummaryConfig{
		AquaBaseURL:    "https://aqua.acme.example",
		Registry:       "Ad Hoc Scans",
		RegistryPrefix: "ghcr.io/acme/",
	}

	clean := ImageReport{Image: aqua.Image{Name: "ghcr.io/acme/clean-svc:1.0", Tag: "1.0"}}
	dirty := ImageReport{
		Image: aqua.Image{Name: "ghcr.io/acme/payments-api:1.4.2", Tag: "1.4.2"},
		Vulnerabilities: []aqua.Vulnerability{{
			Name:         "CVE-2024-0004",
			AquaSeverity: "critical",
			Solution:     "Upgrade openssl",
			FixVersion:   "3.0.9",
			Resource:     aqua.Resource{Path: "/usr/lib/libssl.so"},
			Description:  "Buffer overflow\r\nin handshake parsing",
		}},
		Suppressed: []aqua.Vulnerability{{
			Name:              "CVE-2024-0001",
			AquaSeverity:      "high",
			AckAuthor:         "assessor@acme.example",
			AckExpirationDays: 10,
			AckExpirationDate: "8/11/2026",
			AckComment:        "fix lands\nnext sprint",
			Solution:          "Upgrade zlib",
			FixVersion:        "1.3.1",
			Resource:          aqua.Resource{Path: "/usr/lib/libz.so"},
		}},
		Assurance: aqua.AssuranceResults{
			Disallowed: true,
			ChecksPerformed: []aqua.AssuranceCheck{
				{Control: "max_severity", PolicyName: "Default", Failed: true, Blocking: true},
				{Control: "audit", PolicyName: "Advisory", Failed: true, Blocking: false},
			},
		},
	}

	rendered, err := RenderSummary([]ImageReport{clean, dirty}, cfg)
	require.NoError(t, err)

	// Per-image sections with display names and deep links.
	assert.Contains(t, rendered, "### **Image: [clean-svc:1.0](")
	assert.Contains(t, rendered, "### **Image: [payments-api:1.4.2](")

	// The clean image only gets the all-clear banner.
	assert.Contains(t, rendered, "No new vulnerabilities or suppressed vulnerabilities need your attention")

	// Table rows, with multi-line text flattened for the cells.
	assert.Contains(t, rendered,
		"|Critical|Upgrade openssl|3.0.9|/usr/lib/libssl.so|Buffer overflow  in handshake parsing|CVE-2024-0004|")
	assert.Contains(t, rendered,
		"|High|in 10 days on 8/11/2026|assessor@acme.example|fix lands next sprint|Upgrade zlib|1.3.1|/usr/lib/libz.so|")

	// Only failed blocking controls are listed.
	assert.Contains(t, rendered, "Control `max_severity` from policy Default")
	assert.NotContains(t, rendered, "audit")

	// No unexpanded tags survive rendering.
	assert.NotContains(t, rendered, "{{")
	assert.NotContains(t, rendered, "<if")
	assert.NotContains(t, rendered, "<for")
}
