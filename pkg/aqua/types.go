// Package aqua provides the Aqua CSP API client used by the image gate
// check: authentication, paged vulnerability and suppression queries,
// image assurance results, and customer onboarding (scopes, roles, OIDC
// role mappings).
package aqua

// Image identifies one scanned container image.
type Image struct {
	// Name is the full repository reference including tag,
	// e.g. "ghcr.io/acme/payments-api:1.4.2".
	Name string `json:"name"`

	// Tag is the image tag portion of Name.
	Tag string `json:"tag"`

	// Digest is the manifest digest the scan ran against.
	Digest string `json:"digest"`
}

// Resource locates the artifact a vulnerability was found in.
type Resource struct {
	Path string `json:"path"`
}

// Vulnerability is one finding from the Aqua risk API. The Ack* fields
// are only populated after a suppression has been matched to the finding.
type Vulnerability struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	AquaSeverity string   `json:"aqua_severity"`
	Solution     string   `json:"solution"`
	FixVersion   string   `json:"fix_version"`
	Resource     Resource `json:"resource"`
	AckAuthor    string   `json:"ack_author"`

	// Suppression metadata attached by MatchSuppression.
	AckExpirationDays int    `json:"ack_expiration_days,omitempty"`
	AckExpirationDate string `json:"ack_expiration_date,omitempty"`
	AckComment        string `json:"ack_comment,omitempty"`
}

// Suppression is one acknowledgement record from the Aqua risk API.
type Suppression struct {
	IssueName              string `json:"issue_name"`
	ResourcePath           string `json:"resource_path"`
	Repository             string `json:"repository"`
	Image                  string `json:"image"`
	Comment                string `json:"comment"`
	ExpirationDays         int    `json:"expiration_days"`
	ExpirationConfiguredAt string `json:"expiration_configured_at"`
}

// AssuranceCheck is one policy control evaluated against an image.
type AssuranceCheck struct {
	Control    string `json:"control"`
	PolicyName string `json:"policy_name"`
	Failed     bool   `json:"failed"`
	Blocking   bool   `json:"blocking"`
}

// AssuranceResults summarizes the policy evaluation for an image.
// Disallowed is the gate signal: Aqua sets it when a blocking control
// failed.
type AssuranceResults struct {
	Disallowed      bool             `json:"disallowed"`
	ChecksPerformed []AssuranceCheck `json:"checks_performed"`
}

// FailedBlockingChecks returns the controls that both failed and block
// the image, in evaluation order.
func (a AssuranceResults) FailedBlockingChecks() []AssuranceCheck {
	var failed []AssuranceCheck
	for _, check := range a.ChecksPerformed {
		if check.Failed && check.Blocking {
			failed = append(failed, check)
		}
	}
	return failed
}
