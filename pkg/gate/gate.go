// Package gate runs the image gate check: it pulls fixable
// vulnerabilities, acknowledgements and assurance results from Aqua for
// each image in a build, splits findings into non-remediated and
// expiring-suppressed buckets, and renders the workflow summary.
package gate

import (
	"context"
	"fmt"

	"github.com/cato-services/gatecheck/pkg/aqua"
)

// Scanner is the slice of the Aqua client the gate check consumes.
type Scanner interface {
	Suppressions(ctx context.Context) ([]aqua.Suppression, error)
	VulnerabilitiesForImage(ctx context.Context, image aqua.Image) ([]aqua.Vulnerability, error)
	AssuranceResults(ctx context.Context, image aqua.Image) (aqua.AssuranceResults, error)
}

// maxExpiryDays bounds the expiring-suppression window: suppressions
// further out than this are not worth surfacing yet.
const maxExpiryDays = 31

// ImageReport is the gate check data for one image.
type ImageReport struct {
	Image aqua.Image

	// Vulnerabilities are fixable findings with no acknowledgement.
	Vulnerabilities []aqua.Vulnerability

	// Suppressed are acknowledged fixable findings whose suppression
	// expires within maxExpiryDays.
	Suppressed []aqua.Vulnerability

	Assurance aqua.AssuranceResults
}

// Result is the outcome of a gate check across a build's images.
type Result struct {
	// Failed is set when any image's assurance policy disallowed it.
	Failed  bool
	Reports []ImageReport
}

// CheckImages gathers gate check data for every image. The suppression
// list is fetched once and narrowed per image.
func CheckImages(ctx context.Context, scanner Scanner, images []aqua.Image) (Result, error) {
	suppressions, err := scanner.Suppressions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("gate: fetching suppressions: %w", err)
	}

	var result Result
	for _, image := range images {
		report, err := checkImage(ctx, scanner, image, suppressions)
		if err != nil {
			return Result{}, err
		}
		if report.Assurance.Disallowed {
			result.Failed = true
		}
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

func checkImage(ctx context.Context, scanner Scanner, image aqua.Image,
	suppressions []aqua.Suppression) (ImageReport, error) {

	vulns, err := scanner.VulnerabilitiesForImage(ctx, image)
	if err != nil {
		return ImageReport{}, fmt.Errorf("gate: scanning %s: %w", image.Name, err)
	}
	assurance, err := scanner.AssuranceResults(ctx, image)
	if err != nil {
		return ImageReport{}, fmt.Errorf("gate: assurance results for %s: %w", image.Name, err)
	}

	report := ImageReport{Image: image, Assurance: assurance}
	imageSuppressions := aqua.SuppressionsForImage(image, suppressions)
	for _, v := range vulns {
		s, ok := aqua.MatchSuppression(v, imageSuppressions)
		if !ok {
			report.Vulnerabilities = append(report.Vulnerabilities, v)
			continue
		}
		v = aqua.AttachSuppression(v, s)
		if expiringSoon(v) {
			report.Suppressed = append(report.Suppressed, v)
		}
	}
	return report, nil
}

// expiringSoon reports whether a suppression deserves attention now.
// Zero days means no expiry was configured.
func expiringSoon(v aqua.Vulnerability) bool {
	return v.AckExpirationDays != 0 && v.AckExpirationDays <= maxExpiryDays
}
