package aqua

import "strings"

// SuppressionsForImage narrows the console-wide acknowledgement list to
// records that can apply to one image: the record's repository matches
// the image's repository (registry host stripped), or the record names
// the full image reference outright.
func SuppressionsForImage(image Image, suppressions []Suppression) []Suppression {
	repo := image.Name
	if idx := strings.Index(repo, ":"); idx >= 0 {
		repo = repo[:idx]
	}
	if slash := strings.Index(repo, "/"); slash >= 0 {
		repo = repo[slash+1:]
	}

	var matched []Suppression
	for _, s := range suppressions {
		if s.Repository == repo || s.Image == image.Name {
			matched = append(matched, s)
		}
	}
	return matched
}

// MatchSuppression finds the acknowledgement covering a vulnerability.
// A record matches when its issue name equals the CVE name and its
// resource path equals the finding's resource path; two empty paths
// count as equal.
//
// The suppression endpoint is not authoritative: some acknowledged
// findings never appear in it. A finding that carries an ack author but
// has no record is still reported as suppressed, with zero-valued
// metadata.
func MatchSuppression(v Vulnerability, suppressions []Suppression) (Suppression, bool) {
	for _, s := range suppressions {
		if v.Name != s.IssueName {
			continue
		}
		if s.ResourcePath == v.Resource.Path {
			return s, true
		}
	}
	if v.AckAuthor != "" {
		return Suppression{}, true
	}
	return Suppression{}, false
}

// AttachSuppression copies the matched acknowledgement's expiry and
// comment onto the vulnerability so summary rows can render them without
// carrying the record around.
func AttachSuppression(v Vulnerability, s Suppression) Vulnerability {
	v.AckExpirationDays = s.ExpirationDays
	if expiry, err := SuppressionExpiry(s); err == nil {
		v.AckExpirationDate = FormatExpiryDate(expiry)
	}
	v.AckComment = s.Comment
	return v
}
