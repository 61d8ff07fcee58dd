package aqua

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// UIURL returns a deep link into the Aqua console's vulnerability view for
// an image. The link is only reachable from the internal network, which
// the rendered summary warns readers about.
func UIURL(image Image, registry, baseURL string) string {
	name := image.Name
	tag := image.Tag
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		tag = name[idx+1:]
		name = name[:idx]
	}
	return fmt.Sprintf(
		"%s/#/images/%s/%s:%s/vulns?digest=%s",
		baseURL,
		registry,
		url.QueryEscape(name),
		tag,
		url.QueryEscape(image.Digest),
	)
}

// TrimRegistryPrefix strips a registry/organization prefix from a full
// image reference so summaries show "team/app:tag" instead of the whole
// GHCR path. Names without the prefix pass through unchanged.
func TrimRegistryPrefix(name, prefix string) string {
	if prefix == "" {
		return name
	}
	if _, rest, found := strings.Cut(name, prefix); found {
		return rest
	}
	return name
}

// SuppressionExpiry computes when a suppression lapses: the moment it was
// configured plus its expiration window. The date renders as M/D/YYYY to
// match the summary tables.
func SuppressionExpiry(s Suppression) (time.Time, error) {
	configured, err := time.Parse(time.RFC3339, s.ExpirationConfiguredAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("aqua: parsing suppression configured-at: %w", err)
	}
	return configured.AddDate(0, 0, s.ExpirationDays), nil
}

// FormatExpiryDate renders a suppression expiry as M/D/YYYY.
func FormatExpiryDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Month(), t.Day(), t.Year())
}
