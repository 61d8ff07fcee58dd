package aqua

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cato-services/gatecheck/pkg/apiclient"
)

// DefaultRegistry is the Aqua registry that ad-hoc pipeline scans land in.
const DefaultRegistry = "Ad Hoc Scans"

// Config holds everything needed to open an authenticated Aqua session.
type Config struct {
	BaseURL  string
	Username string
	Password string

	// Registry scopes vulnerability queries; defaults to DefaultRegistry.
	Registry string

	// CACertFile optionally pins the server certificate chain. When
	// empty the client skips TLS verification, matching how the
	// internally-hosted Aqua console is deployed.
	CACertFile string
}

// Client is an authenticated Aqua API client.
type Client struct {
	api      *apiclient.Client
	registry string
}

// Login exchanges credentials for a bearer token at /api/v1/login.
func Login(ctx context.Context, api *apiclient.Client, username, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"id": username, "password": password}
	if err := api.PostJSON(ctx, "/api/v1/login", body, &resp); err != nil {
		return "", fmt.Errorf("aqua: login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("aqua: login returned an empty token")
	}
	return resp.Token, nil
}

// NewClient logs in and returns a client whose requests carry the bearer
// token.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Registry == "" {
		cfg.Registry = DefaultRegistry
	}

	loginCfg := apiclient.DefaultConfig()
	loginCfg.BaseURL = cfg.BaseURL
	loginCfg.CACertFile = cfg.CACertFile
	loginCfg.InsecureSkipVerify = cfg.CACertFile == ""
	loginAPI, err := apiclient.New(loginCfg)
	if err != nil {
		return nil, err
	}

	token, err := Login(ctx, loginAPI, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}

	authCfg := loginCfg
	authCfg.Headers = map[string]string{"Authorization": "Bearer " + token}
	api, err := apiclient.New(authCfg)
	if err != nil {
		return nil, err
	}

	return &Client{api: api, registry: cfg.Registry}, nil
}

// Registry returns the registry name queries are scoped to.
func (c *Client) Registry() string { return c.registry }

// VulnerabilitiesForImage returns every fixable vulnerability recorded for
// the image, draining the paginated risk endpoint.
func (c *Client) VulnerabilitiesForImage(ctx context.Context, image Image) ([]Vulnerability, error) {
	return apiclient.CollectPages(ctx, func(ctx context.Context, page int) ([]Vulnerability, error) {
		path := fmt.Sprintf(
			"/api/v2/risks/vulnerabilities?hide_base_image=false&fix_availability=true&digest=%s&image_name=%s&registry_name=%s&page=%d",
			url.QueryEscape(image.Digest),
			url.QueryEscape(image.Name),
			url.QueryEscape(c.registry),
			page,
		)
		var resp struct {
			Result []Vulnerability `json:"result"`
		}
		if err := c.api.GetJSON(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("aqua: vulnerabilities for %s page %d: %w", image.Name, page, err)
		}
		return resp.Result, nil
	})
}

// Suppressions returns every acknowledgement in the console. The
// suppression endpoint cannot filter by image, so callers match records
// to vulnerabilities themselves (see MatchSuppression).
func (c *Client) Suppressions(ctx context.Context) ([]Suppression, error) {
	return apiclient.CollectPages(ctx, func(ctx context.Context, page int) ([]Suppression, error) {
		var resp struct {
			Result []Suppression `json:"result"`
		}
		path := fmt.Sprintf("/api/v2/risks/acknowledge?order_by=repository&page=%d", page)
		if err := c.api.GetJSON(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("aqua: suppressions page %d: %w", page, err)
		}
		return resp.Result, nil
	})
}

// AssuranceResults returns the image assurance policy evaluation for the
// image at its scanned digest.
func (c *Client) AssuranceResults(ctx context.Context, image Image) (AssuranceResults, error) {
	path := fmt.Sprintf(
		"/api/v2/images/%s/%s/%s?digest=%s",
		url.PathEscape(c.registry),
		url.QueryEscape(image.Name),
		url.PathEscape(image.Tag),
		url.QueryEscape(image.Digest),
	)
	var resp struct {
		AssuranceResults AssuranceResults `json:"assurance_results"`
	}
	if err := c.api.GetJSON(ctx, path, &resp); err != nil {
		return AssuranceResults{}, fmt.Errorf("aqua: assurance results for %s: %w", image.Name, err)
	}
	return resp.AssuranceResults, nil
}
