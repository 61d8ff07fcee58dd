package sde

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/cato-services/gatecheck/pkg/apiclient"
)

// Errors surfaced by GateData for the CLI to map onto its exit codes.
var (
	// ErrNoProject means SD Elements has no project for the app id.
	ErrNoProject = errors.New("sde: no project found for application")
	// ErrSurveyIncomplete means the project survey was never finished, so
	// the countermeasure list is not trustworthy yet.
	ErrSurveyIncomplete = errors.New("sde: project survey incomplete")
)

// Config holds SD Elements connection settings.
type Config struct {
	BaseURL    string
	Token      string
	CACertFile string
	Timeout    time.Duration
}

// Client is an authenticated SD Elements API client.
type Client struct {
	api *apiclient.Client
}

// NewClient builds a token-authenticated client.
func NewClient(cfg Config) (*Client, error) {
	apiCfg := apiclient.DefaultConfig()
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.CACertFile = cfg.CACertFile
	apiCfg.Headers = map[string]string{
		"Authorization": "Token " + cfg.Token,
	}
	if cfg.Timeout > 0 {
		apiCfg.Timeout = cfg.Timeout
	}
	api, err := apiclient.New(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("sde: building client: %w", err)
	}
	return &Client{api: api}, nil
}

// ProjectsByAppID returns the projects tied to an application, newest
// first, so index zero is the active project.
func (c *Client) ProjectsByAppID(ctx context.Context, appID string) ([]Project, error) {
	var out struct {
		Results []Project `json:"results"`
	}
	path := fmt.Sprintf("/api/v2/projects/?application=%s&ordering=-created",
		url.QueryEscape(appID))
	if err := c.api.GetJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("sde: listing projects for app %s: %w", appID, err)
	}
	return out.Results, nil
}

// PolicyByID fetches a risk policy.
func (c *Client) PolicyByID(ctx context.Context, id int) (Policy, error) {
	var policy Policy
	path := fmt.Sprintf("/api/v2/risk-policies/%d/", id)
	if err := c.api.GetJSON(ctx, path, &policy); err != nil {
		return Policy{}, fmt.Errorf("sde: fetching risk policy %d: %w", id, err)
	}
	return policy, nil
}

// Countermeasures fetches every countermeasure for a project, following
// pagination until the API returns an empty page.
func (c *Client) Countermeasures(ctx context.Context, projectID int) ([]Countermeasure, error) {
	cms, err := apiclient.CollectPages(ctx, func(ctx context.Context, page int) ([]Countermeasure, error) {
		var out struct {
			Results []Countermeasure `json:"results"`
		}
		path := fmt.Sprintf("/api/v2/projects/%d/countermeasures/?page=%d", projectID, page)
		if err := c.api.GetJSON(ctx, path, &out); err != nil {
			return nil, err
		}
		return out.Results, nil
	})
	if err != nil {
		return nil, fmt.Errorf("sde: fetching countermeasures for project %d: %w", projectID, err)
	}
	return cms, nil
}

// GateData gathers everything the gate check needs for one application.
// It returns ErrNoProject when the app has no project, and
// ErrSurveyIncomplete when the newest project's survey is unfinished.
func (c *Client) GateData(ctx context.Context, appID string) (Project, Policy, CountermeasureSummary, error) {
	projects, err := c.ProjectsByAppID(ctx, appID)
	if err != nil {
		return Project{}, Policy{}, CountermeasureSummary{}, err
	}
	if len(projects) == 0 {
		return Project{}, Policy{}, CountermeasureSummary{},
			fmt.Errorf("app id %s: %w", appID, ErrNoProject)
	}
	project := projects[0]
	if !project.SurveyComplete {
		return Project{}, Policy{}, CountermeasureSummary{},
			fmt.Errorf("project %s: %w", project.Name, ErrSurveyIncomplete)
	}

	policy, err := c.PolicyByID(ctx, project.RiskPolicy)
	if err != nil {
		return Project{}, Policy{}, CountermeasureSummary{}, err
	}
	countermeasures, err := c.Countermeasures(ctx, project.ID)
	if err != nil {
		return Project{}, Policy{}, CountermeasureSummary{}, err
	}
	return project, policy, Summarize(countermeasures), nil
}
