package aqua

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cato-services/gatecheck/pkg/apiclient"
)

// ErrGlobalScope is returned when a role would be created against the
// Global scope, which would grant access to every team's findings.
var ErrGlobalScope = errors.New("aqua: cannot create role with global scope")

// OnboardConfig describes a new customer team to provision in Aqua.
type OnboardConfig struct {
	// RepoName is the GitHub repository name; it becomes the scope name.
	RepoName string

	// OwnerEmail receives ownership of the application scope.
	OwnerEmail string

	// TeamName is the GitHub team; it prefixes the role name and the
	// production namespace.
	TeamName string

	// Org is the GitHub organization used in the OIDC role mapping.
	Org string

	// Cluster is the Kubernetes cluster the team's workloads run on.
	Cluster string
}

// Variable is one attribute constraint in a scope expression.
type Variable struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Expression pairs a boolean expression with the variables it references.
type Expression struct {
	Expression string     `json:"expression"`
	Variables  []Variable `json:"variables"`
}

// Categories groups scope expressions by what they constrain.
type Categories struct {
	Artifacts map[string]Expression `json:"artifacts"`
	Workloads map[string]Expression `json:"workloads"`
}

// Scope is an Aqua application scope.
type Scope struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerEmail  string     `json:"owner_email"`
	Categories  Categories `json:"categories"`
}

// Role is an Aqua access-management role.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permission  string   `json:"permission"`
	Scopes      []string `json:"scopes"`
}

// CustomerScope builds the application scope covering image and container
// scanning for one repository.
func CustomerScope(cfg OnboardConfig) Scope {
	namespace := cfg.TeamName + "-prod"
	return Scope{
		Name: cfg.RepoName,
		Description: fmt.Sprintf(
			"This scope covers image and container scanning for the %s repository.",
			cfg.RepoName,
		),
		OwnerEmail: cfg.OwnerEmail,
		Categories: Categories{
			Artifacts: map[string]Expression{
				"image": {
					Expression: "v1 && v2",
					Variables: []Variable{
						{Attribute: "aqua.registry", Value: "*"},
						{Attribute: "image.repo", Value: fmt.Sprintf("*/%s/*", cfg.RepoName)},
					},
				},
			},
			Workloads: map[string]Expression{
				"kubernetes": {
					Expression: "v1 && v2",
					Variables: []Variable{
						{Attribute: "kubernetes.cluster", Value: cfg.Cluster},
						{Attribute: "kubernetes.namespace", Value: namespace},
					},
				},
			},
		},
	}
}

// CustomerRole builds the vulnerability-operator role for a team over one
// scope. The Global scope is rejected outright.
func CustomerRole(teamName, scope string) (Role, error) {
	if strings.EqualFold(scope, "global") {
		return Role{}, ErrGlobalScope
	}
	return Role{
		Name: RoleName(teamName),
		Description: fmt.Sprintf(
			"This role enables the %s team to access and manage vulnerability "+
				"scan results for images and containers that are discovered from "+
				"all associated Application Scopes",
			teamName,
		),
		Permission: "Vulnerability Operator",
		Scopes:     []string{scope},
	}, nil
}

// RoleName returns the conventional role name for a team.
func RoleName(teamName string) string {
	return teamName + "-vulnerability_operator"
}

// CreateScope registers a new application scope.
func (c *Client) CreateScope(ctx context.Context, scope Scope) error {
	return c.api.PostJSON(ctx, "/api/v2/access_management/scopes", scope, nil)
}

// Role fetches an existing role by name.
func (c *Client) Role(ctx context.Context, name string) (Role, error) {
	var role Role
	err := c.api.GetJSON(ctx, "/api/v2/access_management/roles/"+name, &role)
	return role, err
}

// CreateRole registers a new role.
func (c *Client) CreateRole(ctx context.Context, role Role) error {
	return c.api.PostJSON(ctx, "/api/v2/access_management/roles", role, nil)
}

// UpdateRole replaces an existing role definition.
func (c *Client) UpdateRole(ctx context.Context, role Role) error {
	return c.api.PutJSON(ctx, "/api/v2/access_management/roles/"+role.Name, role, nil)
}

const authSettingsPath = "/api/v1/settings/OIDCSettings/OpenIdSettings"

// AuthSettings fetches the console's OIDC settings. The document is kept
// as a loose map so updates round-trip fields this client does not model.
func (c *Client) AuthSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := c.api.GetJSON(ctx, authSettingsPath, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateAuthSettings writes the OIDC settings document back.
func (c *Client) UpdateAuthSettings(ctx context.Context, settings map[string]any) error {
	return c.api.PutJSON(ctx, authSettingsPath, settings, nil)
}

// OnboardCustomer provisions everything a new team needs: an application
// scope, a vulnerability-operator role over it, and an OIDC role mapping
// from the team's GitHub group. Each step tolerates partial prior runs:
// an existing scope is left alone, and an existing role is extended with
// the new scope instead of replaced.
func (c *Client) OnboardCustomer(ctx context.Context, cfg OnboardConfig) error {
	scope := CustomerScope(cfg)
	err := apiclient.On404(
		func() error { return c.CreateScope(ctx, scope) },
		func() error {
			log.Printf("aqua: scope %s already exists", scope.Name)
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("aqua: creating scope %s: %w", scope.Name, err)
	}

	role, err := CustomerRole(cfg.TeamName, scope.Name)
	if err != nil {
		return err
	}
	err = apiclient.On404(
		func() error { return c.CreateRole(ctx, role) },
		func() error { return c.extendRole(ctx, role) },
	)
	if err != nil {
		return fmt.Errorf("aqua: creating role %s: %w", role.Name, err)
	}

	settings, err := c.AuthSettings(ctx)
	if err != nil {
		return fmt.Errorf("aqua: fetching auth settings: %w", err)
	}
	mapping, _ := settings["role_mapping"].(map[string]any)
	if mapping == nil {
		mapping = map[string]any{}
	}
	mapping[role.Name] = []string{cfg.Org + "/" + cfg.TeamName}
	settings["role_mapping"] = mapping
	if err := c.UpdateAuthSettings(ctx, settings); err != nil {
		return fmt.Errorf("aqua: updating auth settings: %w", err)
	}
	return nil
}

// extendRole merges an existing role's scopes into the new definition and
// writes it back.
func (c *Client) extendRole(ctx context.Context, role Role) error {
	existing, err := c.Role(ctx, role.Name)
	if err != nil {
		return err
	}
	role.Scopes = append(role.Scopes, existing.Scopes...)
	return c.UpdateRole(ctx, role)
}
