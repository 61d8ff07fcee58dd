// Command gatecheck runs the CI/CD security gates: the Aqua image gate,
// the SD Elements countermeasure gate, Aqua customer onboarding, and a
// standalone template renderer for pipeline debugging.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cato-services/gatecheck/pkg/aqua"
	"github.com/cato-services/gatecheck/pkg/config"
	"github.com/cato-services/gatecheck/pkg/exitcode"
	"github.com/cato-services/gatecheck/pkg/gate"
	"github.com/cato-services/gatecheck/pkg/ghactions"
	"github.com/cato-services/gatecheck/pkg/sde"
	"github.com/cato-services/gatecheck/pkg/template"
	"github.com/cato-services/gatecheck/pkg/ui"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitcode.RequestError.Int())
	}

	switch os.Args[1] {
	case "aqua":
		runAquaGate(os.Args[2:])
	case "sde":
		runSDEGate(os.Args[2:])
	case "onboard":
		runOnboard(os.Args[2:])
	case "render":
		runRender(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "gatecheck: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(exitcode.RequestError.Int())
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: gatecheck <command> [flags]

Commands:
  aqua     Run the Aqua image gate check for a build's images
  sde      Run the SD Elements countermeasure gate check
  onboard  Provision a new customer team in Aqua
  render   Render a template file against a YAML bindings file

Run 'gatecheck <command> -h' for command flags.
`)
}

// fail prints the error and exits with the request-error code.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "gatecheck:", err)
	os.Exit(exitcode.RequestError.Int())
}

// annotate logs a failed annotation write; the gate verdict still stands.
func annotate(err error) {
	if err != nil {
		log.Printf("gatecheck: %v", err)
	}
}

// writeStepSummary posts Markdown to the workflow summary. Outside of a
// workflow step the summary goes to stdout instead so local runs still
// show it.
func writeStepSummary(markdown string) {
	err := ghactions.AppendStepSummary(markdown)
	if errors.Is(err, ghactions.ErrNoSummaryFile) {
		fmt.Fprintln(os.Stdout, markdown)
		return
	}
	if err != nil {
		log.Printf("gatecheck: %v", err)
	}
}

func runAquaGate(args []string) {
	flags := flag.NewFlagSet("aqua", flag.ExitOnError)
	configPath := flags.String("config", "", "path to gatecheck YAML config")
	imagesPath := flags.String("images", "", "path to JSON file listing the build's images")
	flags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if err := cfg.ValidateAqua(); err != nil {
		fail(err)
	}
	images, err := loadImages(*imagesPath)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	client, err := aqua.NewClient(ctx, aqua.Config{
		BaseURL:    cfg.Aqua.URL,
		Username:   cfg.Aqua.Username,
		Password:   cfg.Aqua.Password,
		Registry:   cfg.Aqua.Registry,
		CACertFile: cfg.CACertFile,
	})
	if err != nil {
		fail(err)
	}

	result, err := gate.CheckImages(ctx, client, images)
	if err != nil {
		fail(err)
	}
	summary, err := gate.RenderSummary(result.Reports, gate.SummaryConfig{
		AquaBaseURL:    cfg.Aqua.URL,
		Registry:       cfg.Aqua.Registry,
		RegistryPrefix: cfg.Aqua.RegistryPrefix,
	})
	if err != nil {
		fail(err)
	}
	writeStepSummary(summary)
	ui.PrintGateResult(os.Stdout, result)

	if result.Failed {
		annotate(ghactions.NewAnnotator(os.Stdout).Error(fmt.Sprintf(
			"Aqua gate check failed. Review the gate check summary at %s.", cfg.BuildURL)))
		os.Exit(exitcode.GateFailed.Int())
	}
	os.Exit(exitcode.Success.Int())
}

// loadImages reads the build's image list, a JSON array of objects with
// name, tag and digest fields.
func loadImages(path string) ([]aqua.Image, error) {
	if path == "" {
		return nil, errors.New("-images is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading images file: %w", err)
	}
	var images []aqua.Image
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("parsing images file: %w", err)
	}
	if len(images) == 0 {
		return nil, errors.New("images file lists no images")
	}
	return images, nil
}

func runSDEGate(args []string) {
	flags := flag.NewFlagSet("sde", flag.ExitOnError)
	configPath := flags.String("config", "", "path to gatecheck YAML config")
	appID := flags.String("app-id", "", "application id the SD Elements project is keyed on")
	flags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if err := cfg.ValidateSDE(); err != nil {
		fail(err)
	}
	if *appID == "" {
		fail(errors.New("-app-id is required"))
	}
	crm, err := loadCRMData()
	if err != nil {
		fail(err)
	}

	client, err := sde.NewClient(sde.Config{
		BaseURL:    cfg.SDE.URL,
		Token:      cfg.SDE.Token,
		CACertFile: cfg.CACertFile,
		Timeout:    cfg.Timeout(),
	})
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	project, policy, summary, err := client.GateData(ctx, *appID)
	switch {
	case errors.Is(err, sde.ErrNoProject):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.NoProject.Int())
	case errors.Is(err, sde.ErrSurveyIncomplete):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.SurveyIncomplete.Int())
	case err != nil:
		fail(err)
	}

	outcome, err := sde.Evaluate(project, policy, summary, crm, cfg.BuildURL, time.Now().UTC())
	if err != nil {
		fail(err)
	}

	writeStepSummary(outcome.Summary)
	annotator := ghactions.NewAnnotator(os.Stdout)
	if outcome.Warning != "" {
		annotate(annotator.Warning(outcome.Warning))
	}
	if outcome.Error != "" {
		annotate(annotator.Error(outcome.Error))
	}
	os.Exit(outcome.Code.Int())
}

// loadCRMData parses the CRM_DATA JSON document the pipeline injects.
// Absent or empty means no policy windows are configured.
func loadCRMData() (sde.CRMData, error) {
	raw := os.Getenv("CRM_DATA")
	if raw == "" {
		return sde.CRMData{}, nil
	}
	var crm sde.CRMData
	if err := json.Unmarshal([]byte(raw), &crm); err != nil {
		return sde.CRMData{}, fmt.Errorf("parsing CRM_DATA: %w", err)
	}
	return crm, nil
}

func runOnboard(args []string) {
	flags := flag.NewFlagSet("onboard", flag.ExitOnError)
	configPath := flags.String("config", "", "path to gatecheck YAML config")
	repo := flags.String("repo", "", "GitHub repository name, becomes the scope name")
	ownerEmail := flags.String("owner-email", "", "email that owns the application scope")
	team := flags.String("team", "", "GitHub team name")
	org := flags.String("org", "", "GitHub organization")
	cluster := flags.String("cluster", "", "Kubernetes cluster the team deploys to")
	flags.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if err := cfg.ValidateAqua(); err != nil {
		fail(err)
	}
	for name, value := range map[string]string{
		"-repo": *repo, "-owner-email": *ownerEmail,
		"-team": *team, "-org": *org, "-cluster": *cluster,
	} {
		if value == "" {
			fail(fmt.Errorf("%s is required", name))
		}
	}

	ctx := context.Background()
	client, err := aqua.NewClient(ctx, aqua.Config{
		BaseURL:    cfg.Aqua.URL,
		Username:   cfg.Aqua.Username,
		Password:   cfg.Aqua.Password,
		Registry:   cfg.Aqua.Registry,
		CACertFile: cfg.CACertFile,
	})
	if err != nil {
		fail(err)
	}

	err = client.OnboardCustomer(ctx, aqua.OnboardConfig{
		RepoName:   *repo,
		OwnerEmail: *ownerEmail,
		TeamName:   *team,
		Org:        *org,
		Cluster:    *cluster,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("onboarded %s/%s with scope %s\n", *org, *team, *repo)
}

func runRender(args []string) {
	flags := flag.NewFlagSet("render", flag.ExitOnError)
	templatePath := flags.String("template", "", "path to the template file")
	bindingsPath := flags.String("bindings", "", "path to a YAML bindings file")
	flags.Parse(args)

	if *templatePath == "" || *bindingsPath == "" {
		fail(errors.New("-template and -bindings are required"))
	}
	text, err := os.ReadFile(*templatePath)
	if err != nil {
		fail(err)
	}
	data, err := os.ReadFile(*bindingsPath)
	if err != nil {
		fail(err)
	}
	bindings, err := template.ParseYAML(data)
	if err != nil {
		fail(err)
	}
	rendered, err := template.Render(string(text), bindings)
	if err != nil {
		fail(err)
	}
	fmt.Print(rendered)
}
