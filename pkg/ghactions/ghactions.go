// Package ghactions writes GitHub Actions outputs: step summaries via the
// GITHUB_STEP_SUMMARY file and annotations via workflow commands on stdout.
package ghactions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// summaryEnv names the file GitHub Actions tails into the job summary.
const summaryEnv = "GITHUB_STEP_SUMMARY"

// ErrNoSummaryFile is returned when GITHUB_STEP_SUMMARY is unset, which
// means the process is not running inside a workflow step.
var ErrNoSummaryFile = errors.New("ghactions: GITHUB_STEP_SUMMARY is not set")

// AppendStepSummary appends Markdown to the step summary file. Appending
// rather than truncating lets several gate checks in one step stack their
// tables.
func AppendStepSummary(markdown string) error {
	path := os.Getenv(summaryEnv)
	if path == "" {
		return ErrNoSummaryFile
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ghactions: opening step summary: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, markdown); err != nil {
		return fmt.Errorf("ghactions: writing step summary: %w", err)
	}
	return nil
}

// Property is one key=value parameter on a workflow command, e.g.
// file=main.go or title=Gate check.
type Property struct {
	Key   string
	Value string
}

// Annotator emits workflow-command annotations. The zero value is not
// usable; construct with NewAnnotator.
type Annotator struct {
	w io.Writer
}

// NewAnnotator writes annotations to w. Pass os.Stdout in a workflow step.
func NewAnnotator(w io.Writer) *Annotator {
	return &Annotator{w: w}
}

// Error emits an ::error:: annotation.
func (a *Annotator) Error(message string, props ...Property) error {
	return a.command("error", message, props)
}

// Warning emits a ::warning:: annotation.
func (a *Annotator) Warning(message string, props ...Property) error {
	return a.command("warning", message, props)
}

// Notice emits a ::notice:: annotation.
func (a *Annotator) Notice(message string, props ...Property) error {
	return a.command("notice", message, props)
}

func (a *Annotator) command(kind, message string, props []Property) error {
	var b strings.Builder
	b.WriteString("::")
	b.WriteString(kind)
	for i, p := range props {
		if i == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(escapeProperty(p.Value))
	}
	b.WriteString("::")
	b.WriteString(escapeData(message))
	b.WriteByte('\n')
	if _, err := io.WriteString(a.w, b.String()); err != nil {
		return fmt.Errorf("ghactions: writing %s annotation: %w", kind, err)
	}
	return nil
}

// escapeData escapes a command message per the workflow-command grammar.
var dataEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
)

func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

// escapeProperty additionally escapes the property delimiters.
var propertyEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
	":", "%3A",
	",", "%2C",
)

func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
