// Package exitcode provides semantic exit codes for CI/CD integration.
// The pipeline steps that wrap the gate checks branch on these values, so
// they are contract, not convention.
//
// Exit codes:
//   - 0: gate passed
//   - 1: a scan-service request failed
//   - 99: gate failed (policy disallowed the build)
//   - 150: no SD Elements project found for the application
//   - 151: SD Elements project survey incomplete
package exitcode

// Code is a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the gate check passed.
	Success Code = 0
	// RequestError indicates a scan-service API request failed.
	RequestError Code = 1
	// GateFailed indicates the gate policy disallowed the build.
	GateFailed Code = 99
	// NoProject indicates no SD Elements project exists for the app id.
	NoProject Code = 150
	// SurveyIncomplete indicates the SD Elements project survey is not done.
	SurveyIncomplete Code = 151
)

// codeStrings maps exit codes to short machine-readable names.
var codeStrings = map[Code]string{
	Success:          "success",
	RequestError:     "request_error",
	GateFailed:       "gate_failed",
	NoProject:        "no_project",
	SurveyIncomplete: "survey_incomplete",
}

// codeDescriptions provides human-readable descriptions.
var codeDescriptions = map[Code]string{
	Success:          "Gate check passed",
	RequestError:     "A scan-service API request failed",
	GateFailed:       "Gate policy disallowed the build",
	NoProject:        "No SD Elements project found for the application id",
	SurveyIncomplete: "SD Elements project survey is incomplete",
}

// String returns the short name for the code, or "unknown".
func (c Code) String() string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return "unknown"
}

// Describe returns the human-readable description for the code.
func (c Code) Describe() string {
	if s, ok := codeDescriptions[c]; ok {
		return s
	}
	return "Unknown exit code"
}

// Int returns the code as the value passed to os.Exit.
func (c Code) Int() int { return int(c) }
