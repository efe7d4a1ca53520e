package imgto3d

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Outcome labels used in logs and metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
)

// Result is the outcome of one invocation. It is one of Success, Failure or
// MalformedResponse.
type Result interface {
	// Status returns the one-line human-readable status.
	Status() string
	// Outcome returns one of the Outcome* labels.
	Outcome() string

	isResult()
}

// Success means the connector reported a generated model.
type Success struct {
	Message    string
	OutputPath string
}

func (s Success) Status() string  { return s.Message }
func (s Success) Outcome() string { return OutcomeSuccess }
func (Success) isResult()         {}

// Failure covers a non-zero exit code, any diagnostic output, or a response
// whose success flag is false.
type Failure struct {
	// ErrorText is the diagnostic buffer verbatim, every line ending in "\n",
	// or the envelope's error field. Trim it before showing it inline.
	ErrorText string
	Details   string
}

func (f Failure) Status() string  { return "Error: " + f.ErrorText }
func (f Failure) Outcome() string { return OutcomeFailure }
func (Failure) isResult()         {}

// MalformedResponse means output was captured but is not a valid response envelope.
type MalformedResponse struct {
	ParseError string
}

func (m MalformedResponse) Status() string  { return "Error parsing response: " + m.ParseError }
func (m MalformedResponse) Outcome() string { return OutcomeMalformed }
func (MalformedResponse) isResult()         {}

// Response is the JSON envelope printed by a connector on stdout.
type Response struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
	// LegacyOutputPath accepts the snake_case key older connector scripts emit.
	LegacyOutputPath string `json:"output_path,omitempty"`
	Details          string `json:"details,omitempty"`
}

// Path returns the produced artifact path, preferring outputPath.
func (r Response) Path() string {
	if r.OutputPath != "" {
		return r.OutputPath
	}

	return r.LegacyOutputPath
}

const responseSchema = `{
  "type": "object",
  "properties": {
    "success":     {"type": "boolean"},
    "message":     {"type": ["string", "null"]},
    "error":       {"type": ["string", "null"]},
    "outputPath":  {"type": ["string", "null"]},
    "output_path": {"type": ["string", "null"]},
    "details":     {"type": ["string", "null"]}
  },
  "required": ["success"]
}`

var loadResponseSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
})

// deriveResult turns captured streams and the exit code into a Result.
// Diagnostics on stderr are a failure even when the exit code is zero.
func deriveResult(stdout, stderr string, exitCode int) Result {
	if exitCode != 0 || stderr != "" {
		return Failure{ErrorText: stderr}
	}

	resp, err := decodeResponse([]byte(stdout))
	if err != nil {
		return MalformedResponse{ParseError: err.Error()}
	}

	if resp.Success {
		return Success{Message: resp.Message, OutputPath: resp.Path()}
	}

	return Failure{ErrorText: resp.Error, Details: resp.Details}
}

func decodeResponse(data []byte) (Response, error) {
	schema, err := loadResponseSchema()
	if err != nil {
		return Response{}, fmt.Errorf("load response schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, err := range result.Errors() {
			errs = append(errs, err.String())
		}

		return Response{}, fmt.Errorf("response does not match schema: %s", strings.Join(errs, "; "))
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	return resp, nil
}
