package imgto3d

import "errors"

var (
	// ErrValidation wraps every precondition failure detected before spawning.
	ErrValidation = errors.New("invalid request")
	// ErrMissingCredential indicates the API key is empty.
	ErrMissingCredential = errors.New("api key is empty")
	// ErrInputImageNotFound indicates the input image is empty or not a file.
	ErrInputImageNotFound = errors.New("input image not found")
	// ErrOutputDirNotFound indicates the output directory is empty or not a directory.
	ErrOutputDirNotFound = errors.New("output directory not found")
	// ErrScriptNotFound indicates the connector script is not a file.
	ErrScriptNotFound = errors.New("script not found")
	// ErrLaunch indicates the interpreter could not be resolved or started.
	ErrLaunch = errors.New("process launch failed")
	// ErrTimeout indicates the child was killed after the configured timeout.
	ErrTimeout = errors.New("process timed out")
)

// UserMessage turns an Invoke error into the notification shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "Please enter your Stability AI API key."
	case errors.Is(err, ErrInputImageNotFound):
		return "Please select a valid input image."
	case errors.Is(err, ErrOutputDirNotFound):
		return "Please select a valid output directory."
	case errors.Is(err, ErrScriptNotFound):
		return "Python script not found. Please ensure the script is in the correct location."
	default:
		return "Error: " + err.Error()
	}
}

// ErrorKind labels an Invoke error for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrLaunch):
		return "launch_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
