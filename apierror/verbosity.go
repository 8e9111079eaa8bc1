package apierror

import "fmt"

// Verbosity controls how much of an error's content is serialized into the
// HTTP response body. It never changes which status code or which error kind
// a given failure produces; it is applied exactly once, at the response
// boundary, by Render.
//
// Verbosity is process-wide configuration and must not change after startup.
type Verbosity int

const (
	// VerbosityNone suppresses everything, including the real status code:
	// every failure renders as 204 with an empty body. This hides even the
	// fact that an error occurred from a traffic-shape perspective; callers
	// adopting it should document that trade-off.
	VerbosityNone Verbosity = iota
	// VerbosityStatusOnly renders the kind's status code with an empty body.
	VerbosityStatusOnly
	// VerbosityMessage renders the status code plus the kind's fixed summary
	// message, with no internal detail.
	VerbosityMessage
	// VerbosityTypeOnly renders the status code plus a structured
	// {type, message} body with sensitive detail cleared.
	VerbosityTypeOnly
	// VerbosityFull renders the status code plus a structured
	// {type, message, error} body including the detailed reason.
	VerbosityFull
)

// ParseVerbosity maps a configuration string to a Verbosity. Accepted values
// are "none", "status", "message", "type" and "full".
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "none":
		return VerbosityNone, nil
	case "status":
		return VerbosityStatusOnly, nil
	case "message":
		return VerbosityMessage, nil
	case "type":
		return VerbosityTypeOnly, nil
	case "full":
		return VerbosityFull, nil
	}
	return 0, fmt.Errorf("unknown error verbosity %q", s)
}

func (v Verbosity) String() string {
	switch v {
	case VerbosityNone:
		return "none"
	case VerbosityStatusOnly:
		return "status"
	case VerbosityMessage:
		return "message"
	case VerbosityTypeOnly:
		return "type"
	case VerbosityFull:
		return "full"
	}
	return fmt.Sprintf("verbosity(%d)", int(v))
}
