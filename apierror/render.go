package apierror

import (
	"encoding/json"
	"net/http"
)

// Response is the wire-level descriptor produced by Render: everything the
// transport needs to answer the request.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// body is the structured JSON shape used at VerbosityTypeOnly and
// VerbosityFull. At TypeOnly the Detail field is cleared before
// serialization.
type body struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// messageBody is the reduced shape used at VerbosityMessage.
type messageBody struct {
	Message string `json:"message"`
}

// Render produces the HTTP response descriptor for an error under the active
// verbosity. It is total: every (Error, Verbosity) pair yields a usable
// Response, and the status code and kind of a given failure are identical
// across all verbosity levels above VerbosityNone.
func Render(e *Error, v Verbosity) Response {
	if v == VerbosityNone {
		return Response{Status: http.StatusNoContent, Header: http.Header{}}
	}

	resp := Response{Status: e.Status(), Header: http.Header{}}
	if e.Scheme != "" {
		resp.Header.Set("WWW-Authenticate", e.Scheme)
	}

	switch v {
	case VerbosityStatusOnly:
		return resp
	case VerbosityMessage:
		resp.Body = marshal(messageBody{Message: e.Summary()})
	case VerbosityTypeOnly:
		resp.Body = marshal(body{Type: e.Kind, Message: e.Summary()})
	case VerbosityFull:
		resp.Body = marshal(body{Type: e.Kind, Message: e.Summary(), Detail: e.Detail})
	}
	if len(resp.Body) > 0 {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp
}

// WriteTo renders the error and writes it to w.
func WriteTo(w http.ResponseWriter, e *Error, v Verbosity) {
	resp := Render(e, v)
	for k, vals := range resp.Header {
		for _, val := range vals {
			w.Header().Add(k, val)
		}
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// The body shapes are plain string fields; marshalling cannot fail.
		return nil
	}
	return b
}
