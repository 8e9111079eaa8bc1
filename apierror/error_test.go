package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusAndSummaryFixedPerKind(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindMissingCredential, http.StatusUnauthorized},
		{KindMalformedCredential, http.StatusUnauthorized},
		{KindDecodeFailure, http.StatusUnauthorized},
		{KindInvalidCredential, http.StatusForbidden},
		{KindTokenExpired, http.StatusUnauthorized},
		{KindTokenInvalid, http.StatusUnauthorized},
		{KindInsufficientRole, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		e := New(tc.kind, "")
		if got := e.Status(); got != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.kind, got, tc.status)
		}
		if e.Summary() == "" {
			t.Errorf("%s: empty summary", tc.kind)
		}
	}
}

func TestRenderStatusInvariantAcrossVerbosity(t *testing.T) {
	e := New(KindTokenInvalid, "audience mismatch")
	for _, v := range []Verbosity{VerbosityStatusOnly, VerbosityMessage, VerbosityTypeOnly, VerbosityFull} {
		resp := Render(e, v)
		if resp.Status != http.StatusUnauthorized {
			t.Errorf("verbosity %s: status = %d, want 401", v, resp.Status)
		}
	}
}

func TestRenderNone(t *testing.T) {
	resp := Render(New(KindInvalidCredential, "nope"), VerbosityNone)
	if resp.Status != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.Status)
	}
	if len(resp.Body) != 0 {
		t.Fatalf("expected empty body, got %q", resp.Body)
	}
}

func TestRenderStatusOnly(t *testing.T) {
	resp := Render(New(KindMissingCredential, ""), VerbosityStatusOnly)
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Status)
	}
	if len(resp.Body) != 0 {
		t.Fatalf("expected empty body, got %q", resp.Body)
	}
}

func TestRenderMessage(t *testing.T) {
	e := New(KindDecodeFailure, "illegal base64 data")
	resp := Render(e, VerbosityMessage)

	var got struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Detail  string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Message != e.Summary() {
		t.Errorf("message = %q, want %q", got.Message, e.Summary())
	}
	if got.Type != "" || got.Detail != "" {
		t.Errorf("message verbosity leaked type/detail: %+v", got)
	}
}

func TestRenderTypeOnlyClearsDetail(t *testing.T) {
	e := New(KindTokenInvalid, "kid not present in key set")
	resp := Render(e, VerbosityTypeOnly)

	var got struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Detail  string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != string(KindTokenInvalid) {
		t.Errorf("type = %q, want %q", got.Type, KindTokenInvalid)
	}
	if got.Detail != "" {
		t.Errorf("detail leaked at type verbosity: %q", got.Detail)
	}
}

func TestRenderFullIncludesDetail(t *testing.T) {
	e := New(KindTokenInvalid, "audience mismatch")
	resp := Render(e, VerbosityFull)

	var got struct {
		Type   string `json:"type"`
		Detail string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Detail != "audience mismatch" {
		t.Errorf("detail = %q, want audience mismatch", got.Detail)
	}
}

func TestRenderChallengeHeader(t *testing.T) {
	e := New(KindTokenExpired, "").WithScheme(SchemeBearer)
	resp := Render(e, VerbosityMessage)
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q, want Bearer", got)
	}

	// The None verbosity hides the challenge too.
	resp = Render(e, VerbosityNone)
	if got := resp.Header.Get("WWW-Authenticate"); got != "" {
		t.Fatalf("WWW-Authenticate leaked at none verbosity: %q", got)
	}
}

func TestWriteTo(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteTo(rec, New(KindInvalidCredential, "unknown key").WithScheme(SchemeBasic), VerbosityFull)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != "Basic" {
		t.Fatalf("WWW-Authenticate = %q, want Basic", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(KindInternal, "", cause)
	if !errors.Is(e, cause) {
		t.Fatalf("expected errors.Is to find cause")
	}
	if e.Detail != "boom" {
		t.Fatalf("detail = %q, want cause text", e.Detail)
	}
}

func TestParseVerbosity(t *testing.T) {
	for s, want := range map[string]Verbosity{
		"none":    VerbosityNone,
		"status":  VerbosityStatusOnly,
		"message": VerbosityMessage,
		"type":    VerbosityTypeOnly,
		"full":    VerbosityFull,
	} {
		got, err := ParseVerbosity(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if got != want {
			t.Errorf("parse %q = %v, want %v", s, got, want)
		}
		if got.String() != s {
			t.Errorf("roundtrip %q -> %q", s, got.String())
		}
	}
	if _, err := ParseVerbosity("verbose"); err == nil {
		t.Fatalf("expected error for unknown verbosity")
	}
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	if s == nil || s.Properties == nil {
		t.Fatalf("expected reflected schema")
	}
	for _, name := range []string{"type", "message"} {
		if _, ok := s.Properties.Get(name); !ok {
			t.Errorf("schema missing property %q", name)
		}
	}
}
