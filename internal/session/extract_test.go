package session

import (
	"context"
	"net/http"
	"testing"
	"time"

	"scoutpulse-platform/internal/autherr"
)

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"plain bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"surrounding space", "  Bearer abc  ", "abc"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwdw==", ""},
		{"prefix only", "Bearer ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.header != "" {
				h.Set("Authorization", tc.header)
			}
			if got := ExtractBearer(h); got != tc.want {
				t.Errorf("ExtractBearer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractCookie(t *testing.T) {
	h := http.Header{}
	h.Set("Cookie", "theme=dark; access_token=tok-123; lang=en")

	if got := ExtractCookie(h, ""); got != "tok-123" {
		t.Errorf("default cookie = %q", got)
	}
	if got := ExtractCookie(h, "lang"); got != "en" {
		t.Errorf("named cookie = %q", got)
	}
	if got := ExtractCookie(h, "missing"); got != "" {
		t.Errorf("missing cookie = %q", got)
	}
	if got := ExtractCookie(http.Header{}, ""); got != "" {
		t.Errorf("no cookie header = %q", got)
	}
}

func TestExtractTokenPrefersBearer(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer from-header")
	h.Set("Cookie", "access_token=from-cookie")

	if got := ExtractToken(h); got != "from-header" {
		t.Errorf("ExtractToken = %q, want bearer to win", got)
	}

	h.Del("Authorization")
	if got := ExtractToken(h); got != "from-cookie" {
		t.Errorf("ExtractToken = %q, want cookie fallback", got)
	}
}

func TestRequireSession(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	tok := makeToken(t, "user-1", now.Add(10*time.Minute))

	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)

	sess, user, err := RequireSession(context.Background(), h, acceptingValidator(now), frozenConfig(now))
	if err != nil {
		t.Fatalf("err = %+v", err)
	}
	if sess == nil || user == nil || user.ID != "user-1" {
		t.Fatalf("sess=%+v user=%+v", sess, user)
	}
}

func TestRequireSessionMissingToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	_, _, err := RequireSession(context.Background(), http.Header{}, acceptingValidator(now), frozenConfig(now))
	if err == nil || err.Kind != autherr.KindTokenMissing {
		t.Fatalf("err = %+v", err)
	}
}

func TestRequireSessionNeverLeaksRawBackendError(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	v := &fakeValidator{validateFn: func(string) (ValidationResult, error) {
		return ValidationResult{}, context.DeadlineExceeded
	}}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+makeToken(t, "u", now.Add(10*time.Minute)))

	_, _, err := RequireSession(context.Background(), h, v, frozenConfig(now))
	if err == nil {
		t.Fatalf("expected error")
	}
	if err.Kind != autherr.KindServerError {
		t.Fatalf("raw backend error leaked with kind %v", err.Kind)
	}
	if err.Response().Error.Message != autherr.KindServerError.Message() {
		t.Fatalf("response message must stay generic, got %q", err.Response().Error.Message)
	}
}
