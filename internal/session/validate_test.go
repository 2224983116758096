package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"scoutpulse-platform/internal/autherr"
)

func TestValidateMissingToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	result := Validate(context.Background(), "", acceptingValidator(now), frozenConfig(now))
	if result.Valid {
		t.Fatalf("empty token validated")
	}
	if result.Err.Kind != autherr.KindTokenMissing {
		t.Fatalf("err kind = %v", result.Err.Kind)
	}
}

func TestValidateMalformedToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	result := Validate(context.Background(), "x.y", acceptingValidator(now), frozenConfig(now))
	if result.Err == nil || result.Err.Kind != autherr.KindTokenInvalid {
		t.Fatalf("err = %+v", result.Err)
	}
	if result.IsExpired {
		t.Fatalf("malformed is invalid, not expired")
	}
}

func TestValidateExpiredTokenShortCircuits(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	called := false
	v := &fakeValidator{validateFn: func(string) (ValidationResult, error) {
		called = true
		return ValidationResult{Valid: true}, nil
	}}

	tok := makeToken(t, "u", now.Add(-time.Second))
	result := Validate(context.Background(), tok, v, frozenConfig(now))
	if !result.IsExpired {
		t.Fatalf("expected expired result")
	}
	if result.Err.Kind != autherr.KindTokenExpired {
		t.Fatalf("err kind = %v", result.Err.Kind)
	}
	if called {
		t.Fatalf("backend must not be consulted for a locally-expired token")
	}
}

func TestValidateNormalizesPortFailure(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	v := &fakeValidator{validateFn: func(string) (ValidationResult, error) {
		return ValidationResult{}, errors.New("backend unreachable")
	}}

	tok := makeToken(t, "u", now.Add(10*time.Minute))
	result := Validate(context.Background(), tok, v, frozenConfig(now))
	if result.Valid {
		t.Fatalf("port failure validated")
	}
	if result.Err.Kind != autherr.KindServerError {
		t.Fatalf("raw backend error must normalize to server kind, got %v", result.Err.Kind)
	}
}

func TestValidateBackendRejectionWithoutErrorGetsDefault(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	v := &fakeValidator{validateFn: func(string) (ValidationResult, error) {
		return ValidationResult{Valid: false}, nil
	}}

	tok := makeToken(t, "u", now.Add(10*time.Minute))
	result := Validate(context.Background(), tok, v, frozenConfig(now))
	if result.Err == nil || result.Err.Kind != autherr.KindSessionInvalid {
		t.Fatalf("err = %+v", result.Err)
	}
}

func TestValidateByID(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	u := testUser()
	cfg := frozenConfig(now)

	live := &Session{
		ID: "sess-1", UserID: u.ID,
		ExpiresAt:      now.Add(time.Hour),
		LastActivityAt: now.Add(-time.Minute),
	}
	v := &fakeValidator{
		sessions: map[string]*Session{"sess-1": live},
		users:    map[string]*User{u.ID: u},
	}

	result := ValidateByID(context.Background(), "sess-1", v, cfg)
	if !result.Valid || result.User.ID != u.ID {
		t.Fatalf("result = %+v err=%+v", result, result.Err)
	}

	if r := ValidateByID(context.Background(), "", v, cfg); r.Err.Kind != autherr.KindSessionNotFound {
		t.Errorf("empty id: %v", r.Err.Kind)
	}
	if r := ValidateByID(context.Background(), "missing", v, cfg); r.Err.Kind != autherr.KindSessionNotFound {
		t.Errorf("unknown id: %v", r.Err.Kind)
	}
}

func TestValidateByIDExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	u := testUser()
	cfg := frozenConfig(now)

	expired := &Session{ID: "s", UserID: u.ID, ExpiresAt: now.Add(-time.Second), LastActivityAt: now}
	inactive := &Session{ID: "s", UserID: u.ID, ExpiresAt: now.Add(time.Hour), LastActivityAt: now.Add(-31 * time.Minute)}

	for name, sess := range map[string]*Session{"absolute expiry": expired, "inactivity": inactive} {
		v := &fakeValidator{sessions: map[string]*Session{"s": sess}, users: map[string]*User{u.ID: u}}
		r := ValidateByID(context.Background(), "s", v, cfg)
		if !r.IsExpired || r.Err.Kind != autherr.KindSessionExpired {
			t.Errorf("%s: result = %+v err=%+v", name, r, r.Err)
		}
	}
}

func TestValidateByIDOrphanedSession(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	sess := &Session{ID: "s", UserID: "gone", ExpiresAt: now.Add(time.Hour), LastActivityAt: now}
	v := &fakeValidator{sessions: map[string]*Session{"s": sess}, users: map[string]*User{}}

	r := ValidateByID(context.Background(), "s", v, frozenConfig(now))
	if r.Valid || r.Err.Kind != autherr.KindSessionNotFound {
		t.Fatalf("result = %+v err=%+v", r, r.Err)
	}
}

func TestValidateByIDFlagsRefreshNearExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	u := testUser()
	sess := &Session{ID: "s", UserID: u.ID, ExpiresAt: now.Add(3 * time.Minute), LastActivityAt: now}
	v := &fakeValidator{sessions: map[string]*Session{"s": sess}, users: map[string]*User{u.ID: u}}

	r := ValidateByID(context.Background(), "s", v, frozenConfig(now))
	if !r.Valid || !r.ShouldRefresh {
		t.Fatalf("result = %+v", r)
	}
}
