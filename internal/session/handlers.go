package session

import (
	"context"

	"scoutpulse-platform/internal/autherr"
)

// Handler reacts to one category of authentication failure.
type Handler func(ctx context.Context, err *autherr.Error)

// Handlers are optional per-category callbacks dispatched by the manager
// when validation or refresh fails. Nil entries are skipped; unmatched
// kinds fall through to OnUnauthorized.
type Handlers struct {
	OnTokenExpired   Handler
	OnTokenInvalid   Handler
	OnSessionExpired Handler
	OnRefreshFailed  Handler
	OnRateLimited    Handler
	OnServerError    Handler
	OnUnauthorized   Handler
}

// Dispatch routes an error to the handler for its category.
func (h Handlers) Dispatch(ctx context.Context, err *autherr.Error) {
	if err == nil {
		return
	}
	switch {
	case err.Kind == autherr.KindTokenExpired:
		call(ctx, h.OnTokenExpired, err)
	case err.Kind == autherr.KindTokenInvalid || err.Kind == autherr.KindTokenRevoked:
		call(ctx, h.OnTokenInvalid, err)
	case err.Kind == autherr.KindSessionExpired:
		call(ctx, h.OnSessionExpired, err)
	case err.Kind == autherr.KindRefreshTokenInvalid || err.Kind == autherr.KindRefreshTokenExpired:
		call(ctx, h.OnRefreshFailed, err)
	case err.Kind.IsRateLimit():
		call(ctx, h.OnRateLimited, err)
	case err.Kind.Status() >= 500:
		call(ctx, h.OnServerError, err)
	default:
		call(ctx, h.OnUnauthorized, err)
	}
}

func call(ctx context.Context, h Handler, err *autherr.Error) {
	if h != nil {
		h(ctx, err)
	}
}
