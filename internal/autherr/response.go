package autherr

import (
	"strconv"
	"time"
)

// ResponseBody is the normalized error payload inside a Response.
type ResponseBody struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   []Detail  `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Response is the wire shape for every authentication failure:
// {success:false, error:{code, message, details?, timestamp}}.
type Response struct {
	Success bool         `json:"success"`
	Error   ResponseBody `json:"error"`

	// MFA continuation fields, present only for KindMFARequired.
	MFARequired bool   `json:"mfaRequired,omitempty"`
	MFAToken    string `json:"mfaToken,omitempty"`

	// RetryAfter in seconds, present only for rate-limit kinds.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// Response projects the error into its serializable form. The projection
// never includes the internal reason or cause.
func (e *Error) Response() Response {
	r := Response{
		Success: false,
		Error: ResponseBody{
			Code:      e.Kind.Code(),
			Message:   e.Message,
			Details:   e.Details,
			Timestamp: e.Timestamp,
		},
	}
	if e.Kind == KindMFARequired {
		r.MFARequired = true
		r.MFAToken = e.MFAToken
	}
	if e.Kind.IsRateLimit() {
		r.RetryAfter = retryAfterSeconds(e.RetryAfter)
	}
	return r
}

// Status returns the HTTP status for the error.
func (e *Error) Status() int { return e.Kind.Status() }

// Headers returns response headers the error mandates. Rate-limit kinds
// carry Retry-After and X-RateLimit-* per the contract; other kinds none.
func (e *Error) Headers() map[string]string {
	if !e.Kind.IsRateLimit() {
		return nil
	}
	return map[string]string{
		"Retry-After":           strconv.Itoa(retryAfterSeconds(e.RetryAfter)),
		"X-RateLimit-Limit":     strconv.Itoa(e.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(e.Remaining),
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
