// internal/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
)

// ErrorKind classifies a failed send so the runner can decide between
// pausing, erroring out, or counting a failure and moving on.
type ErrorKind string

const (
	KindRateLimited      ErrorKind = "rate_limited"
	KindAuthInvalid      ErrorKind = "auth_invalid"
	KindRecipientInvalid ErrorKind = "recipient_invalid"
	KindTransient        ErrorKind = "transient"
	KindUnknown          ErrorKind = "unknown"
)

type SendError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed (%s, http %d): %s", e.Kind, e.StatusCode, e.Detail)
}

// KindOf extracts the classification from an error, defaulting to Unknown.
func KindOf(err error) ErrorKind {
	if se, ok := err.(*SendError); ok {
		return se.Kind
	}
	return KindUnknown
}

// SendRequest is one templated message. AccessToken arrives already
// decrypted; it lives only for the duration of the call and must never be
// logged.
type SendRequest struct {
	PhoneNumberID string
	AccessToken   string
	To            string
	TemplateName  string
	LanguageCode  string
	BodyParams    []string
}

// Sender is the adapter over the external templated-message API.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (providerMessageID string, err error)
}
