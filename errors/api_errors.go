package errors

import "fmt"

// APIError is a structured failure carried from the service layer to the
// HTTP surface. Kind selects the status mapping, Message is the
// human-readable reason put on the wire.
type APIError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Kind is the failure taxonomy of the linking subsystem.
type Kind string

const (
	// KindProviderExchange means the external provider rejected the
	// authorization code. Surfaced as HTTP 400, never retried.
	KindProviderExchange Kind = "provider_exchange_failure"

	// KindStorage means the persistence layer rejected a write. Surfaced
	// as HTTP 500; earlier steps of the request are not rolled back.
	KindStorage Kind = "storage_failure"
)

func NewProviderExchange(message string) *APIError {
	return &APIError{Kind: KindProviderExchange, Message: message}
}

func NewStorage(message string) *APIError {
	return &APIError{Kind: KindStorage, Message: message}
}
