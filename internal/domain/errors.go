package domain

import "errors"

var (
	ErrRateNotFound    = errors.New("rate not found")
	ErrAccountNotFound = errors.New("account not found")

	// ErrServiceUnavailable is returned when the rate provider is unreachable
	// and no fallback data exists in the cache or the store.
	ErrServiceUnavailable = errors.New("currency exchange service is unavailable and no fallback data exists")
)

// InvalidInputError is a client-side failure: bad amount, unknown account,
// unsupported or mismatched currency, malformed provider response. It is
// never retried and never absorbed by the resolver's fallback chain.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// TransportError is a connectivity failure from the rate provider, distinct
// from a semantically invalid response. Only this kind triggers the
// store/cache fallback chain.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "rate provider unreachable: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
