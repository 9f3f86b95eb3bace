// Package blob checks that the bytes an upload claims to have written are
// actually present in external blob storage.
//
// The file store never reads or writes blob content itself; a location is a
// (service, container, object) descriptor produced by whoever moved the
// bytes. A LocationVerifier lets the store refuse to complete an upload whose
// location does not resolve.
package blob

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedService is returned for a location whose service the
	// verifier does not handle.
	ErrUnsupportedService = errors.New("unsupported blob service")

	// ErrLocationUnavailable is returned when the location does not resolve
	// to a stored object.
	ErrLocationUnavailable = errors.New("blob location unavailable")
)

// LocationVerifier confirms a completed upload's location.
type LocationVerifier interface {
	// Verify returns nil when the object described by location exists.
	Verify(ctx context.Context, location map[string]string) error
}

// Router dispatches to a verifier by the location's "service" key.
type Router map[string]LocationVerifier

func (r Router) Verify(ctx context.Context, location map[string]string) error {
	service := location["service"]
	v, ok := r[service]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedService, service)
	}
	return v.Verify(ctx, location)
}
