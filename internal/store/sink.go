// Package store persists matched keys. Every Sink is safe for concurrent use
// by pipeline workers; records are append-only and keyed by onion address.
package store

import (
	"context"
	"errors"

	"github.com/mahdiidarabi/oniongen/pkg/oniongen"
)

// ErrExists is returned when a record for the address is already stored.
var ErrExists = errors.New("match already stored")

// Sink durably stores matched keys.
type Sink interface {
	// Write stores rec. Implementations must not overwrite an existing
	// record for the same address.
	Write(ctx context.Context, rec oniongen.MatchRecord) error
}

// MultiSink writes every record to all of its sinks and joins their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, rec oniongen.MatchRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
