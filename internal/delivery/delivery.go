// Package delivery is the outbound report boundary. The engine hands a
// full session snapshot to a Deliverer and stores the returned report
// reference verbatim; a delivery failure never blocks the session's
// terminal transition.
package delivery

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fieldops/walkabout/pkg/types"
)

// Deliverer submits a session snapshot to an opaque report-generation
// endpoint and returns the external report reference.
type Deliverer interface {
	Deliver(snapshot []byte, endpoint string) (reportRef string, err error)
}

// store is the slice of the session store Finalize needs.
type store interface {
	Snapshot(sessionID string) ([]byte, error)
	Terminate(sessionID string, reportRef string) (*types.SessionRecord, error)
}

// Finalize submits the session's snapshot and terminates the session.
// The terminal transition always commits; a downstream failure is logged
// and returned wrapped in ErrDeliveryFailed so the caller can surface a
// non-blocking warning. It is never retried here.
func Finalize(s store, d Deliverer, sessionID, endpoint string, log *slog.Logger) (*types.SessionRecord, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var reportRef string
	var deliveryErr error

	if d != nil {
		snapshot, err := s.Snapshot(sessionID)
		if err != nil {
			return nil, err
		}
		reportRef, deliveryErr = d.Deliver(snapshot, endpoint)
		if deliveryErr != nil {
			log.Warn("report delivery failed", "session", sessionID, "error", deliveryErr)
			reportRef = ""
		}
	}

	record, err := s.Terminate(sessionID, reportRef)
	if err != nil {
		return nil, err
	}
	if deliveryErr != nil {
		return record, fmt.Errorf("%w: %v", types.ErrDeliveryFailed, deliveryErr)
	}
	return record, nil
}
