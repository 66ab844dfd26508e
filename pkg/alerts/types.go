package alerts

import (
	"context"
	"time"

	"github.com/eczanelab/pharmapos/pkg/model"
)

// Severity classifies a drug's stock level.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityLow      Severity = "low"      // At or below the drug's low-stock threshold
	SeverityCritical Severity = "critical" // At or below the critical threshold
)

// Notification is one stock alert covering a batch of drugs in the same
// severity state.
type Notification struct {
	Kind  Severity     `json:"kind"`
	Drugs []model.Drug `json:"drugs"`
	Time  time.Time    `json:"time"`
}

// Notifier sends stock notifications through an external channel.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a notification. Implementations must be safe for
	// concurrent use.
	Send(ctx context.Context, n Notification) error
}
