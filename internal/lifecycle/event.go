package lifecycle

import (
	"time"

	"servicelink/internal/model"
)

// Event describes a completed request transition. The engine hands events to
// a Dispatcher instead of writing the activity log itself, so a broken log
// sink can never roll back or fail the underlying state change.
type Event struct {
	Action      string
	RequestType model.RequestType
	Reference   string
	Gate        model.Gate // set for approval transitions only
	Value       string     // new gate value, status or archive flag
	Actor       string     // acting user id, empty for system writes
	Recipient   string     // requester user id, notification target
	Details     string     // human readable summary
	OccurredAt  time.Time
}

// Dispatcher delivers events to whatever sinks are interested (activity log,
// notifications, websocket broadcast). Delivery is fire-and-forget: Dispatch
// must not block on or surface sink failures.
type Dispatcher interface {
	Dispatch(Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(Event)

func (f DispatcherFunc) Dispatch(e Event) { f(e) }
