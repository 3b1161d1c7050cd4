package predict

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Event describes one prediction attempt. An attempt rejected before any
// request is made has an empty RequestID and Encoder.
type Event struct {
	RequestID string
	Encoder   string
	Label     Label
	Raw       string // prediction field as returned by the classifier
	Status    int
	Err       error
	Latency   time.Duration
	At        time.Time
}

// OK reports whether the attempt produced a label.
func (e Event) OK() bool {
	return e.Err == nil && e.Label != LabelNone
}

// Observer receives prediction events. Implementations must be safe for
// concurrent use and must not block for long; they never affect the result.
type Observer interface {
	OnResult(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnResult calls f(e).
func (f ObserverFunc) OnResult(e Event) { f(e) }

// MultiObserver fans each event out to every non-nil member in order.
type MultiObserver []Observer

// OnResult forwards e to every observer.
func (m MultiObserver) OnResult(e Event) {
	for _, o := range m {
		if o != nil {
			o.OnResult(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnResult(Event) {}

// LogObserver writes every event to log. Failures are logged at warn level,
// recognized labels at info and absent results at debug.
func LogObserver(log logrus.FieldLogger) Observer {
	return ObserverFunc(func(e Event) {
		entry := log.WithFields(logrus.Fields{
			"request_id": e.RequestID,
			"encoder":    e.Encoder,
			"latency_ms": e.Latency.Milliseconds(),
		})
		if e.Status != 0 {
			entry = entry.WithField("status", e.Status)
		}

		switch {
		case e.Err != nil:
			entry.WithFields(logrus.Fields{
				"kind":  Kind(e.Err),
				"error": e.Err.Error(),
			}).Warn("[predict] no gesture recognized")
		case e.Label != LabelNone:
			entry.WithField("label", e.Label.String()).Info("[predict] gesture recognized")
		default:
			entry.Debug("[predict] no gesture recognized")
		}
	})
}
