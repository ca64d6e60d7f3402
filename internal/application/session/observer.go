package session

import "time"

// Outcome терминальное состояние сессии
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeFailed        Outcome = "failed"
	OutcomeConnectFailed Outcome = "connect_failed"
	OutcomeTimedOut      Outcome = "timed_out"
)

// Observer получает события жизненного цикла сессий (метрики)
type Observer interface {
	QueueWait(d time.Duration)
	SessionStarted()
	SessionFinished(outcome Outcome, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) QueueWait(time.Duration)                {}
func (noopObserver) SessionStarted()                        {}
func (noopObserver) SessionFinished(Outcome, time.Duration) {}

func outcomeOf(err error) Outcome {
	switch KindOf(err) {
	case "":
		if err == nil {
			return OutcomeDelivered
		}
		return OutcomeFailed
	case KindNotFound:
		return OutcomeNotFound
	case KindTimeout:
		return OutcomeTimedOut
	case KindConnectFailed:
		return OutcomeConnectFailed
	default:
		return OutcomeFailed
	}
}
