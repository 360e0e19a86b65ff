package tagger

import "time"

// Observer receives session and batch events, typically to export metrics.
type Observer interface {
	SessionStarted(model string)
	SessionFailed(model string, err error)
	BatchCompleted(model string, tokens, records int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(string)                                 {}
func (nopObserver) SessionFailed(string, error)                           {}
func (nopObserver) BatchCompleted(string, int, int, time.Duration, error) {}
