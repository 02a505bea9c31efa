package openai

// Observer is told about what happens to every call of a Client.
// Implementations must be safe for concurrent use, as events arrive from decoder goroutines.
type Observer interface {
	// RequestFailed is called with the error returned at the call boundary.
	RequestFailed(err error)
	EventDecoded()
	// EventDropped is called for each malformed data line skipped in lenient mode.
	EventDropped(err error)
	TurnRecorded()
	// StreamAborted is called when a started stream ends without recording its turn.
	StreamAborted(err error)
}

type nopObserver struct{}

func (nopObserver) RequestFailed(error) {}

func (nopObserver) EventDecoded() {}

func (nopObserver) EventDropped(error) {}

func (nopObserver) TurnRecorded() {}

func (nopObserver) StreamAborted(error) {}
