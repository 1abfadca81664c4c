package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncProfileCreated(string)                          {}
func (n *NoopRecorder) IncProfileUpdated()                                {}
func (n *NoopRecorder) IncProfileDeleted()                                {}
func (n *NoopRecorder) IncFeedItemCreated()                               {}
func (n *NoopRecorder) IncFeedItemsDeleted(int)                           {}
func (n *NoopRecorder) IncLoginAttempt(string)                            {}
func (n *NoopRecorder) ObserveRequest(string, string, int, time.Duration) {}
