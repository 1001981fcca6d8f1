// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package telemetry

// MultiSink fans a counter update out to every configured backend sink.
// Nil entries (e.g. a disabled InfluxSink) are skipped.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a MultiSink from the given backends, dropping any nil
// entries.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		m.sinks = append(m.sinks, s)
	}
	return m
}

func (m *MultiSink) IncRequest(clientID string) {
	for _, s := range m.sinks {
		s.IncRequest(clientID)
	}
}

func (m *MultiSink) IncSuccess(clientID string) {
	for _, s := range m.sinks {
		s.IncSuccess(clientID)
	}
}

func (m *MultiSink) IncTunnelInitiated(clientID string) {
	for _, s := range m.sinks {
		s.IncTunnelInitiated(clientID)
	}
}

func (m *MultiSink) AddBytesTransferred(clientID string, n int64) {
	for _, s := range m.sinks {
		s.AddBytesTransferred(clientID, n)
	}
}

// Dispatch spawns a best-effort, fire-and-forget goroutine that records u
// against sink; it never blocks the request path and any panic inside the
// sink is recovered and logged rather than crashing the node (spec §4.6:
// "failures are logged at error level and discarded").
func Dispatch(sink Sink, u Update, onPanic func(any)) {
	go func() {
		defer func() {
			if r := recover(); r != nil && onPanic != nil {
				onPanic(r)
			}
		}()
		RecordRequest(sink, u)
	}()
}
