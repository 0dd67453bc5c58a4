package audio

import (
	"fmt"
	"sync"
)

// Router manages several audio sinks.
type Router interface {
	AddSink(string, Sink, bool)
	RemoveSink(string) error
	Sink(string) (Sink, bool, error)
	EnableSink(string, bool) error
	Write(Msg) []*SinkError
	Flush()
	Close()
}

type sink struct {
	Sink
	active bool
}

// DefaultRouter is the standard manager for audio sinks.
type DefaultRouter struct {
	sync.RWMutex // for map & variables
	sinks        map[string]*sink
}

// NewDefaultRouter returns an initialized default router for audio sinks.
func NewDefaultRouter() (*DefaultRouter, error) {

	r := &DefaultRouter{
		sinks: make(map[string]*sink),
	}

	return r, nil
}

// Write will write the Msg to all enabled audio sinks.
func (r *DefaultRouter) Write(msg Msg) []*SinkError {

	r.RLock()
	defer r.RUnlock()

	var sinkErrors []*SinkError

	for name, sink := range r.sinks {
		if !sink.active {
			continue
		}
		if err := sink.Write(msg); err != nil {
			sErr := &SinkError{
				Sink:  name,
				Error: err,
			}
			sinkErrors = append(sinkErrors, sErr)
		}
	}

	return sinkErrors
}

// AddSink adds an audio device which satisfies the Sink interface. When marked
// as active, incoming audio Msgs will be written to this device.
func (r *DefaultRouter) AddSink(name string, s Sink, active bool) {
	r.Lock()
	defer r.Unlock()
	r.sinks[name] = &sink{s, active}
}

// RemoveSink removes an audio sink.
func (r *DefaultRouter) RemoveSink(name string) error {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.sinks[name]; !ok {
		return fmt.Errorf("unknown sink %s", name)
	}
	delete(r.sinks, name)
	return nil
}

// Sink returns the requested audio Sink from the router together with
// its current activation state.
func (r *DefaultRouter) Sink(name string) (Sink, bool, error) {
	r.RLock()
	defer r.RUnlock()
	s, ok := r.sinks[name]
	if !ok {
		return nil, false, fmt.Errorf("unknown sink %s", name)
	}
	return s, s.active, nil
}

// EnableSink will mark the audio Sink as active, so that incoming audio
// Msgs will be written to it.
func (r *DefaultRouter) EnableSink(name string, active bool) error {
	r.Lock()
	defer r.Unlock()
	s, ok := r.sinks[name]
	if !ok {
		return fmt.Errorf("unknown sink %s", name)
	}
	s.active = active
	if s.active {
		return s.Start()
	}
	return s.Stop()
}

// Flush flushes the buffers of all active sinks.
func (r *DefaultRouter) Flush() {
	r.RLock()
	defer r.RUnlock()
	for _, s := range r.sinks {
		if s.active {
			s.Flush()
		}
	}
}

// Close closes all sinks of this router.
func (r *DefaultRouter) Close() {
	r.Lock()
	defer r.Unlock()
	for _, s := range r.sinks {
		s.Close()
	}
}

// SinkError is an Error which is used when data could not be written to
// a particular audio Sink.
type SinkError struct {
	Sink  string
	Error error
}
