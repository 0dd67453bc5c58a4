package audio

import (
	"fmt"
	"sync"
)

// Selector manages several audio sources of which exactly one can be
// active at a time.
type Selector interface {
	AddSource(string, Source)
	RemoveSource(string) error
	SetSource(string) error
	SetCb(OnDataCb)
	Close()
}

type selector struct {
	sync.Mutex
	sources map[string]*source
	cb      OnDataCb
}

type source struct {
	Source
	active bool
}

// NewDefaultSelector returns an initialized selector for audio sources.
func NewDefaultSelector() (Selector, error) {

	s := &selector{
		sources: make(map[string]*source),
	}

	return s, nil
}

func (s *selector) AddSource(name string, src Source) {
	s.Lock()
	defer s.Unlock()
	s.sources[name] = &source{src, false}
}

func (s *selector) RemoveSource(name string) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.sources[name]; !ok {
		return fmt.Errorf("unknown source %s", name)
	}
	delete(s.sources, name)
	return nil
}

func (s *selector) SetSource(name string) error {
	s.Lock()
	defer s.Unlock()

	if s.cb == nil {
		return fmt.Errorf("selector callback not set")
	}

	src, ok := s.sources[name]
	if !ok {
		return fmt.Errorf("unknown source %s", name)
	}

	// already active, keep it running
	if src.active {
		return nil
	}

	for _, other := range s.sources {
		other.active = false
		other.Stop()
		other.SetCb(nil)
	}

	src.active = true
	src.SetCb(s.cb)
	return src.Start()
}

func (s *selector) SetCb(cb OnDataCb) {
	s.Lock()
	defer s.Unlock()
	s.cb = cb
}

func (s *selector) Close() {
	s.Lock()
	defer s.Unlock()
	for _, src := range s.sources {
		src.Close()
	}
}
