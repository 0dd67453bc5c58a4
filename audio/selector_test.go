package audio

import (
	"sync"
	"testing"
)

// testSource is a minimal Source implementation for tests.
type testSource struct {
	sync.Mutex
	started bool
	starts  int
	stops   int
	cb      OnDataCb
}

func (s *testSource) Start() error {
	s.Lock()
	defer s.Unlock()
	s.started = true
	s.starts++
	return nil
}

func (s *testSource) Stop() error {
	s.Lock()
	defer s.Unlock()
	s.started = false
	s.stops++
	return nil
}

func (s *testSource) Close() error { return nil }

func (s *testSource) SetCb(cb OnDataCb) {
	s.Lock()
	defer s.Unlock()
	s.cb = cb
}

func (s *testSource) emit(msg Msg) {
	s.Lock()
	cb := s.cb
	s.Unlock()
	if cb != nil {
		cb(msg)
	}
}

func TestSelectorActivatesExactlyOneSource(t *testing.T) {

	sel, err := NewDefaultSelector()
	if err != nil {
		t.Fatal(err)
	}

	received := 0
	sel.SetCb(func(Msg) { received++ })

	a := &testSource{}
	b := &testSource{}
	sel.AddSource("a", a)
	sel.AddSource("b", b)

	if err := sel.SetSource("a"); err != nil {
		t.Fatal(err)
	}
	if !a.started {
		t.Error("selected source not started")
	}

	if err := sel.SetSource("b"); err != nil {
		t.Fatal(err)
	}
	if a.started {
		t.Error("previous source still running")
	}
	if !b.started {
		t.Error("selected source not started")
	}

	a.emit(Msg{}) // deselected, callback cleared
	b.emit(Msg{})

	if received != 1 {
		t.Errorf("expected 1 received message, got %v", received)
	}
}

func TestSelectorKeepsActiveSourceRunning(t *testing.T) {

	sel, err := NewDefaultSelector()
	if err != nil {
		t.Fatal(err)
	}
	sel.SetCb(func(Msg) {})

	a := &testSource{}
	sel.AddSource("a", a)

	if err := sel.SetSource("a"); err != nil {
		t.Fatal(err)
	}

	// selecting the active source again must not stop or restart it
	if err := sel.SetSource("a"); err != nil {
		t.Fatal(err)
	}

	if !a.started {
		t.Error("active source no longer running")
	}
	if a.starts != 1 {
		t.Errorf("expected 1 start, got %v", a.starts)
	}
	if a.stops != 0 {
		t.Errorf("expected 0 stops, got %v", a.stops)
	}
}

func TestSelectorUnknownSource(t *testing.T) {

	sel, _ := NewDefaultSelector()
	sel.SetCb(func(Msg) {})

	if err := sel.SetSource("nope"); err == nil {
		t.Error("expected an error for an unknown source")
	}
	if err := sel.RemoveSource("nope"); err == nil {
		t.Error("expected an error for an unknown source")
	}
}

func TestSelectorRequiresCb(t *testing.T) {

	sel, _ := NewDefaultSelector()
	sel.AddSource("a", &testSource{})

	if err := sel.SetSource("a"); err == nil {
		t.Error("expected an error when no callback is set")
	}
}
