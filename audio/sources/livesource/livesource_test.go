package livesource

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voicebridge/audiopipe/audio"
)

type msgRecorder struct {
	sync.Mutex
	msgs []audio.Msg
}

func (r *msgRecorder) cb(msg audio.Msg) {
	r.Lock()
	defer r.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *msgRecorder) recorded() []audio.Msg {
	r.Lock()
	defer r.Unlock()
	return append([]audio.Msg{}, r.msgs...)
}

func TestEnqueueForwardsData(t *testing.T) {

	l, err := NewLiveSource()
	if err != nil {
		t.Fatal(err)
	}

	rec := &msgRecorder{}
	l.SetCb(rec.cb)

	if err := l.Start(); err != nil {
		t.Fatal(err)
	}

	data := []byte{0x01, 0x02, 0x03, 0x04}
	if err := l.Enqueue(data); err != nil {
		t.Fatal(err)
	}

	msgs := rec.recorded()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", len(msgs))
	}
	if !bytes.Equal(msgs[0].Data, data) {
		t.Errorf("expected data %v, got %v", data, msgs[0].Data)
	}
	if msgs[0].Frames != 2 {
		t.Errorf("expected 2 frames, got %v", msgs[0].Frames)
	}
	if msgs[0].Samplerate != 16000 {
		t.Errorf("expected samplerate 16000, got %v", msgs[0].Samplerate)
	}
}

func TestEnqueueTruncatesOversizedData(t *testing.T) {

	l, err := NewLiveSource(ChunkSize(4))
	if err != nil {
		t.Fatal(err)
	}

	rec := &msgRecorder{}
	l.SetCb(rec.cb)
	l.Start()

	if err := l.Enqueue(make([]byte, 10)); err != nil {
		t.Fatal(err)
	}

	msgs := rec.recorded()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", len(msgs))
	}
	if len(msgs[0].Data) != 4 {
		t.Errorf("expected truncation to 4 bytes, got %v", len(msgs[0].Data))
	}
}

func TestEnqueueNeverPads(t *testing.T) {

	l, err := NewLiveSource(ChunkSize(1600))
	if err != nil {
		t.Fatal(err)
	}

	rec := &msgRecorder{}
	l.SetCb(rec.cb)
	l.Start()

	l.Enqueue(make([]byte, 10))

	msgs := rec.recorded()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %v", len(msgs))
	}
	if len(msgs[0].Data) != 10 {
		t.Errorf("short data must be forwarded unpadded, got %v bytes", len(msgs[0].Data))
	}
}

func TestEnqueueWhileStoppedIsDropped(t *testing.T) {

	l, err := NewLiveSource()
	if err != nil {
		t.Fatal(err)
	}

	rec := &msgRecorder{}
	l.SetCb(rec.cb)

	// never started
	l.Enqueue([]byte{0x01, 0x02})

	l.Start()
	l.Stop()
	l.Enqueue([]byte{0x01, 0x02})

	if got := len(rec.recorded()); got != 0 {
		t.Errorf("expected no messages, got %v", got)
	}
}

func TestEndCompletesSession(t *testing.T) {

	l, err := NewLiveSource()
	if err != nil {
		t.Fatal(err)
	}
	l.SetCb(func(audio.Msg) {})
	l.Start()

	l.End()

	select {
	case err := <-l.Done():
		if err != nil {
			t.Errorf("expected nil after End, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Done did not deliver after End")
	}

	if l.IsStreaming() {
		t.Error("source still streaming after End")
	}
}

func TestFailPropagatesError(t *testing.T) {

	l, err := NewLiveSource()
	if err != nil {
		t.Fatal(err)
	}

	rec := &msgRecorder{}
	l.SetCb(rec.cb)
	l.Start()

	l.Enqueue([]byte{0x01, 0x02})

	producerErr := errors.New("connection reset")
	l.Fail(producerErr)

	select {
	case err := <-l.Done():
		if err != producerErr {
			t.Errorf("expected producer error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Done did not deliver after Fail")
	}

	// chunks delivered before the failure remain valid
	if got := len(rec.recorded()); got != 1 {
		t.Errorf("expected 1 message delivered before the failure, got %v", got)
	}
}

func TestDoneBeforeStart(t *testing.T) {

	l, err := NewLiveSource()
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Error("Done before Start must not block")
	}
}
