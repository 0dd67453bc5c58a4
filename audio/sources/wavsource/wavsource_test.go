package wavsource

import (
	"bytes"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/voicebridge/audiopipe/audio"
	"github.com/voicebridge/audiopipe/audio/pcm"
)

// makeWav assembles a canonical RIFF/WAVE container around the given
// PCM payload.
func makeWav(channels, samplerate, bitsPerSample int, payload []byte) []byte {

	var buf bytes.Buffer

	blockAlign := channels * bitsPerSample / 8
	byteRate := samplerate * blockAlign

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(payload)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(samplerate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)

	return buf.Bytes()
}

// chunkRecorder collects the audio buffers emitted by a source.
type chunkRecorder struct {
	sync.Mutex
	chunks []audio.Msg
}

func (c *chunkRecorder) cb(msg audio.Msg) {
	c.Lock()
	defer c.Unlock()
	data := make([]byte, len(msg.Data))
	copy(data, msg.Data)
	msg.Data = data
	c.chunks = append(c.chunks, msg)
}

func (c *chunkRecorder) recorded() []audio.Msg {
	c.Lock()
	defer c.Unlock()
	return append([]audio.Msg{}, c.chunks...)
}

func TestStreamChunkCompleteness(t *testing.T) {

	payload := make([]byte, 4000)
	for i := range payload {
		payload[i] = byte(i)
	}

	w, err := NewFromBuffer(makeWav(1, 16000, 16, payload), ChunkSize(1600))
	if err != nil {
		t.Fatal(err)
	}

	rec := &chunkRecorder{}
	w.SetCb(rec.cb)

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-w.Done():
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("streaming session did not complete")
	}

	chunks := rec.recorded()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %v", len(chunks))
	}

	if len(chunks[0].Data) != 1600 || len(chunks[1].Data) != 1600 {
		t.Errorf("expected full chunks of 1600 bytes, got %v and %v",
			len(chunks[0].Data), len(chunks[1].Data))
	}
	if len(chunks[2].Data) != 800 {
		t.Errorf("expected final chunk of 800 bytes, got %v", len(chunks[2].Data))
	}

	if !chunks[2].EOF {
		t.Error("expected EOF on the final chunk")
	}
	if chunks[0].EOF || chunks[1].EOF {
		t.Error("EOF set on a non-final chunk")
	}

	var joined []byte
	for _, c := range chunks {
		joined = append(joined, c.Data...)
	}
	if !bytes.Equal(joined, payload) {
		t.Error("concatenated chunks do not equal the original payload")
	}

	if w.IsStreaming() {
		t.Error("source still streaming after completion")
	}
}

func TestStreamCadence(t *testing.T) {

	// 3 full chunks at 50ms cadence
	w, err := NewFromBuffer(makeWav(1, 16000, 16, make([]byte, 4800)), ChunkSize(1600))
	if err != nil {
		t.Fatal(err)
	}

	rec := &chunkRecorder{}
	w.SetCb(rec.cb)

	start := time.Now()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	<-w.Done()
	elapsed := time.Since(start)

	// two inter-chunk waits of 50ms each
	if elapsed < 80*time.Millisecond {
		t.Errorf("streaming finished too fast: %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("streaming took too long: %v", elapsed)
	}
}

func TestStartWhileStreaming(t *testing.T) {

	w, err := NewFromBuffer(makeWav(1, 16000, 16, make([]byte, 16000)), ChunkSize(1600))
	if err != nil {
		t.Fatal(err)
	}
	w.SetCb(func(audio.Msg) {})

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.Start(); err != ErrAlreadyStreaming {
		t.Errorf("expected ErrAlreadyStreaming, got %v", err)
	}
}

func TestStopEndsSession(t *testing.T) {

	w, err := NewFromBuffer(makeWav(1, 16000, 16, make([]byte, 160000)), ChunkSize(1600))
	if err != nil {
		t.Fatal(err)
	}

	rec := &chunkRecorder{}
	w.SetCb(rec.cb)

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(120 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-w.Done():
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("session did not end after Stop")
	}

	if w.IsStreaming() {
		t.Error("source still streaming after Stop")
	}

	emitted := len(rec.recorded())
	time.Sleep(120 * time.Millisecond)
	if got := len(rec.recorded()); got != emitted {
		t.Errorf("chunks emitted after Stop: had %v, now %v", emitted, got)
	}

	// far from the 100 chunks of the full file
	if emitted > 10 {
		t.Errorf("expected only a few chunks before Stop, got %v", emitted)
	}
}

func TestRejectsMalformedBuffer(t *testing.T) {

	_, err := NewFromBuffer([]byte("this is not a wav file"))
	if err == nil {
		t.Fatal("expected an error for a malformed buffer")
	}
	if _, ok := err.(*pcm.FormatError); !ok {
		t.Errorf("expected *pcm.FormatError, got %T", err)
	}
}

func TestStereoIsDownmixedAndResampled(t *testing.T) {

	// one second of 44.1 kHz stereo
	w, err := NewFromBuffer(makeWav(2, 44100, 16, make([]byte, 44100*4)))
	if err != nil {
		t.Fatal(err)
	}

	if d := w.Duration(); d != time.Second {
		t.Errorf("expected 1s duration after conversion, got %v", d)
	}
}

func TestRejects24BitPCM(t *testing.T) {

	if _, err := NewFromBuffer(makeWav(1, 16000, 24, make([]byte, 600))); err == nil {
		t.Error("expected an error for 24-bit PCM")
	}
}

func TestDoneBeforeStart(t *testing.T) {

	w, err := NewFromBuffer(makeWav(1, 16000, 16, make([]byte, 1600)))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Error("Done before Start must not block")
	}
}
