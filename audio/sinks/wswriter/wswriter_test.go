package wswriter

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicebridge/audiopipe/audio"
)

var upgrader = websocket.Upgrader{}

// wsEchoServer upgrades incoming connections and forwards every binary
// message into the returned channel.
func wsEchoServer(t *testing.T) (*httptest.Server, chan []byte) {
	t.Helper()

	received := make(chan []byte, 16)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				received <- data
			}
		}
	}))
	t.Cleanup(ts.Close)

	return ts, received
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestWriteForwardsBinaryMessages(t *testing.T) {

	ts, received := wsEchoServer(t)

	w, err := NewWsWriter(wsURL(ts))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	data := []byte{0x01, 0x02, 0x03, 0x04}
	if err := w.Write(audio.Msg{Data: data, Samplerate: 16000, Channels: 1, Frames: 2}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, data) {
			t.Errorf("expected %v, got %v", data, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestWriteWhileDisabled(t *testing.T) {

	ts, received := wsEchoServer(t)

	w, err := NewWsWriter(wsURL(ts))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	// never started
	if err := w.Write(audio.Msg{Data: []byte{0x01, 0x02}}); err != nil {
		t.Fatal(err)
	}

	w.Start()
	w.Stop()
	if err := w.Write(audio.Msg{Data: []byte{0x01, 0x02}}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-received:
		t.Error("disabled sink must not forward messages")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWriteAppliesVolume(t *testing.T) {

	ts, received := wsEchoServer(t)

	w, err := NewWsWriter(wsURL(ts))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.Start()
	w.SetVolume(0.5)

	if err := w.Write(audio.Msg{Data: audio.Int16ToBytes([]int16{1000})}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		samples := audio.BytesToInt16(got)
		if len(samples) != 1 || samples[0] != 500 {
			t.Errorf("expected sample 500, got %v", samples)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestDialFailure(t *testing.T) {

	if _, err := NewWsWriter("ws://127.0.0.1:1/ws"); err == nil {
		t.Error("expected a dial error")
	}
}

func TestSetVolumeClamps(t *testing.T) {

	ts, _ := wsEchoServer(t)

	w, err := NewWsWriter(wsURL(ts))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetVolume(1.5)
	if w.Volume() != 1 {
		t.Errorf("expected clamp to 1, got %v", w.Volume())
	}

	w.SetVolume(-0.5)
	if w.Volume() != 0 {
		t.Errorf("expected clamp to 0, got %v", w.Volume())
	}
}
