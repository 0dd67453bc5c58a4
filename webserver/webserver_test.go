package webserver

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicebridge/audiopipe/audio"
	"github.com/voicebridge/audiopipe/audio/chain"
	"github.com/voicebridge/audiopipe/pipe"
)

type testSink struct {
	sync.Mutex
	volume float32
	msgs   int
}

func (s *testSink) Start() error { return nil }
func (s *testSink) Stop() error  { return nil }
func (s *testSink) Close() error { return nil }

func (s *testSink) SetVolume(v float32) {
	s.Lock()
	defer s.Unlock()
	s.volume = v
}

func (s *testSink) Volume() float32 {
	s.Lock()
	defer s.Unlock()
	return s.volume
}

func (s *testSink) Write(msg audio.Msg) error {
	s.Lock()
	defer s.Unlock()
	s.msgs++
	return nil
}

func (s *testSink) Flush() {}

func newTestServer(t *testing.T) (*httptest.Server, *pipe.Pipe) {
	t.Helper()

	c, err := chain.NewChain(chain.DefaultSink("test"))
	if err != nil {
		t.Fatal(err)
	}

	sink := &testSink{volume: 1.0}
	c.Sinks.AddSink("test", sink, false)
	if err := c.Sinks.EnableSink("test", true); err != nil {
		t.Fatal(err)
	}

	p, err := pipe.NewPipe(pipe.Options{
		Chain:       c,
		DefaultSink: "test",
	})
	if err != nil {
		t.Fatal(err)
	}

	web, err := NewWebServer("127.0.0.1", 0, p)
	if err != nil {
		t.Fatal(err)
	}
	go web.handleWsClients()

	ts := httptest.NewServer(web.apiRedirectRouter(web.router))
	t.Cleanup(ts.Close)

	return ts, p
}

func writeWavFile(t *testing.T, payload []byte) string {
	t.Helper()

	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(payload)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint32(32000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func putJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest("PUT", url, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestStatusEndpoint(t *testing.T) {

	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1.0/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", resp.StatusCode)
	}

	var state ApplicationState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Streaming == nil || *state.Streaming {
		t.Error("expected streaming false")
	}
	if state.Volume == nil || *state.Volume != 100 {
		t.Errorf("expected volume 100, got %v", state.Volume)
	}
}

func TestVolumeEndpoint(t *testing.T) {

	ts, _ := newTestServer(t)

	vol := 50
	resp := putJSON(t, ts.URL+"/api/v1.0/volume", AudioControlVolume{Volume: &vol})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", resp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1.0/volume")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()

	var volMsg AudioControlVolume
	if err := json.NewDecoder(resp2.Body).Decode(&volMsg); err != nil {
		t.Fatal(err)
	}
	if volMsg.Volume == nil || *volMsg.Volume != 50 {
		t.Errorf("expected volume 50, got %v", volMsg.Volume)
	}
}

func TestStreamStateEndpoint(t *testing.T) {

	ts, p := newTestServer(t)

	path := writeWavFile(t, make([]byte, 160000)) // 5s of audio

	on := true
	resp := putJSON(t, ts.URL+"/api/v1.0/stream/state",
		AudioControlState{On: &on, File: &path})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", resp.StatusCode)
	}

	if !p.Streaming() {
		t.Error("pipe should be streaming")
	}

	// a second start must be rejected while the session runs
	resp = putJSON(t, ts.URL+"/api/v1.0/stream/state",
		AudioControlState{On: &on, File: &path})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %v", resp.StatusCode)
	}

	off := false
	resp = putJSON(t, ts.URL+"/api/v1.0/stream/state", AudioControlState{On: &off})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v", resp.StatusCode)
	}

	if err := p.Wait(); err != nil {
		t.Fatal(err)
	}
	if p.Streaming() {
		t.Error("pipe still streaming after stop")
	}
}

func TestStreamStateRequiresFile(t *testing.T) {

	ts, _ := newTestServer(t)

	on := true
	resp := putJSON(t, ts.URL+"/api/v1.0/stream/state", AudioControlState{On: &on})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", resp.StatusCode)
	}
}

func TestStreamStateInvalidJSON(t *testing.T) {

	ts, _ := newTestServer(t)

	req, _ := http.NewRequest("PUT", ts.URL+"/api/v1.0/stream/state",
		bytes.NewReader([]byte("{invalid")))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", resp.StatusCode)
	}
}

func TestApiRedirect(t *testing.T) {

	ts, _ := newTestServer(t)

	// unversioned api calls are rewritten to the current api version
	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %v", resp.StatusCode)
	}

	var state ApplicationState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state.Streaming == nil {
		t.Error("expected a streaming field in the response")
	}
}

func TestWebSocketStatePush(t *testing.T) {

	ts, p := newTestServer(t)

	wsURL := "ws" + ts.URL[len("http"):] + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// the initial state is pushed on connect
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	var state ApplicationState
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	if state.Streaming == nil || *state.Streaming {
		t.Error("expected initial streaming state false")
	}

	// a state change is pushed to the connected client
	path := writeWavFile(t, make([]byte, 160000))
	if err := p.StartFile(path); err != nil {
		t.Fatal(err)
	}
	defer p.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatal(err)
	}
	if state.Streaming == nil || !*state.Streaming {
		t.Error("expected streaming state true after start")
	}
}
