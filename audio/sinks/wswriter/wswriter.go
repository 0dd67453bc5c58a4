// Package wswriter implements the audio.Sink interface for a WebSocket
// connection. Audio buffers are forwarded as binary messages, typically
// to a speech/transcription pipeline.
package wswriter

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicebridge/audiopipe/audio"
)

// WsWriter implements the audio.Sink interface and forwards raw PCM
// buffers over a WebSocket connection.
type WsWriter struct {
	sync.Mutex
	options Options
	conn    *websocket.Conn
	enabled bool
	volume  float32
}

// NewWsWriter dials the given WebSocket URL and returns a sink which
// writes each audio buffer as one binary message.
func NewWsWriter(url string, opts ...Option) (*WsWriter, error) {

	w := &WsWriter{
		options: Options{
			WriteTimeout: 5 * time.Second,
		},
		volume: 1.0,
	}

	for _, o := range opts {
		o(&w.options)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("wswriter: unable to connect to %s: %v", url, err)
	}
	w.conn = conn

	return w, nil
}

// Start enables writing audio buffers to the WebSocket.
func (w *WsWriter) Start() error {
	w.Lock()
	defer w.Unlock()
	w.enabled = true
	return nil
}

// Stop disables writing audio buffers to the WebSocket.
func (w *WsWriter) Stop() error {
	w.Lock()
	defer w.Unlock()
	w.enabled = false
	return nil
}

// Close closes the WebSocket connection.
func (w *WsWriter) Close() error {
	w.Lock()
	defer w.Unlock()
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}

// SetVolume sets the gain applied to all upcoming audio buffers.
func (w *WsWriter) SetVolume(v float32) {
	w.Lock()
	defer w.Unlock()
	if v < 0 {
		w.volume = 0
	} else if v > 1 {
		w.volume = 1
	} else {
		w.volume = v
	}
}

// Volume returns the current volume.
func (w *WsWriter) Volume() float32 {
	w.Lock()
	defer w.Unlock()
	return w.volume
}

// Write forwards the audio buffer as a binary WebSocket message.
func (w *WsWriter) Write(msg audio.Msg) error {
	w.Lock()
	defer w.Unlock()

	if !w.enabled {
		return nil
	}

	data := msg.Data
	if w.volume != 1 {
		samples := audio.BytesToInt16(data)
		audio.AdjustGain(w.volume, samples)
		data = audio.Int16ToBytes(samples)
	}

	w.conn.SetWriteDeadline(time.Now().Add(w.options.WriteTimeout))
	if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("wswriter: %v", err)
	}

	return nil
}

// Flush is not implemented
func (w *WsWriter) Flush() {}
