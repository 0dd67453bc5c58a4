// Package natswriter implements the audio.Sink interface for a NATS
// subject. Audio buffers are published either as raw PCM or opus
// encoded, with the format described in message headers.
package natswriter

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/voicebridge/audiopipe/audio"
)

// NatsWriter implements the audio.Sink interface and publishes audio
// buffers on a NATS subject.
type NatsWriter struct {
	sync.Mutex
	options Options
	conn    *nats.Conn
	subject string
	enabled bool
	volume  float32
	seq     uint64
	encBuf  []byte
}

// NewNatsWriter returns a sink which publishes each audio buffer as one
// message on the given subject of an established NATS connection.
func NewNatsWriter(conn *nats.Conn, subject string, opts ...Option) (*NatsWriter, error) {

	if conn == nil {
		return nil, fmt.Errorf("natswriter: nats connection is nil")
	}
	if len(subject) == 0 {
		return nil, fmt.Errorf("natswriter: subject missing")
	}

	w := &NatsWriter{
		options: Options{},
		conn:    conn,
		subject: subject,
		volume:  1.0,
	}

	for _, o := range opts {
		o(&w.options)
	}

	if w.options.Encoder != nil {
		w.encBuf = make([]byte, 4096)
	}

	return w, nil
}

// Start enables publishing audio buffers.
func (w *NatsWriter) Start() error {
	w.Lock()
	defer w.Unlock()
	w.enabled = true
	return nil
}

// Stop disables publishing audio buffers.
func (w *NatsWriter) Stop() error {
	w.Lock()
	defer w.Unlock()
	w.enabled = false
	return nil
}

// Close flushes the outstanding messages. The NATS connection is owned
// by the caller and is left open.
func (w *NatsWriter) Close() error {
	return w.conn.Flush()
}

// SetVolume sets the gain applied to all upcoming audio buffers.
func (w *NatsWriter) SetVolume(v float32) {
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
func (w *NatsWriter) Volume() float32 {
	w.Lock()
	defer w.Unlock()
	return w.volume
}

// Write publishes the audio buffer on the configured subject.
func (w *NatsWriter) Write(msg audio.Msg) error {
	w.Lock()
	defer w.Unlock()

	if !w.enabled {
		return nil
	}

	payload := msg.Data
	codecName := "pcm16"

	samples := audio.BytesToInt16(msg.Data)
	if w.volume != 1 {
		audio.AdjustGain(w.volume, samples)
		payload = audio.Int16ToBytes(samples)
	}

	if w.options.Encoder != nil {
		n, err := w.options.Encoder.Encode(samples, w.encBuf)
		if err != nil {
			return fmt.Errorf("natswriter: %v", err)
		}
		payload = w.encBuf[:n]
		codecName = w.options.Encoder.Name()
	}

	w.seq++

	m := nats.NewMsg(w.subject)
	m.Header.Set("codec", codecName)
	m.Header.Set("samplerate", strconv.Itoa(msg.Samplerate))
	m.Header.Set("channels", strconv.Itoa(msg.Channels))
	m.Header.Set("seq", strconv.FormatUint(w.seq, 10))
	if msg.EOF {
		m.Header.Set("eof", "true")
	}
	m.Data = payload

	if err := w.conn.PublishMsg(m); err != nil {
		return fmt.Errorf("natswriter: %v", err)
	}

	return nil
}

// Flush flushes the buffered NATS messages to the server.
func (w *NatsWriter) Flush() {
	w.conn.Flush()
}
