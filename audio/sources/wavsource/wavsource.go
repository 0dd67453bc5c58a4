// Package wavsource implements the audio.Source interface for WAV files.
// The file is parsed, downmixed and resampled once at construction time;
// Start() then emits fixed-size chunks at real-time playback cadence.
package wavsource

import (
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/voicebridge/audiopipe/audio"
	"github.com/voicebridge/audiopipe/audio/pcm"
)

// ErrAlreadyStreaming is returned by Start when a streaming session is
// still in progress on this source.
var ErrAlreadyStreaming = errors.New("wavsource: streaming session already in progress")

// WavSource implements the audio.Source interface and feeds the PCM
// payload of a WAV file in real-time paced chunks to the set callback.
// Each WavSource holds the state of exactly one streaming session; create
// a new instance per file.
type WavSource struct {
	sync.Mutex
	options     Options
	pcm         []byte
	cb          audio.OnDataCb
	isStreaming bool
	stop        chan struct{}
	done        chan error
}

// NewWavSource reads a WAV file from disk and returns a WavSource which
// will stream its content as 16-bit mono PCM at the configured target
// samplerate. Malformed files are rejected here; no chunks are ever
// emitted for them.
func NewWavSource(file string, opts ...Option) (*WavSource, error) {

	buf, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	return NewFromBuffer(buf, opts...)
}

// NewFromBuffer is like NewWavSource, but reads the WAV container from
// an in-memory buffer.
func NewFromBuffer(buf []byte, opts ...Option) (*WavSource, error) {

	w := &WavSource{
		options: Options{
			Samplerate: 16000,
			ChunkSize:  1600,
		},
	}

	for _, o := range opts {
		o(&w.options)
	}

	payload, info, err := pcm.ParseWAV(buf)
	if err != nil {
		return nil, err
	}

	switch info.BitsPerSample {
	case 0, 16:
	default:
		return nil, errors.New("wavsource: only 16-bit PCM is supported")
	}

	if info.Channels == 2 {
		payload = pcm.DownmixStereo(payload)
	}

	switch {
	case info.Samplerate == 0:
		log.Printf("wavsource: no fmt chunk found; assuming %d Hz mono", w.options.Samplerate)
	case info.Samplerate != w.options.Samplerate:
		log.Printf("wavsource: resampling %d Hz -> %d Hz", info.Samplerate, w.options.Samplerate)
		payload = pcm.Resample(payload, info.Samplerate, w.options.Samplerate)
	}

	w.pcm = payload

	return w, nil
}

// SetCb sets the callback which will be executed to provide audio buffers.
func (w *WavSource) SetCb(cb audio.OnDataCb) {
	w.Lock()
	defer w.Unlock()
	w.cb = cb
}

// Start begins the streaming session. The audio is handed to the callback
// in chunks of ChunkSize bytes (the final chunk may be shorter), paced so
// that emission matches real-time playback. Starting while a session is
// in progress returns ErrAlreadyStreaming.
func (w *WavSource) Start() error {
	w.Lock()
	defer w.Unlock()

	if w.isStreaming {
		return ErrAlreadyStreaming
	}

	w.isStreaming = true
	w.stop = make(chan struct{})
	w.done = make(chan error, 1)

	go w.stream(w.stop, w.done)

	return nil
}

// Stop cancels the streaming session. No chunk emission begins after
// Stop has returned; a chunk already handed to the callback is not
// retracted.
func (w *WavSource) Stop() error {
	w.Lock()
	defer w.Unlock()

	if !w.isStreaming {
		return nil
	}

	w.isStreaming = false
	close(w.stop)
	return nil
}

// Close shuts down the wav source.
func (w *WavSource) Close() error {
	return w.Stop()
}

// IsStreaming reports whether a streaming session is in progress.
func (w *WavSource) IsStreaming() bool {
	w.Lock()
	defer w.Unlock()
	return w.isStreaming
}

// Done returns a channel which delivers the session result: nil after
// normal completion or Stop. The channel is created by Start; calling
// Done before the first Start returns a closed channel.
func (w *WavSource) Done() <-chan error {
	w.Lock()
	defer w.Unlock()
	if w.done == nil {
		c := make(chan error)
		close(c)
		return c
	}
	return w.done
}

// Duration returns the playback duration of the converted PCM buffer.
func (w *WavSource) Duration() time.Duration {
	bytesPerSecond := w.options.Samplerate * 2
	return time.Duration(float64(len(w.pcm)) / float64(bytesPerSecond) * float64(time.Second))
}

func (w *WavSource) stream(stop chan struct{}, done chan error) {

	chunkSize := w.options.ChunkSize
	bytesPerSecond := w.options.Samplerate * 2
	chunkInterval := time.Duration(float64(chunkSize) / float64(bytesPerSecond) * float64(time.Second))

	chunks := 0

	for offset := 0; offset < len(w.pcm); offset += chunkSize {

		w.Lock()
		streaming := w.isStreaming
		cb := w.cb
		w.Unlock()

		if !streaming {
			done <- nil
			return
		}

		end := offset + chunkSize
		if end > len(w.pcm) {
			end = len(w.pcm)
		}
		final := end == len(w.pcm)

		if cb != nil {
			cb(audio.Msg{
				Data:       w.pcm[offset:end],
				Samplerate: w.options.Samplerate,
				Channels:   1,
				Frames:     (end - offset) / 2,
				EOF:        final,
			})
		}

		chunks++
		if w.options.LogEvery > 0 && chunks%w.options.LogEvery == 0 {
			log.Printf("wavsource: %d chunks streamed (%d/%d bytes)", chunks, end, len(w.pcm))
		}

		if final {
			break
		}

		select {
		case <-stop:
			done <- nil
			return
		case <-time.After(chunkInterval):
		}
	}

	w.Lock()
	w.isStreaming = false
	w.Unlock()

	done <- nil
}
