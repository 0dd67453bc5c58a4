// Package livesource implements the audio.Source interface for
// push-based audio producers, e.g. a microphone relay delivering PCM
// frames over the network. Incoming buffers are forwarded as-is apart
// from truncation to the configured chunk size; live producers are
// expected to deliver audio already in the target format.
package livesource

import (
	"sync"

	"github.com/voicebridge/audiopipe/audio"
)

// LiveSource implements the audio.Source interface. Audio data is pushed
// into it with Enqueue, typically from a network receive loop.
type LiveSource struct {
	sync.Mutex
	options     Options
	cb          audio.OnDataCb
	isStreaming bool
	done        chan error
}

// NewLiveSource is the constructor for a LiveSource object.
func NewLiveSource(opts ...Option) (*LiveSource, error) {

	l := &LiveSource{
		options: Options{
			Samplerate: 16000,
			ChunkSize:  1600,
		},
	}

	for _, o := range opts {
		o(&l.options)
	}

	return l, nil
}

// SetCb sets the callback which will be executed to provide audio buffers.
func (l *LiveSource) SetCb(cb audio.OnDataCb) {
	l.Lock()
	defer l.Unlock()
	l.cb = cb
}

// Start enables forwarding of enqueued audio data.
func (l *LiveSource) Start() error {
	l.Lock()
	defer l.Unlock()
	if l.isStreaming {
		return nil
	}
	l.isStreaming = true
	l.done = make(chan error, 1)
	return nil
}

// Stop disables forwarding of enqueued audio data.
func (l *LiveSource) Stop() error {
	l.finish(nil)
	return nil
}

// Close shuts down the live source.
func (l *LiveSource) Close() error {
	return l.Stop()
}

// IsStreaming reports whether the source currently forwards audio.
func (l *LiveSource) IsStreaming() bool {
	l.Lock()
	defer l.Unlock()
	return l.isStreaming
}

// Enqueue is the entry point for a LiveSource. The data is truncated to
// at most ChunkSize bytes (never padded) and handed to the callback.
// Data enqueued while the source is stopped is dropped.
func (l *LiveSource) Enqueue(data []byte) error {
	l.Lock()
	streaming := l.isStreaming
	cb := l.cb
	l.Unlock()

	if !streaming || cb == nil {
		return nil
	}

	if len(data) == 0 {
		return nil
	}

	if len(data) > l.options.ChunkSize {
		data = data[:l.options.ChunkSize]
	}

	cb(audio.Msg{
		Data:       data,
		Samplerate: l.options.Samplerate,
		Channels:   1,
		Frames:     len(data) / 2,
	})

	return nil
}

// End signals that the underlying producer has finished. The session
// completes and Done delivers nil.
func (l *LiveSource) End() {
	l.finish(nil)
}

// Fail signals that the underlying producer has failed mid-stream. The
// session terminates and Done delivers err; chunks already forwarded
// remain valid.
func (l *LiveSource) Fail(err error) {
	l.finish(err)
}

// Done returns a channel which delivers the session result: nil after
// End or Stop, the producer's error after Fail. Calling Done before the
// first Start returns a closed channel.
func (l *LiveSource) Done() <-chan error {
	l.Lock()
	defer l.Unlock()
	if l.done == nil {
		c := make(chan error)
		close(c)
		return c
	}
	return l.done
}

func (l *LiveSource) finish(err error) {
	l.Lock()
	defer l.Unlock()

	if !l.isStreaming {
		return
	}
	l.isStreaming = false

	select {
	case l.done <- err:
	default:
	}
}
