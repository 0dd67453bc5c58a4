// Package pipe ties the audio chain together with streaming sessions.
// It enforces that only one session (file playback or live feed) is
// active at a time and exposes the control operations used by the cli
// commands and the web interface.
package pipe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/voicebridge/audiopipe/audio/chain"
	"github.com/voicebridge/audiopipe/audio/sources/livesource"
	"github.com/voicebridge/audiopipe/audio/sources/wavsource"
)

// ErrAlreadyStreaming is returned when a new session is requested while
// another one is still in progress.
var ErrAlreadyStreaming = errors.New("pipe: streaming session already in progress")

const (
	fileSourceName = "file"
	liveSourceName = "live"
)

// session is the common behaviour of the source backing an active
// streaming session.
type session interface {
	Stop() error
	IsStreaming() bool
	Done() <-chan error
}

// Pipe is a data structure which holds the components needed for an
// audio pipeline: the audio chain with its sources and sinks, and the
// currently active streaming session.
type Pipe struct {
	sync.RWMutex
	chain             *chain.Chain
	defaultSink       string
	samplerate        int
	chunkSize         int
	session           session
	ended             chan struct{}
	lastErr           error
	notifyStateChange func()
}

// Options is the data structure holding the values used for
// instantiating a Pipe object.
type Options struct {
	Chain       *chain.Chain
	DefaultSink string
	Samplerate  int
	ChunkSize   int
}

// NewPipe is the constructor method of a Pipe object.
func NewPipe(opts Options) (*Pipe, error) {

	if opts.Chain == nil {
		return nil, fmt.Errorf("chain variable is nil")
	}

	p := &Pipe{
		chain:       opts.Chain,
		defaultSink: opts.DefaultSink,
		samplerate:  opts.Samplerate,
		chunkSize:   opts.ChunkSize,
	}

	if p.samplerate == 0 {
		p.samplerate = 16000
	}
	if p.chunkSize == 0 {
		p.chunkSize = 1600
	}

	return p, nil
}

// SetNotifyStateChangeCb allows to set a callback which get's executed
// whenever a streaming session starts or ends.
func (p *Pipe) SetNotifyStateChangeCb(f func()) {
	p.Lock()
	defer p.Unlock()
	p.notifyStateChange = f
}

// StartFile starts a streaming session for the given WAV file. The file
// is converted and then streamed through the chain in real-time paced
// chunks. If another session is in progress, ErrAlreadyStreaming is
// returned and the running session is left untouched.
func (p *Pipe) StartFile(path string) error {

	p.Lock()
	defer p.Unlock()

	if p.session != nil && p.session.IsStreaming() {
		return ErrAlreadyStreaming
	}

	ws, err := wavsource.NewWavSource(path,
		wavsource.Samplerate(p.samplerate),
		wavsource.ChunkSize(p.chunkSize))
	if err != nil {
		return err
	}

	p.chain.Sources.AddSource(fileSourceName, ws)
	if err := p.chain.Sources.SetSource(fileSourceName); err != nil {
		p.chain.Sources.RemoveSource(fileSourceName)
		return err
	}

	p.session = ws
	p.ended = make(chan struct{})
	p.lastErr = nil
	go p.awaitSession(ws, fileSourceName, p.ended)
	p.stateChanged()

	return nil
}

// StartLive starts a live streaming session. The returned LiveSource
// accepts audio data through Enqueue until End, Fail or Stop is called.
// If another session is in progress, ErrAlreadyStreaming is returned.
func (p *Pipe) StartLive() (*livesource.LiveSource, error) {

	p.Lock()
	defer p.Unlock()

	if p.session != nil && p.session.IsStreaming() {
		return nil, ErrAlreadyStreaming
	}

	ls, err := livesource.NewLiveSource(
		livesource.Samplerate(p.samplerate),
		livesource.ChunkSize(p.chunkSize))
	if err != nil {
		return nil, err
	}

	p.chain.Sources.AddSource(liveSourceName, ls)
	if err := p.chain.Sources.SetSource(liveSourceName); err != nil {
		p.chain.Sources.RemoveSource(liveSourceName)
		return nil, err
	}

	p.session = ls
	p.ended = make(chan struct{})
	p.lastErr = nil
	go p.awaitSession(ls, liveSourceName, p.ended)
	p.stateChanged()

	return ls, nil
}

// awaitSession blocks until the session has ended and then removes its
// source from the chain.
func (p *Pipe) awaitSession(s session, sourceName string, ended chan struct{}) {

	err := <-s.Done()

	p.Lock()
	p.lastErr = err
	if p.session == s {
		p.session = nil
	}
	p.chain.Sources.RemoveSource(sourceName)
	p.stateChanged()
	p.Unlock()

	close(ended)
}

// Stop cancels the active streaming session. Calling Stop without an
// active session is a no-op.
func (p *Pipe) Stop() error {
	p.Lock()
	s := p.session
	p.Unlock()

	if s == nil {
		return nil
	}
	return s.Stop()
}

// Streaming reports whether a streaming session is in progress.
func (p *Pipe) Streaming() bool {
	p.RLock()
	defer p.RUnlock()
	if p.session == nil {
		return false
	}
	return p.session.IsStreaming()
}

// LiveSession returns the LiveSource backing the active session, or nil
// when no live session is in progress.
func (p *Pipe) LiveSession() *livesource.LiveSource {
	p.RLock()
	defer p.RUnlock()
	if ls, ok := p.session.(*livesource.LiveSource); ok {
		return ls
	}
	return nil
}

// Wait blocks until the active streaming session has ended and returns
// its result. Without an active session, Wait returns immediately.
func (p *Pipe) Wait() error {
	p.RLock()
	ended := p.ended
	p.RUnlock()

	if ended != nil {
		<-ended
	}
	return p.LastError()
}

// LastError returns the result of the most recently ended session. It
// is nil after normal completion and holds the producer's error after a
// failed live session.
func (p *Pipe) LastError() error {
	p.RLock()
	defer p.RUnlock()
	return p.lastErr
}

// EnableSink enables or disables an audio sink of the chain.
func (p *Pipe) EnableSink(name string, active bool) error {
	return p.chain.Sinks.EnableSink(name, active)
}

// SetVolume sets the volume of the default audio sink.
func (p *Pipe) SetVolume(v float32) error {
	sink, _, err := p.chain.Sinks.Sink(p.defaultSink)
	if err != nil {
		return err
	}
	sink.SetVolume(v)
	p.stateChanged()
	return nil
}

// Volume returns the volume of the default audio sink.
func (p *Pipe) Volume() (float32, error) {
	sink, _, err := p.chain.Sinks.Sink(p.defaultSink)
	if err != nil {
		return 0, err
	}
	return sink.Volume(), nil
}

// stateChanged executes the notification callback. Must be called with
// the mutex held or from the constructor.
func (p *Pipe) stateChanged() {
	if p.notifyStateChange != nil {
		go p.notifyStateChange()
	}
}
