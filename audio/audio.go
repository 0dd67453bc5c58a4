package audio

// OnDataCb is the callback through which audio sources hand off their
// buffers for further processing.
type OnDataCb func(Msg)

// Source is the interface which is implemented by an audio source. This
// could be a local file, a local audio device (e.g. microphone) or
// streaming data pushed in from a network connection.
type Source interface {
	Start() error
	Stop() error
	Close() error
	SetCb(OnDataCb)
}

// Sink is the interface which is implemented by an audio sink. This could
// be a local playback device, a file for recording or a network transport
// forwarding the audio to a speech pipeline.
type Sink interface {
	Start() error
	Stop() error
	Close() error
	SetVolume(float32)
	Volume() float32
	Write(Msg) error
	Flush()
}

// Node is an audio processing element which can be placed between a
// Source and one or more Sinks.
type Node interface {
	Write(Msg) error
	SetCb(OnDataCb)
}

// Msg contains an audio buffer with its metadata. Data is raw PCM,
// signed 16-bit little endian samples.
type Msg struct {
	Data       []byte
	Samplerate int
	Channels   int
	Frames     int // number of frames (samples per channel) in the buffer
	EOF        bool
}
