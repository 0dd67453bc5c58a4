package livesource

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a LiveSource.
type Options struct {
	Samplerate int // samplerate in Hz the producer delivers
	ChunkSize  int // maximum forwarded chunk size in bytes
}

// Samplerate sets the samplerate in Hz at which the producer delivers
// audio. Live audio is forwarded without conversion.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// ChunkSize sets the maximum size in bytes of the forwarded chunks.
// Larger incoming buffers are truncated, never padded.
func ChunkSize(s int) Option {
	return func(args *Options) {
		args.ChunkSize = s
	}
}
