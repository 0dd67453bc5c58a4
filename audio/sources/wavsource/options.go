package wavsource

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a WavSource.
type Options struct {
	Samplerate int // target samplerate in Hz
	ChunkSize  int // emitted chunk size in bytes
	LogEvery   int // log progress every n chunks; 0 disables
}

// Samplerate sets the target samplerate in Hz to which the file audio
// will be converted.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// ChunkSize sets the size in bytes of the emitted chunks.
func ChunkSize(s int) Option {
	return func(args *Options) {
		args.ChunkSize = s
	}
}

// LogEvery enables a progress log line every n emitted chunks.
func LogEvery(n int) Option {
	return func(args *Options) {
		args.LogEvery = n
	}
}
