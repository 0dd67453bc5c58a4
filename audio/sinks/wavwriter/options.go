package wavwriter

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a WavWriter.
type Options struct {
	Channels   int
	Samplerate int
	BitDepth   int
}

// Channels sets the amount of audio channels written into the wav file.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Samplerate sets the samplerate of the wav file.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// BitDepth sets the dynamic range of the recorded wav file. Only 12 and
// 16 bit are supported.
func BitDepth(b int) Option {
	return func(args *Options) {
		args.BitDepth = b
	}
}
