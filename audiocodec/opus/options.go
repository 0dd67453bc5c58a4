package opus

import opus "gopkg.in/hraban/opus.v2"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of an opus encoder / decoder.
type Options struct {
	Samplerate   int
	Channels     int
	Application  opus.Application
	MaxBandwidth opus.Bandwidth
	Bitrate      int
	Complexity   int
}

// Samplerate sets the codec samplerate in Hz. Opus only supports
// 8000, 12000, 16000, 24000 and 48000 Hz.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// Channels sets the amount of audio channels.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Application sets the opus application type.
func Application(a opus.Application) Option {
	return func(args *Options) {
		args.Application = a
	}
}

// MaxBandwidth sets the maximum encoding bandpass.
func MaxBandwidth(bw opus.Bandwidth) Option {
	return func(args *Options) {
		args.MaxBandwidth = bw
	}
}

// Bitrate sets the encoding bitrate in bit/s.
func Bitrate(b int) Option {
	return func(args *Options) {
		args.Bitrate = b
	}
}

// Complexity sets the encoder complexity (0..10).
func Complexity(c int) Option {
	return func(args *Options) {
		args.Complexity = c
	}
}
