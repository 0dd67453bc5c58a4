package speaker

import "time"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a Speaker.
type Options struct {
	HostAPI         string
	DeviceName      string
	Channels        int
	Samplerate      float64
	FramesPerBuffer int
	RingBufferSize  int
	Latency         time.Duration
}

// HostAPI sets the audio host api used to access the output device.
func HostAPI(api string) Option {
	return func(args *Options) {
		args.HostAPI = api
	}
}

// DeviceName sets the audio output device.
func DeviceName(name string) Option {
	return func(args *Options) {
		args.DeviceName = name
	}
}

// Channels sets the amount of channels of the output device.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Samplerate sets the samplerate of the output device.
func Samplerate(s float64) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// FramesPerBuffer sets the amount of audio frames handed to the output
// device per callback.
func FramesPerBuffer(size int) Option {
	return func(args *Options) {
		args.FramesPerBuffer = size
	}
}

// RingBufferSize sets the capacity (amount of audio buffers) of the
// playback ring buffer.
func RingBufferSize(size int) Option {
	return func(args *Options) {
		args.RingBufferSize = size
	}
}

// Latency sets the desired output latency of the device.
func Latency(l time.Duration) Option {
	return func(args *Options) {
		args.Latency = l
	}
}
