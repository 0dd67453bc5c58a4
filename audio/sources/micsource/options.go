package micsource

import "time"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a MicSource.
type Options struct {
	HostAPI         string
	DeviceName      string
	Samplerate      int
	FramesPerBuffer int
	Latency         time.Duration
}

// HostAPI sets the audio host api to be used.
func HostAPI(api string) Option {
	return func(args *Options) {
		args.HostAPI = api
	}
}

// DeviceName sets the name of the input audio device.
func DeviceName(name string) Option {
	return func(args *Options) {
		args.DeviceName = name
	}
}

// Samplerate sets the recording samplerate in Hz.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// FramesPerBuffer sets the amount of frames per recorded audio buffer.
func FramesPerBuffer(size int) Option {
	return func(args *Options) {
		args.FramesPerBuffer = size
	}
}

// Latency sets the requested input device latency.
func Latency(l time.Duration) Option {
	return func(args *Options) {
		args.Latency = l
	}
}
