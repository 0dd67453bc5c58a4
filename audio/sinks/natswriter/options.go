package natswriter

import "github.com/voicebridge/audiopipe/audiocodec"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a NatsWriter.
type Options struct {
	Encoder audiocodec.Encoder
}

// Encoder sets an audio codec with which the buffers will be encoded
// before publishing. Without an encoder, raw PCM is published. The
// written buffers must match a frame size the codec accepts (opus for
// example only takes frames of 2.5, 5, 10, 20, 40 or 60 ms).
func Encoder(enc audiocodec.Encoder) Option {
	return func(args *Options) {
		args.Encoder = enc
	}
}
