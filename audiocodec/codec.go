// Package audiocodec provides the interfaces for audio encoders
// and decoders.
package audiocodec

// Encoder is the interface implemented by audio codecs which compress
// 16-bit PCM samples into a byte buffer.
type Encoder interface {
	Name() string
	Encode(pcm []int16, data []byte) (int, error)
}

// Decoder is the interface implemented by audio codecs which decompress
// a byte buffer into 16-bit PCM samples.
type Decoder interface {
	Name() string
	Decode(data []byte, pcm []int16) (int, error)
}
