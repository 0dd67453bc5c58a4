// Package wavwriter implements the audio.Sink interface and records the
// received audio buffers into a wav file.
package wavwriter

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/dh1tw/gosamplerate"
	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"

	"github.com/voicebridge/audiopipe/audio"
)

// WavWriter implements the audio.Sink interface and is used to write
// (record) audio buffers in the wav format.
type WavWriter struct {
	sync.Mutex
	file    *os.File
	encoder *wav.Encoder
	options Options
	volume  float32
	src     src
}

// src contains a samplerate converter and its needed variables
type src struct {
	gosamplerate.Src
	samplerate float64
	ratio      float64
}

// NewWavWriter returns a WavWriter to which audio buffers can be written.
// The audio data will be saved in the wav format.
func NewWavWriter(path string, opts ...Option) (*WavWriter, error) {

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &WavWriter{
		options: Options{
			Channels:   1,
			BitDepth:   16,
			Samplerate: 16000,
		},
		volume: 1.0,
		file:   f,
	}

	for _, o := range opts {
		o(&w.options)
	}

	// make sure we only allow 12 / 16 bit Bitdepth (dynamic range)
	switch w.options.BitDepth {
	case 12, 16:
	default:
		w.options.BitDepth = 16
	}

	// setup a samplerate converter
	srConv, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST,
		w.options.Channels, 65536)
	if err != nil {
		return nil, fmt.Errorf("wavwriter samplerate converter: %v", err)
	}
	w.src = src{
		Src:        srConv,
		samplerate: float64(w.options.Samplerate),
		ratio:      1,
	}

	w.encoder = wav.NewEncoder(f, w.options.Samplerate,
		w.options.BitDepth, w.options.Channels, 1)

	return w, nil
}

// Start writing audio to the wav file.
func (w *WavWriter) Start() error {
	return nil
}

// Stop writing audio buffers to the wav file.
func (w *WavWriter) Stop() error {
	return nil
}

// Close finishes the wav file and closes it properly.
func (w *WavWriter) Close() error {
	err := w.encoder.Close()
	w.file.Close()
	return err
}

// SetVolume sets the volume for all incoming audio buffers.
func (w *WavWriter) SetVolume(v float32) {
	w.Lock()
	defer w.Unlock()
	if v < 0 {
		w.volume = 0
	} else if v > 1 {
		w.volume = 1
	} else {
		w.volume = v
	}
}

// Volume returns the current volume.
func (w *WavWriter) Volume() float32 {
	w.Lock()
	defer w.Unlock()
	return w.volume
}

// Write writes an audio buffer into the wav file. Channels and
// samplerate will be adjusted, if necessary.
func (w *WavWriter) Write(msg audio.Msg) error {

	var err error

	// max size of an audio sample converted from float32 to int16
	const (
		b12 int = 4096
		b16 int = 32768
	)

	aData := audio.Int16ToFloat32(audio.BytesToInt16(msg.Data))

	// if necessary adjust the amount of audio channels
	if msg.Channels != w.options.Channels {
		aData = audio.AdjustChannels(msg.Channels, w.options.Channels, aData)
	}

	w.Lock()
	audio.AdjustVolume(w.volume, aData)
	w.Unlock()

	if msg.Samplerate != w.options.Samplerate {
		if w.src.samplerate != float64(msg.Samplerate) {
			w.src.Reset()
			w.src.samplerate = float64(msg.Samplerate)
			w.src.ratio = float64(w.options.Samplerate) / float64(msg.Samplerate)
		}
		aData, err = w.src.Process(aData, w.src.ratio, false)
		if err != nil {
			return err
		}
	}

	buf := ga.IntBuffer{
		Format: &ga.Format{
			SampleRate:  w.options.Samplerate,
			NumChannels: w.options.Channels,
		},
	}

	// prepare the bitdepth / dynamic range
	var max int
	switch w.options.BitDepth {
	case 12:
		max = b12
	default:
		max = b16
	}

	for _, frame := range aData {
		f := int(frame * float32(max))
		if f > max-1 {
			buf.Data = append(buf.Data, max-1)
		} else if f < -max {
			buf.Data = append(buf.Data, -max)
		} else {
			buf.Data = append(buf.Data, f)
		}
	}

	if err := w.encoder.Write(&buf); err != nil {
		log.Println(err)
	}

	return nil
}

// Flush is not implemented
func (w *WavWriter) Flush() {}
