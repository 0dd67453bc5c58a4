// Package pcm provides deterministic transforms for 16-bit PCM audio:
// WAV container parsing, stereo downmixing and linear resampling.
package pcm

import (
	"bytes"
	"encoding/binary"
)

// FormatError indicates a malformed WAV container.
type FormatError struct {
	msg string
}

func (e *FormatError) Error() string {
	return "wav: " + e.msg
}

// Info describes the audio format found in a WAV container.
type Info struct {
	Channels      int
	Samplerate    int
	BitsPerSample int
}

var (
	riffMarker = []byte("RIFF")
	waveMarker = []byte("WAVE")
	fmtMarker  = []byte("fmt ")
	dataMarker = []byte("data")
)

// ParseWAV validates the RIFF/WAVE structure of buf and extracts the raw
// PCM payload together with the format description from the "fmt "
// sub-chunk. The returned slice aliases buf; no data is copied.
//
// A missing "fmt " chunk is tolerated (all Info fields stay zero, the
// caller decides how to proceed); a missing "data" chunk is fatal. A
// declared data length larger than the remaining buffer is clamped
// rather than rejected, so a truncated trailing chunk still plays.
func ParseWAV(buf []byte) ([]byte, Info, error) {

	info := Info{}

	if len(buf) < 12 || !bytes.Equal(buf[0:4], riffMarker) {
		return nil, info, &FormatError{"missing RIFF header"}
	}

	if !bytes.Equal(buf[8:12], waveMarker) {
		return nil, info, &FormatError{"missing WAVE marker"}
	}

	if idx := bytes.Index(buf, fmtMarker); idx >= 0 && idx+24 <= len(buf) {
		info.Channels = int(binary.LittleEndian.Uint16(buf[idx+10 : idx+12]))
		info.Samplerate = int(binary.LittleEndian.Uint32(buf[idx+12 : idx+16]))
		info.BitsPerSample = int(binary.LittleEndian.Uint16(buf[idx+22 : idx+24]))
	}

	idx := bytes.Index(buf, dataMarker)
	if idx < 0 || idx+8 > len(buf) {
		return nil, info, &FormatError{"missing data chunk"}
	}

	dataSize := int(binary.LittleEndian.Uint32(buf[idx+4 : idx+8]))
	start := idx + 8
	end := start + dataSize
	if end > len(buf) {
		// truncated file; use whatever is left
		end = len(buf)
	}

	return buf[start:end], info, nil
}
