package pcm

import (
	"encoding/binary"
	"math"
)

// DownmixStereo converts interleaved stereo 16-bit PCM into mono by
// averaging the left and right sample of each frame. Averages are
// rounded half toward positive infinity. A trailing incomplete frame
// is dropped.
func DownmixStereo(stereo []byte) []byte {

	frames := len(stereo) / 4
	mono := make([]byte, frames*2)

	for i := 0; i < frames; i++ {
		left := int32(int16(binary.LittleEndian.Uint16(stereo[i*4 : i*4+2])))
		right := int32(int16(binary.LittleEndian.Uint16(stereo[i*4+2 : i*4+4])))
		// (l+r+1)>>1 == floor((l+r)/2 + 0.5)
		avg := int16((left + right + 1) >> 1)
		binary.LittleEndian.PutUint16(mono[i*2:i*2+2], uint16(avg))
	}

	return mono
}

// Resample converts mono 16-bit PCM from fromRate to toRate using linear
// interpolation. When both rates are equal the input slice is returned
// as-is. Interpolated values are rounded to the nearest integer and
// clamped to the int16 range.
func Resample(pcm []byte, fromRate, toRate int) []byte {

	if fromRate == toRate {
		return pcm
	}

	inSamples := len(pcm) / 2
	if inSamples == 0 {
		return []byte{}
	}

	ratio := float64(fromRate) / float64(toRate)
	outSamples := int(math.Round(float64(inSamples) / ratio))
	out := make([]byte, outSamples*2)

	sampleAt := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2])))
	}

	for i := 0; i < outSamples; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)

		var v float64
		if i0 >= inSamples-1 {
			v = sampleAt(inSamples - 1)
		} else {
			s0 := sampleAt(i0)
			s1 := sampleAt(i0 + 1)
			v = math.Round(s0 + (s1-s0)*(pos-float64(i0)))
		}

		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(int16(v)))
	}

	return out
}
