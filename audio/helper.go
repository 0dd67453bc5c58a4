package audio

import "encoding/binary"

// BytesToInt16 converts raw little endian PCM bytes into int16 samples.
// A trailing odd byte is ignored.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return samples
}

// Int16ToBytes converts int16 samples into raw little endian PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(s))
	}
	return data
}

// Int16ToFloat32 converts int16 samples into normalized float32 samples
// in the range [-1, 1).
func Int16ToFloat32(samples []int16) []float32 {
	res := make([]float32, len(samples))
	for i, s := range samples {
		res[i] = float32(s) / 32768
	}
	return res
}

// AdjustChannels converts audio frames between mono and stereo.
func AdjustChannels(iChs, oChs int, audioFrames []float32) []float32 {
	// mono -> stereo
	if iChs == 1 && oChs == 2 {
		res := make([]float32, 0, len(audioFrames)*2)
		// left channel = right channel
		for _, frame := range audioFrames {
			res = append(res, frame)
			res = append(res, frame)
		}
		return res
	}

	// stereo -> mono
	res := make([]float32, 0, len(audioFrames)/2)
	// chop off the right channel
	for i := 0; i < len(audioFrames); i += 2 {
		res = append(res, audioFrames[i])
	}
	return res
}

// AdjustVolume scales the audio frames with the given volume.
func AdjustVolume(volume float32, audioFrames []float32) {
	for i := 0; i < len(audioFrames); i++ {
		audioFrames[i] *= volume
	}
}

// AdjustGain scales int16 samples with the given gain, clamping the
// result to the int16 range.
func AdjustGain(gain float32, samples []int16) {
	if gain == 1 {
		return
	}
	for i, s := range samples {
		v := float32(s) * gain
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		samples[i] = int16(v)
	}
}
