// Package speaker implements the audio.Sink interface for a local
// soundcard output device.
package speaker

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	ringBuffer "github.com/dh1tw/golang-ring"
	"github.com/dh1tw/gosamplerate"
	pa "github.com/gordonklaus/portaudio"

	"github.com/voicebridge/audiopipe/audio"
)

// Speaker implements the audio.Sink interface and is used to play
// audio on a local audio output device.
type Speaker struct {
	sync.RWMutex
	options    Options
	deviceInfo *pa.DeviceInfo
	stream     *pa.Stream
	ring       ringBuffer.Ring
	stash      []float32
	volume     float32
	src        src
	bufFill    bool // indicates if the buffer is filling up
}

// src contains a samplerate converter and its needed variables
type src struct {
	gosamplerate.Src
	samplerate float64
	ratio      float64
}

// NewSpeaker returns a new playback sink for a specific audio output
// device. This is typically a speaker or a pair of headphones.
func NewSpeaker(opts ...Option) (*Speaker, error) {

	s := &Speaker{
		options: Options{
			DeviceName:      "default",
			HostAPI:         "default",
			Channels:        2,
			Samplerate:      48000,
			FramesPerBuffer: 480,
			RingBufferSize:  10,
			Latency:         time.Millisecond * 10,
		},
		deviceInfo: nil,
		ring:       ringBuffer.Ring{},
		volume:     0.7,
	}

	for _, option := range opts {
		option(&s.options)
	}

	// setup a samplerate converter
	srConv, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, s.options.Channels, 65536)
	if err != nil {
		return nil, fmt.Errorf("speaker: %v", err)
	}

	s.src = src{
		Src:        srConv,
		samplerate: s.options.Samplerate,
		ratio:      1,
	}

	var hostAPI *pa.HostApiInfo

	if s.options.HostAPI == "default" {
		switch runtime.GOOS {
		case "windows":
			// try to use WASAPI since it provides lower latency than the
			// other windows audio apis
			ha, err := pa.HostApi(pa.WASAPI)
			if err != nil {
				// try to fallback to the default API
				ha, err = pa.DefaultHostApi()
				if err != nil {
					return nil, fmt.Errorf("unable to determine the default host api - please provide a specific host api")
				}
			}
			hostAPI = ha
		default:
			// all other OS
			ha, err := pa.DefaultHostApi()
			if err != nil {
				return nil, fmt.Errorf("unable to determine the default host api - please provide a specific host api")
			}
			hostAPI = ha
		}
	} else {
		// non-default HostAPI
		ha, err := getHostAPI(s.options.HostAPI)
		if err != nil {
			return nil, err
		}
		hostAPI = ha
	}

	if s.options.DeviceName == "default" {
		s.deviceInfo = hostAPI.DefaultOutputDevice
	} else {
		dev, err := getPaDevice(s.options.DeviceName, hostAPI)
		if err != nil {
			return nil, err
		}
		s.deviceInfo = dev
	}

	// setup Audio Stream
	streamDeviceParam := pa.StreamDeviceParameters{
		Device:   s.deviceInfo,
		Channels: s.options.Channels,
		Latency:  s.options.Latency,
	}

	streamParm := pa.StreamParameters{
		FramesPerBuffer: s.options.FramesPerBuffer,
		Output:          streamDeviceParam,
		SampleRate:      s.options.Samplerate,
	}

	// setup ring buffer
	s.ring.SetCapacity(s.options.RingBufferSize)

	stream, err := pa.OpenStream(streamParm, s.playCb)
	if err != nil {
		return nil,
			fmt.Errorf("unable to open playback audio stream on device %s: %s",
				s.options.DeviceName, err)
	}

	s.stream = stream
	log.Printf("output sound device: %s, HostAPI: %s\n", s.deviceInfo.Name, s.deviceInfo.HostApi.Name)

	return s, nil
}

// portaudio callback which will be called continuously when the stream is
// started; this function should be short and never block
func (s *Speaker) playCb(in []float32,
	iTime pa.StreamCallbackTimeInfo,
	iFlags pa.StreamCallbackFlags) {
	switch iFlags {
	case pa.OutputUnderflow:
		log.Println("Output Underflow")
		return // move on!
	case pa.OutputOverflow:
		log.Println("Output Overflow")
		return // move on!
	}

	var data interface{}

	s.Lock()
	bufFill := s.bufFill
	bufCapacity := s.ring.Capacity()
	bufLength := s.ring.Length()
	// when filling up the buffer, don't dequeue data
	if !bufFill {
		//pull data from Ringbuffer
		data = s.ring.Dequeue()
	}
	s.Unlock()

	// start filling buffer when buffer runs empty
	if bufLength == 0 {
		s.Lock()
		s.bufFill = true
		s.Unlock()
	}

	if bufFill {
		// stop filling buffer when it's again half full
		if bufLength >= bufCapacity/2 {
			s.bufFill = false
		}
	}

	// if no data is available we fill the audio package with silence
	if data == nil {
		for i := 0; i < len(in); i++ {
			in[i] = 0
		}
		return
	}

	audioData := data.([]float32)

	// should never happen
	if len(audioData) != len(in) {
		log.Printf("unable to play audio frame; expected frame size %d, but got %d",
			len(in), len(audioData))
		return
	}

	//copy data into buffer
	copy(in, audioData)
}

// Start starts streaming audio to the soundcard output device.
func (s *Speaker) Start() error {
	if s.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	return s.stream.Start()
}

// Stop stops streaming audio.
func (s *Speaker) Stop() error {
	if s.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	return s.stream.Stop()
}

// Close shuts down properly the soundcard audio device.
func (s *Speaker) Close() error {
	if s.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	s.stream.Abort()
	s.stream.Stop()
	return nil
}

// SetVolume sets the volume for all upcoming audio frames.
func (s *Speaker) SetVolume(v float32) {
	s.Lock()
	defer s.Unlock()
	if v < 0 {
		s.volume = 0
	} else if v > 1 {
		s.volume = 1
	} else {
		s.volume = v
	}
}

// Volume returns the current volume.
func (s *Speaker) Volume() float32 {
	s.RLock()
	defer s.RUnlock()
	return s.volume
}

// Write converts the PCM frames in the audio buffer into the format of
// the output device and queues them into a ring buffer for playback.
func (s *Speaker) Write(msg audio.Msg) error {

	var err error

	// convert the raw 16-bit PCM into normalized float32 frames
	aData := audio.Int16ToFloat32(audio.BytesToInt16(msg.Data))

	// if necessary adjust the amount of audio channels
	if msg.Channels != s.options.Channels {
		aData = audio.AdjustChannels(msg.Channels, s.options.Channels, aData)
	}

	// if necessary, resample the audio
	if float64(msg.Samplerate) != s.options.Samplerate {
		if s.src.samplerate != float64(msg.Samplerate) {
			s.src.Reset()
			s.src.samplerate = float64(msg.Samplerate)
			s.src.ratio = s.options.Samplerate / float64(msg.Samplerate)
		}
		aData, err = s.src.Process(aData, s.src.ratio, false)
		if err != nil {
			return err
		}
	}

	// audio buffer size we want to write into our ring buffer
	// (size expected by portaudio callback)
	expBufferSize := s.options.FramesPerBuffer * s.options.Channels

	// if there is data stashed from previous calls, get it and prepend it
	// to the data received
	if len(s.stash) > 0 {
		aData = append(s.stash, aData...)
		s.stash = s.stash[:0] // empty
	}

	// if the audio buffer size is actually smaller than the one we need,
	// then stash it for the next time and return
	if len(aData) < expBufferSize {
		s.stash = aData
		return nil
	}

	// slice of audio buffers which will be enqueued into the ring buffer
	var bData [][]float32

	// if the aData contains multiples of the expected buffer size,
	// then we chop it into (several) buffers
	if len(aData) >= expBufferSize {
		s.Lock()
		vol := s.volume
		s.Unlock()

		for len(aData) >= expBufferSize {
			if vol != 1 {
				// if necessary, adjust the volume
				audio.AdjustVolume(vol, aData[:expBufferSize])
			}
			bData = append(bData, aData[:expBufferSize])
			aData = aData[expBufferSize:]
		}
	}

	// stash the left over
	if len(aData) > 0 {
		s.stash = aData
	}

	s.enqueue(bData)

	return nil
}

func (s *Speaker) enqueue(bData [][]float32) {
	s.Lock()
	defer s.Unlock()
	for _, frame := range bData {
		s.ring.Enqueue(frame)
	}
}

// Flush clears all internal buffers
func (s *Speaker) Flush() {
	s.Lock()
	defer s.Unlock()

	// delete the stash
	s.stash = []float32{}

	s.ring = ringBuffer.Ring{}
	s.ring.SetCapacity(s.options.RingBufferSize)
}

// getHostAPI takes the name of a supported portaudio host api and returns
// the corresponding portaudio hostApiInfo object
func getHostAPI(name string) (*pa.HostApiInfo, error) {

	var hostAPIType pa.HostApiType

	switch strings.ToLower(name) {
	case "indevelopment":
		hostAPIType = pa.InDevelopment
	case "directsound":
		hostAPIType = pa.DirectSound
	case "mme":
		hostAPIType = pa.MME
	case "asio":
		hostAPIType = pa.ASIO
	case "soundmanager":
		hostAPIType = pa.SoundManager
	case "coreaudio":
		hostAPIType = pa.CoreAudio
	case "oss":
		hostAPIType = pa.OSS
	case "alsa":
		hostAPIType = pa.ALSA
	case "al":
		hostAPIType = pa.AL
	case "beos":
		hostAPIType = pa.BeOS
	case "wdmks":
		hostAPIType = pa.WDMkS
	case "jack":
		hostAPIType = pa.JACK
	case "wasapi":
		hostAPIType = pa.WASAPI
	case "audiosciencehpi":
		hostAPIType = pa.AudioScienceHPI
	default:
		return nil, fmt.Errorf("unknown host api type: %s", name)
	}

	hostAPIInfo, err := pa.HostApi(hostAPIType)
	if err != nil {
		return nil, fmt.Errorf("unable to load host api %s: %s", name, err.Error())
	}

	return hostAPIInfo, nil
}

// getPaDevice checks if the Audio Device actually exists and
// then returns it
func getPaDevice(name string, hostAPI *pa.HostApiInfo) (*pa.DeviceInfo, error) {
	for _, device := range hostAPI.Devices {
		if strings.EqualFold(device.Name, name) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("unknown audio device '%s'", name)
}
