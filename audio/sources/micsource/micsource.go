// Package micsource implements the audio.Source interface for a local
// soundcard input device (e.g. a microphone).
package micsource

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/voicebridge/audiopipe/audio"
)

// MicSource implements the audio.Source interface and is used to record
// audio from a local sound card (e.g. microphone).
type MicSource struct {
	sync.RWMutex
	options    Options
	deviceInfo *pa.DeviceInfo
	stream     *pa.Stream
	cb         audio.OnDataCb
}

// NewMicSource returns a soundcard reader which streams 16-bit PCM audio
// asynchronously from a local audio device.
func NewMicSource(opts ...Option) (*MicSource, error) {

	if err := pa.Initialize(); err != nil {
		return nil, err
	}

	m := &MicSource{
		options: Options{
			HostAPI:         "default",
			DeviceName:      "default",
			Samplerate:      16000,
			FramesPerBuffer: 800,
			Latency:         time.Millisecond * 10,
		},
		deviceInfo: nil,
	}

	for _, option := range opts {
		option(&m.options)
	}

	var hostAPI *pa.HostApiInfo

	if m.options.HostAPI == "default" {
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
		ha, err := getHostAPI(m.options.HostAPI)
		if err != nil {
			return nil, err
		}
		hostAPI = ha
	}

	if m.options.DeviceName == "default" {
		m.deviceInfo = hostAPI.DefaultInputDevice
	} else {
		dev, err := getPaDevice(m.options.DeviceName, hostAPI)
		if err != nil {
			return nil, err
		}
		m.deviceInfo = dev
	}

	// setup Audio Stream
	streamDeviceParam := pa.StreamDeviceParameters{
		Device:   m.deviceInfo,
		Channels: 1,
		Latency:  m.options.Latency,
	}

	streamParm := pa.StreamParameters{
		FramesPerBuffer: m.options.FramesPerBuffer,
		Input:           streamDeviceParam,
		SampleRate:      float64(m.options.Samplerate),
	}

	stream, err := pa.OpenStream(streamParm, m.paReadCb)
	if err != nil {
		return nil,
			fmt.Errorf("unable to open recording audio stream on device %s: %s",
				m.deviceInfo.Name, err)
	}
	m.stream = stream

	log.Printf("input sound device: %s, HostAPI: %s\n", m.deviceInfo.Name, m.deviceInfo.HostApi.Name)
	return m, nil
}

// SetCb sets the callback which will be executed to provide audio buffers.
func (m *MicSource) SetCb(cb audio.OnDataCb) {
	m.Lock()
	defer m.Unlock()
	m.cb = cb
}

// paReadCb is the callback which will be executed each time there is new
// data available on the stream
func (m *MicSource) paReadCb(in []int16,
	iTime pa.StreamCallbackTimeInfo,
	iFlags pa.StreamCallbackFlags) {

	if iFlags == pa.InputOverflow {
		log.Println("InputOverflow")
		return // data lost, move on!
	}

	m.RLock()
	cb := m.cb
	m.RUnlock()

	if cb == nil {
		return
	}

	// a deep copy is necessary, since portaudio reuses the slice "in"
	buf := audio.Int16ToBytes(in)

	msg := audio.Msg{
		Data:       buf,
		Samplerate: m.options.Samplerate,
		Channels:   1,
		Frames:     len(in),
	}

	// execute the callback for further processing
	go cb(msg)
}

// Start will start streaming audio from the local soundcard device.
// The read audio buffers will be provided through the callback.
func (m *MicSource) Start() error {
	if m.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	return m.stream.Start()
}

// Stop stops streaming audio.
func (m *MicSource) Stop() error {
	if m.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	return m.stream.Stop()
}

// Close shuts down properly the soundcard reader.
func (m *MicSource) Close() error {
	if m.stream == nil {
		return fmt.Errorf("portaudio stream not initialized")
	}
	m.stream.Abort()
	m.stream.Stop()
	return nil
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
