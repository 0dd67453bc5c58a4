// Copyright © 2026 The audiopipe Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gordonklaus/portaudio"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voicebridge/audiopipe/audio"
	"github.com/voicebridge/audiopipe/audio/chain"
	"github.com/voicebridge/audiopipe/audio/sinks/speaker"
	"github.com/voicebridge/audiopipe/audiocodec"
	"github.com/voicebridge/audiopipe/audiocodec/opus"
	"github.com/voicebridge/audiopipe/pipe"
	"github.com/voicebridge/audiopipe/webserver"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web control interface",
	Long: `Serve the web control interface

The webserver exposes a REST API and a websocket for starting and
stopping streaming sessions and adjusting the volume. Played audio goes
to the local speaker.

When a NATS subject is configured, audio published on that subject is
fed as a live stream into the pipeline. Live audio is forwarded as-is;
it is expected to be 16-bit mono PCM at the target samplerate.
`,
	Run: serve,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("address", "a", "127.0.0.1", "address of the webserver")
	serveCmd.Flags().IntP("port", "k", 9090, "port of the webserver")
	serveCmd.Flags().Int("samplerate", 16000, "target samplerate in Hz")
	serveCmd.Flags().Int("chunk-size", 1600, "chunk size in bytes")
	serveCmd.Flags().StringP("output-device-name", "o", "default", "output device")
	serveCmd.Flags().Float64("output-samplerate", 48000, "samplerate of the output device")
	serveCmd.Flags().Int("output-channels", 2, "channels of the output device")
	serveCmd.Flags().Int("frames-per-buffer", 480, "audio frames per playback buffer")
	serveCmd.Flags().Int("rx-buffer-length", 10, "length of the playback ring buffer")
	serveCmd.Flags().StringP("subject", "s", "", "receive live audio from this NATS subject")
	serveCmd.Flags().StringP("broker-url", "u", "localhost", "Broker URL")
	serveCmd.Flags().IntP("broker-port", "p", 4222, "Broker Port")
	serveCmd.Flags().StringP("username", "U", "", "NATS Username")
	serveCmd.Flags().StringP("password", "P", "", "NATS Password")
}

func serve(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("web.address", cmd.Flags().Lookup("address"))
	viper.BindPFlag("web.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("audio.samplerate", cmd.Flags().Lookup("samplerate"))
	viper.BindPFlag("audio.chunk-size", cmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag("output-device.device-name", cmd.Flags().Lookup("output-device-name"))
	viper.BindPFlag("output-device.samplerate", cmd.Flags().Lookup("output-samplerate"))
	viper.BindPFlag("output-device.channels", cmd.Flags().Lookup("output-channels"))
	viper.BindPFlag("audio.frames-per-buffer", cmd.Flags().Lookup("frames-per-buffer"))
	viper.BindPFlag("audio.rx-buffer-length", cmd.Flags().Lookup("rx-buffer-length"))
	viper.BindPFlag("nats.subject", cmd.Flags().Lookup("subject"))
	viper.BindPFlag("nats.broker-url", cmd.Flags().Lookup("broker-url"))
	viper.BindPFlag("nats.broker-port", cmd.Flags().Lookup("broker-port"))
	viper.BindPFlag("nats.username", cmd.Flags().Lookup("username"))
	viper.BindPFlag("nats.password", cmd.Flags().Lookup("password"))

	if err := checkAudioParameterValues(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	webAddress := viper.GetString("web.address")
	webPort := viper.GetInt("web.port")
	samplerate := viper.GetInt("audio.samplerate")
	chunkSize := viper.GetInt("audio.chunk-size")

	oDeviceName := viper.GetString("output-device.device-name")
	oSamplerate := viper.GetFloat64("output-device.samplerate")
	oChannels := viper.GetInt("output-device.channels")
	framesPerBuffer := viper.GetInt("audio.frames-per-buffer")
	ringBufferLength := viper.GetInt("audio.rx-buffer-length")

	natsSubject := viper.GetString("nats.subject")

	portaudio.Initialize()
	defer portaudio.Terminate()

	spkr, err := speaker.NewSpeaker(
		speaker.DeviceName(oDeviceName),
		speaker.Samplerate(oSamplerate),
		speaker.Channels(oChannels),
		speaker.FramesPerBuffer(framesPerBuffer),
		speaker.RingBufferSize(ringBufferLength))
	if err != nil {
		exit(err)
	}
	defer spkr.Close()

	c, err := chain.NewChain(chain.DefaultSink("speaker"))
	if err != nil {
		exit(err)
	}

	c.Sinks.AddSink("speaker", spkr, false)
	if err := c.Sinks.EnableSink("speaker", true); err != nil {
		exit(err)
	}

	p, err := pipe.NewPipe(pipe.Options{
		Chain:       c,
		DefaultSink: "speaker",
		Samplerate:  samplerate,
		ChunkSize:   chunkSize,
	})
	if err != nil {
		exit(err)
	}

	if len(natsSubject) > 0 {
		nc, err := connectNats()
		if err != nil {
			exit(err)
		}
		defer nc.Close()

		dec, err := opus.NewDecoder(
			opus.Samplerate(samplerate),
			opus.Channels(1))
		if err != nil {
			exit(err)
		}

		sub, err := subscribeLiveAudio(nc, natsSubject, p, dec, chunkSize)
		if err != nil {
			exit(err)
		}
		defer sub.Unsubscribe()
	}

	web, err := webserver.NewWebServer(webAddress, webPort, p)
	if err != nil {
		exit(err)
	}

	if err := web.Start(); err != nil {
		exit(err)
	}
}

// connectNats establishes a connection to the configured NATS broker.
func connectNats() (*nats.Conn, error) {

	natsUsername := viper.GetString("nats.username")
	natsPassword := viper.GetString("nats.password")
	natsBrokerURL := viper.GetString("nats.broker-url")
	natsBrokerPort := viper.GetInt("nats.broker-port")
	natsAddr := fmt.Sprintf("nats://%s:%v", natsBrokerURL, natsBrokerPort)

	return nats.Connect(natsAddr, nats.UserInfo(natsUsername, natsPassword))
}

// subscribeLiveAudio feeds audio messages received on the given subject
// into a live streaming session of the pipe. A session is started with
// the first received message and ends when a message carries the eof
// header.
func subscribeLiveAudio(nc *nats.Conn, subject string, p *pipe.Pipe,
	dec audiocodec.Decoder, chunkSize int) (*nats.Subscription, error) {

	pcmBuf := make([]int16, chunkSize/2)

	return nc.Subscribe(subject, func(m *nats.Msg) {

		data := m.Data

		if m.Header.Get("codec") == dec.Name() {
			samples, err := dec.Decode(m.Data, pcmBuf)
			if err != nil {
				log.Println("unable to decode audio message:", err)
				return
			}
			data = audio.Int16ToBytes(pcmBuf[:samples])
		}

		ls, err := p.StartLive()
		switch err {
		case nil:
			// new live session started
		case pipe.ErrAlreadyStreaming:
			ls = nil
		default:
			log.Println("unable to start live session:", err)
			return
		}
		if ls == nil {
			ls = p.LiveSession()
			if ls == nil {
				// a file session is in progress; drop the live audio
				return
			}
		}

		if err := ls.Enqueue(data); err != nil {
			log.Println("unable to enqueue live audio:", err)
		}

		if eof, _ := strconv.ParseBool(m.Header.Get("eof")); eof {
			ls.End()
		}
	})
}
