package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voicebridge/audiopipe/audio/chain"
	"github.com/voicebridge/audiopipe/audio/sinks/natswriter"
	"github.com/voicebridge/audiopipe/audio/sinks/speaker"
	"github.com/voicebridge/audiopipe/audio/sinks/wavwriter"
	"github.com/voicebridge/audiopipe/audio/sinks/wswriter"
	"github.com/voicebridge/audiopipe/audiocodec/opus"
	"github.com/voicebridge/audiopipe/pipe"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [wav file]",
	Short: "Stream a WAV file in real-time paced chunks",
	Long: `Stream a WAV file in real-time paced chunks

The file is converted once into 16-bit mono PCM at the target samplerate
(stereo is downmixed, other samplerates are resampled) and then streamed
chunk by chunk at playback cadence to the enabled audio sinks.

By default the audio is played on the local speaker. Additional sinks
can be enabled for recording the converted audio into a wav file,
publishing it on a NATS subject or forwarding it to a websocket server.
`,
	Args: cobra.ExactArgs(1),
	Run:  play,
}

func init() {
	RootCmd.AddCommand(playCmd)
	playCmd.Flags().Int("samplerate", 16000, "target samplerate in Hz")
	playCmd.Flags().Int("chunk-size", 1600, "chunk size in bytes")
	playCmd.Flags().Bool("no-speaker", false, "disable local audio playback")
	playCmd.Flags().StringP("output-device-name", "o", "default", "output device")
	playCmd.Flags().Float64("output-samplerate", 48000, "samplerate of the output device")
	playCmd.Flags().Int("output-channels", 2, "channels of the output device")
	playCmd.Flags().Duration("output-latency", 0, "latency of the output device")
	playCmd.Flags().Int("frames-per-buffer", 480, "audio frames per playback buffer")
	playCmd.Flags().Int("rx-buffer-length", 10, "length of the playback ring buffer")
	playCmd.Flags().StringP("record", "r", "", "record the converted audio into this wav file")
	playCmd.Flags().String("ws-url", "", "forward the audio to this websocket server")
	playCmd.Flags().StringP("subject", "s", "", "publish the audio on this NATS subject")
	playCmd.Flags().StringP("broker-url", "u", "localhost", "Broker URL")
	playCmd.Flags().IntP("broker-port", "p", 4222, "Broker Port")
	playCmd.Flags().StringP("username", "U", "", "NATS Username")
	playCmd.Flags().StringP("password", "P", "", "NATS Password")
	playCmd.Flags().Bool("opus", false, "encode the published audio with the opus codec")
}

func play(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("audio.samplerate", cmd.Flags().Lookup("samplerate"))
	viper.BindPFlag("audio.chunk-size", cmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag("audio.no-speaker", cmd.Flags().Lookup("no-speaker"))
	viper.BindPFlag("output-device.device-name", cmd.Flags().Lookup("output-device-name"))
	viper.BindPFlag("output-device.samplerate", cmd.Flags().Lookup("output-samplerate"))
	viper.BindPFlag("output-device.channels", cmd.Flags().Lookup("output-channels"))
	viper.BindPFlag("output-device.latency", cmd.Flags().Lookup("output-latency"))
	viper.BindPFlag("audio.frames-per-buffer", cmd.Flags().Lookup("frames-per-buffer"))
	viper.BindPFlag("audio.rx-buffer-length", cmd.Flags().Lookup("rx-buffer-length"))
	viper.BindPFlag("record.file", cmd.Flags().Lookup("record"))
	viper.BindPFlag("websocket.url", cmd.Flags().Lookup("ws-url"))
	viper.BindPFlag("nats.subject", cmd.Flags().Lookup("subject"))
	viper.BindPFlag("nats.broker-url", cmd.Flags().Lookup("broker-url"))
	viper.BindPFlag("nats.broker-port", cmd.Flags().Lookup("broker-port"))
	viper.BindPFlag("nats.username", cmd.Flags().Lookup("username"))
	viper.BindPFlag("nats.password", cmd.Flags().Lookup("password"))
	viper.BindPFlag("nats.opus", cmd.Flags().Lookup("opus"))

	if err := checkAudioParameterValues(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// viper settings need to be copied in local variables
	// since viper lookups allocate of each lookup a copy
	samplerate := viper.GetInt("audio.samplerate")
	chunkSize := viper.GetInt("audio.chunk-size")
	noSpeaker := viper.GetBool("audio.no-speaker")

	oDeviceName := viper.GetString("output-device.device-name")
	oSamplerate := viper.GetFloat64("output-device.samplerate")
	oChannels := viper.GetInt("output-device.channels")
	oLatency := viper.GetDuration("output-device.latency")
	framesPerBuffer := viper.GetInt("audio.frames-per-buffer")
	ringBufferLength := viper.GetInt("audio.rx-buffer-length")

	recordFile := viper.GetString("record.file")
	wsURL := viper.GetString("websocket.url")
	natsSubject := viper.GetString("nats.subject")

	// the file source is a one-shot session; it must not be declared
	// as the chain's default source, otherwise the end-of-file
	// fallback would restart it
	c, err := chain.NewChain(
		chain.DefaultSink("speaker"))
	if err != nil {
		exit(err)
	}

	defaultSink := ""

	if !noSpeaker {
		portaudio.Initialize()
		defer portaudio.Terminate()

		spkrOpts := []speaker.Option{
			speaker.DeviceName(oDeviceName),
			speaker.Samplerate(oSamplerate),
			speaker.Channels(oChannels),
			speaker.FramesPerBuffer(framesPerBuffer),
			speaker.RingBufferSize(ringBufferLength),
		}
		if oLatency > 0 {
			spkrOpts = append(spkrOpts, speaker.Latency(oLatency))
		}

		spkr, err := speaker.NewSpeaker(spkrOpts...)
		if err != nil {
			exit(err)
		}
		defer spkr.Close()

		c.Sinks.AddSink("speaker", spkr, false)
		if err := c.Sinks.EnableSink("speaker", true); err != nil {
			exit(err)
		}
		defaultSink = "speaker"
	}

	if len(recordFile) > 0 {
		rec, err := wavwriter.NewWavWriter(recordFile,
			wavwriter.Samplerate(samplerate),
			wavwriter.Channels(1),
			wavwriter.BitDepth(16))
		if err != nil {
			exit(err)
		}
		defer rec.Close()

		c.Sinks.AddSink("record", rec, false)
		if err := c.Sinks.EnableSink("record", true); err != nil {
			exit(err)
		}
		if len(defaultSink) == 0 {
			defaultSink = "record"
		}
	}

	if len(wsURL) > 0 {
		ws, err := wswriter.NewWsWriter(wsURL)
		if err != nil {
			exit(err)
		}
		defer ws.Close()

		c.Sinks.AddSink("websocket", ws, false)
		if err := c.Sinks.EnableSink("websocket", true); err != nil {
			exit(err)
		}
		if len(defaultSink) == 0 {
			defaultSink = "websocket"
		}
	}

	if len(natsSubject) > 0 {
		if viper.GetBool("nats.opus") {
			// the emitted chunks are handed to the encoder as-is
			if err := checkOpusFrameLength("audio.chunk-size", samplerate, chunkSize/2); err != nil {
				exit(err)
			}
		}

		nw, nc, err := natsSink(natsSubject, samplerate)
		if err != nil {
			exit(err)
		}
		defer nc.Close()

		c.Sinks.AddSink("nats", nw, false)
		if err := c.Sinks.EnableSink("nats", true); err != nil {
			exit(err)
		}
		if len(defaultSink) == 0 {
			defaultSink = "nats"
		}
	}

	if len(defaultSink) == 0 {
		exit(fmt.Errorf("no audio sink enabled"))
	}

	p, err := pipe.NewPipe(pipe.Options{
		Chain:       c,
		DefaultSink: defaultSink,
		Samplerate:  samplerate,
		ChunkSize:   chunkSize,
	})
	if err != nil {
		exit(err)
	}

	if err := p.StartFile(args[0]); err != nil {
		exit(err)
	}

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)

	ended := make(chan error, 1)
	go func() {
		ended <- p.Wait()
	}()

	select {
	case sig := <-osSignals:
		fmt.Println("received signal:", sig)
		p.Stop()
		<-ended
	case err := <-ended:
		if err != nil {
			exit(err)
		}
	}

	c.Sinks.Flush()
}

// natsSink connects to the configured NATS broker and returns a sink
// publishing on the given subject. The caller owns the returned
// connection.
func natsSink(subject string, samplerate int) (*natswriter.NatsWriter, *nats.Conn, error) {

	natsUsername := viper.GetString("nats.username")
	natsPassword := viper.GetString("nats.password")
	natsBrokerURL := viper.GetString("nats.broker-url")
	natsBrokerPort := viper.GetInt("nats.broker-port")
	natsAddr := fmt.Sprintf("nats://%s:%v", natsBrokerURL, natsBrokerPort)

	nc, err := nats.Connect(natsAddr,
		nats.UserInfo(natsUsername, natsPassword))
	if err != nil {
		return nil, nil, err
	}

	opts := []natswriter.Option{}

	if viper.GetBool("nats.opus") {
		// values checked before
		opusApplication, _ := getOpusApplication(viper.GetString("opus.application"))
		opusMaxBandwidth, _ := getOpusMaxBandwith(viper.GetString("opus.max-bandwidth"))

		enc, err := opus.NewEncoder(
			opus.Samplerate(samplerate),
			opus.Channels(1),
			opus.Application(opusApplication),
			opus.MaxBandwidth(opusMaxBandwidth),
			opus.Bitrate(viper.GetInt("opus.bitrate")),
			opus.Complexity(viper.GetInt("opus.complexity")))
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		opts = append(opts, natswriter.Encoder(enc))
	}

	nw, err := natswriter.NewNatsWriter(nc, subject, opts...)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nw, nc, nil
}
