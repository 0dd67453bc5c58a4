package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voicebridge/audiopipe/audio/chain"
	"github.com/voicebridge/audiopipe/audio/nodes/vox"
	"github.com/voicebridge/audiopipe/audio/sinks/wavwriter"
	"github.com/voicebridge/audiopipe/audio/sinks/wswriter"
	"github.com/voicebridge/audiopipe/audio/sources/micsource"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Stream audio from a microphone",
	Long: `Stream audio from a microphone

The microphone input is captured as 16-bit mono PCM at the target
samplerate and forwarded through a voice activity detector (vox) to the
enabled audio sinks. The audio can be recorded into a wav file,
published on a NATS subject or forwarded to a websocket server.

In order to find the supported audio devices and audio host APIs
for your platform run:

$ audiopipe enumerate
`,
	Run: capture,
}

func init() {
	RootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Int("samplerate", 16000, "target samplerate in Hz")
	captureCmd.Flags().StringP("input-device-name", "i", "default", "input device")
	captureCmd.Flags().String("input-host-api", "default", "input host API")
	captureCmd.Flags().Duration("input-latency", 0, "latency of the input device")
	captureCmd.Flags().Int("frames-per-buffer", 800, "audio frames captured per buffer")
	captureCmd.Flags().Float32("vox-threshold", 0.1, "RMS level above which audio counts as voice")
	captureCmd.Flags().Duration("vox-hold-time", 0, "hold time before the vox deactivates")
	captureCmd.Flags().StringP("record", "r", "", "record the captured audio into this wav file")
	captureCmd.Flags().String("ws-url", "", "forward the audio to this websocket server")
	captureCmd.Flags().StringP("subject", "s", "", "publish the audio on this NATS subject")
	captureCmd.Flags().StringP("broker-url", "u", "localhost", "Broker URL")
	captureCmd.Flags().IntP("broker-port", "p", 4222, "Broker Port")
	captureCmd.Flags().StringP("username", "U", "", "NATS Username")
	captureCmd.Flags().StringP("password", "P", "", "NATS Password")
	captureCmd.Flags().Bool("opus", false, "encode the published audio with the opus codec")
}

func capture(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	viper.BindPFlag("audio.samplerate", cmd.Flags().Lookup("samplerate"))
	viper.BindPFlag("input-device.device-name", cmd.Flags().Lookup("input-device-name"))
	viper.BindPFlag("input-device.host-api", cmd.Flags().Lookup("input-host-api"))
	viper.BindPFlag("input-device.latency", cmd.Flags().Lookup("input-latency"))
	viper.BindPFlag("audio.frames-per-buffer", cmd.Flags().Lookup("frames-per-buffer"))
	viper.BindPFlag("vox.threshold", cmd.Flags().Lookup("vox-threshold"))
	viper.BindPFlag("vox.hold-time", cmd.Flags().Lookup("vox-hold-time"))
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

	samplerate := viper.GetInt("audio.samplerate")

	iDeviceName := viper.GetString("input-device.device-name")
	iHostAPI := viper.GetString("input-device.host-api")
	iLatency := viper.GetDuration("input-device.latency")
	framesPerBuffer := viper.GetInt("audio.frames-per-buffer")

	voxThreshold := float32(viper.GetFloat64("vox.threshold"))
	voxHoldTime := viper.GetDuration("vox.hold-time")

	recordFile := viper.GetString("record.file")
	wsURL := viper.GetString("websocket.url")
	natsSubject := viper.GetString("nats.subject")

	portaudio.Initialize()
	defer portaudio.Terminate()

	micOpts := []micsource.Option{
		micsource.DeviceName(iDeviceName),
		micsource.HostAPI(iHostAPI),
		micsource.Samplerate(samplerate),
		micsource.FramesPerBuffer(framesPerBuffer),
	}
	if iLatency > 0 {
		micOpts = append(micOpts, micsource.Latency(iLatency))
	}

	mic, err := micsource.NewMicSource(micOpts...)
	if err != nil {
		exit(err)
	}
	defer mic.Close()

	voxOpts := []vox.Option{
		vox.Threshold(voxThreshold),
		vox.StateChanged(func(on bool) {
			if on {
				log.Println("voice activity detected")
			} else {
				log.Println("voice activity stopped")
			}
		}),
	}
	if voxHoldTime > 0 {
		voxOpts = append(voxOpts, vox.HoldTime(voxHoldTime))
	}

	c, err := chain.NewChain(
		chain.DefaultSource("mic"),
		chain.Node(vox.New(voxOpts...)))
	if err != nil {
		exit(err)
	}

	sinks := 0

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
		sinks++
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
		sinks++
	}

	if len(natsSubject) > 0 {
		if viper.GetBool("nats.opus") {
			// each captured buffer is handed to the encoder as-is
			if err := checkOpusFrameLength("audio.frames-per-buffer", samplerate, framesPerBuffer); err != nil {
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
		sinks++
	}

	if sinks == 0 {
		exit(fmt.Errorf("no audio sink enabled"))
	}

	c.Sources.AddSource("mic", mic)
	if err := c.Sources.SetSource("mic"); err != nil {
		exit(err)
	}

	fmt.Println("capturing audio - press ctrl-c to stop")

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
	<-osSignals

	mic.Stop()
	c.Sinks.Flush()
}
