package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/hraban/opus.v2"
)

func init() {
	viper.SetDefault("opus.application", "voip")
	viper.SetDefault("opus.max-bandwidth", "wideband")
	viper.SetDefault("opus.bitrate", 24000)
	viper.SetDefault("opus.complexity", 5)
}

func checkAudioParameterValues() error {

	if sr := viper.GetInt("audio.samplerate"); sr <= 0 {
		return &parmError{
			parm: "audio.samplerate",
			msg:  "value must be > 0",
		}
	}

	if cs := viper.GetInt("audio.chunk-size"); cs < 0 || cs%2 != 0 {
		return &parmError{
			parm: "audio.chunk-size",
			msg:  "value must be a positive, even amount of bytes",
		}
	}

	if chs := viper.GetInt("output-device.channels"); chs < 0 || chs > 2 {
		return &parmError{
			parm: "output-device.channels",
			msg:  "allowed values are [1 (Mono), 2 (Stereo)]",
		}
	}

	opusBw := viper.GetString("opus.max-bandwidth")
	if _, err := getOpusMaxBandwith(opusBw); err != nil {
		return &parmError{
			parm: "opus.max-bandwidth",
			msg:  "allowed values are NARROWBAND, MEDIUMBAND, WIDEBAND, SUPERWIDEBAND, FULLBAND",
		}
	}

	opusApp := viper.GetString("opus.application")
	if _, err := getOpusApplication(opusApp); err != nil {
		return &parmError{
			parm: "opus.application",
			msg:  "allowed values are VOIP, AUDIO or RESTRICTED_LOWDELAY",
		}
	}

	if viper.GetInt("opus.bitrate") < 6000 || viper.GetInt("opus.bitrate") > 510000 {
		return &parmError{
			parm: "opus.bitrate",
			msg:  "allowed values are [6000...510000]",
		}
	}

	if viper.GetInt("opus.complexity") < 0 || viper.GetInt("opus.complexity") > 10 {
		return &parmError{
			parm: "opus.complexity",
			msg:  "allowed values are [0...10]",
		}
	}

	return nil
}

// checkOpusFrameLength verifies that buffers of the given length can
// be consumed by the opus codec. Opus only accepts frames of 2.5, 5,
// 10, 20, 40 or 60 ms.
func checkOpusFrameLength(parm string, samplerate, samples int) error {

	// valid opus frame durations are 2.5, 5, 10, 20, 40 and 60 ms
	switch samples {
	case samplerate / 400,
		samplerate / 200,
		samplerate / 100,
		samplerate / 50,
		samplerate / 25,
		samplerate * 3 / 50:
		return nil
	}

	return &parmError{
		parm: parm,
		msg: fmt.Sprintf("%d samples (%.1f ms at %d Hz) is not a valid opus frame; opus accepts frames of 2.5, 5, 10, 20, 40 or 60 ms",
			samples, float64(samples)/float64(samplerate)*1000, samplerate),
	}
}

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v\n", p.parm, p.msg)
}

// getOpusApplication returns the integer representation of a
// Opus application value string (typically read from application settings)
func getOpusApplication(app string) (opus.Application, error) {
	switch strings.ToLower(app) {
	case "audio":
		return opus.AppAudio, nil
	case "restricted_lowdelay":
		return opus.AppRestrictedLowdelay, nil
	case "voip":
		return opus.AppVoIP, nil
	}
	return 0, errors.New("unknown opus application value")
}

// getOpusMaxBandwith returns the integer representation of an
// Opus max bandwidth value string (typically read from application settings)
func getOpusMaxBandwith(maxBw string) (opus.Bandwidth, error) {
	switch strings.ToLower(maxBw) {
	case "narrowband":
		return opus.Narrowband, nil
	case "mediumband":
		return opus.Mediumband, nil
	case "wideband":
		return opus.Wideband, nil
	case "superwideband":
		return opus.SuperWideband, nil
	case "fullband":
		return opus.Fullband, nil
	}

	return 0, errors.New("unknown opus max bandwidth value")
}
