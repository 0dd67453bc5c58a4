package vox

import (
	"testing"
	"time"

	"github.com/voicebridge/audiopipe/audio"
)

func loudMsg() audio.Msg {
	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = 16000
	}
	return audio.Msg{
		Data:       audio.Int16ToBytes(samples),
		Samplerate: 16000,
		Channels:   1,
		Frames:     len(samples),
	}
}

func silentMsg() audio.Msg {
	return audio.Msg{
		Data:       make([]byte, 1600),
		Samplerate: 16000,
		Channels:   1,
		Frames:     800,
	}
}

func TestVoxActivation(t *testing.T) {

	states := make(chan bool, 10)

	v := New(
		Threshold(0.1),
		HoldTime(10*time.Millisecond),
		StateChanged(func(on bool) { states <- on }))

	forwarded := make(chan audio.Msg, 10)
	v.SetCb(func(msg audio.Msg) { forwarded <- msg })

	if err := v.Write(loudMsg()); err != nil {
		t.Fatal(err)
	}

	select {
	case on := <-states:
		if !on {
			t.Error("expected vox activation")
		}
	case <-time.After(time.Second):
		t.Fatal("vox did not activate")
	}

	if !v.Active() {
		t.Error("vox should report active")
	}

	select {
	case <-forwarded:
	case <-time.After(time.Second):
		t.Fatal("message was not forwarded")
	}
}

func TestVoxDeactivatesAfterHoldTime(t *testing.T) {

	states := make(chan bool, 10)

	v := New(
		Threshold(0.1),
		HoldTime(20*time.Millisecond),
		StateChanged(func(on bool) { states <- on }))
	v.SetCb(func(audio.Msg) {})

	v.Write(loudMsg())

	select {
	case <-states:
	case <-time.After(time.Second):
		t.Fatal("vox did not activate")
	}

	// silence within the hold time must not deactivate
	v.Write(silentMsg())
	select {
	case on := <-states:
		t.Fatalf("unexpected state change to %v within hold time", on)
	case <-time.After(5 * time.Millisecond):
	}

	time.Sleep(30 * time.Millisecond)
	v.Write(silentMsg())

	select {
	case on := <-states:
		if on {
			t.Error("expected vox deactivation")
		}
	case <-time.After(time.Second):
		t.Fatal("vox did not deactivate")
	}
}

func TestVoxForwardsWithoutStateChangeCb(t *testing.T) {

	v := New()

	forwarded := make(chan audio.Msg, 1)
	v.SetCb(func(msg audio.Msg) { forwarded <- msg })

	if err := v.Write(loudMsg()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-forwarded:
	case <-time.After(time.Second):
		t.Fatal("message was not forwarded")
	}
}

func TestVoxIgnoresWritesWithoutCb(t *testing.T) {

	v := New(StateChanged(func(bool) {
		t.Error("state change without a set callback")
	}))

	if err := v.Write(loudMsg()); err != nil {
		t.Fatal(err)
	}
}
