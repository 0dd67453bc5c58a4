package main

import "github.com/voicebridge/audiopipe/cmd"

func main() {
	cmd.Execute()
}
