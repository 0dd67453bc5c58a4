package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "audiopipe",
	Short: "stream audio from WAV files and microphones in real-time",
	Long: `audiopipe converts WAV files and live audio feeds into a normalized
16-bit mono PCM stream and forwards it in real-time paced chunks to one
or more audio sinks (local speaker, wav recording, NATS, websocket).
`,
}

// Execute adds all child commands to the root command and sets the flags
// appropriately. This is called by main(). It only needs to happen once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.audiopipe.[yaml|toml|json])")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetConfigName(".audiopipe")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
}

// readConfig tries to load the config file and reports its usage.
func readConfig() {
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	} else {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound ||
			os.IsNotExist(err) {
			fmt.Println("no config file found")
		} else {
			fmt.Fprintf(os.Stderr, "Error parsing config file %v: %v\n",
				viper.ConfigFileUsed(), err)
			os.Exit(1)
		}
	}
}

func exit(err error) {
	fmt.Println(err)
	os.Exit(1)
}
