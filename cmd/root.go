package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/timelinekit/timeline/internal/utils"
	"github.com/timelinekit/timeline/pkg/enhance"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timeline",
	Short: "A personal timeline of life and career events.",
	Long: `timeline keeps a hero profile and a list of dated events in a local store.

Items and the profile can be edited from the command line, backed up to a JSON
file and restored from one. The optional enhancement service rewrites short
texts through a language model.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.timeline.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy for enhancement calls (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().String("storage", "", "Path to the SQLite storage file (default is $HOME/.config/timeline/timeline.sqlite)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	_ = viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("storage"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".timeline")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	_ = viper.BindEnv("enhance.api_key", "NEBIUS_API_KEY")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".timeline.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func setDefaults() {
	viper.SetDefault("storage.path", "")
	viper.SetDefault("seed.path", "")

	viper.SetDefault("enhance.api_key", "")
	viper.SetDefault("enhance.endpoint", enhance.DefaultEndpoint)
	viper.SetDefault("enhance.model", enhance.DefaultModel)
	viper.SetDefault("enhance.language", "Japanese")
	viper.SetDefault("enhance.max_tokens", enhance.DefaultMaxTokens)
	viper.SetDefault("enhance.temperature", enhance.DefaultTemperature)
	viper.SetDefault("enhance.retries", 2)
	viper.SetDefault("enhance.cache_size", enhance.DefaultCacheSize)
	viper.SetDefault("enhance.url", "http://localhost:8787/api/enhance")

	viper.SetDefault("server.listen", ":8787")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
}
