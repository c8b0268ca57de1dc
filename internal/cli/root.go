package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/groundcheck/groundcheck/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundcheck",
	Short: "GroundCheck - claim extraction and verification for AI answers",
	Long: `GroundCheck watches streamed AI assistant answers, waits for each
answer to settle, extracts checkable claims from it and verifies them
against public fact-check publishers.

The repository ships both halves: the response-tracking pipeline
(watcher, rate limiter, orchestrator, indicators) and the analysis
service it talks to.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("groundcheck v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.groundcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.groundcheck")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GROUNDCHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig layers viper state over the built-in defaults
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetInt("watch.debounceMs"); v > 0 {
		cfg.Watch.DebounceMs = v
	}
	if v := viper.GetInt("rateLimit.extract.max"); v > 0 {
		cfg.RateLimit.Extract.Max = v
	}
	if v := viper.GetInt("rateLimit.extract.windowMs"); v > 0 {
		cfg.RateLimit.Extract.WindowMs = v
	}
	if v := viper.GetInt("rateLimit.verify.max"); v > 0 {
		cfg.RateLimit.Verify.Max = v
	}
	if v := viper.GetInt("rateLimit.verify.windowMs"); v > 0 {
		cfg.RateLimit.Verify.WindowMs = v
	}
	if v := viper.GetDuration("http.timeout"); v > 0 {
		cfg.HTTP.Timeout = v
	}
	if v := viper.GetString("http.userAgent"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := viper.GetString("service.addr"); v != "" {
		cfg.Service.Addr = v
	}
	if v := viper.GetString("service.baseUrl"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := viper.GetString("service.googleApiKey"); v != "" {
		cfg.Service.GoogleAPIKey = v
	}
	if v := os.Getenv("GOOGLE_FACTCHECK_API_KEY"); v != "" {
		cfg.Service.GoogleAPIKey = v
	}
	if v := viper.GetInt("service.cacheTtlSeconds"); v > 0 {
		cfg.Service.CacheTTLSeconds = v
	}
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	return cfg
}
