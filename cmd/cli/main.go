package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/big-blue22/keizibann/internal/client"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
	apiURL     string

	cliLog *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "keizibann",
	Short: "keizibann CLI - manage the board from the terminal",
	Long: `keizibann CLI talks to the board's HTTP API for moderation and reads the
store directly for maintenance jobs (view window repair, preview backfill,
demo data and backups).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(configPath); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		initLogger(verbose)
		if cmd.Flags().Changed("output") {
			viper.Set("output.format", outputFmt)
		}
		if cmd.Flags().Changed("api") {
			viper.Set("api.base_url", apiURL)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/keizibann/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format: text or json")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API server URL (default from config, http://localhost:8787)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "keizibann", "config.toml"), nil
}

func initConfig(path string) error {
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	viper.SetConfigType("toml")
	viper.SetConfigFile(path)
	viper.SetEnvPrefix("KEIZIBANN")
	viper.AutomaticEnv()

	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("output.format", "text")
	viper.SetDefault("log.file", filepath.Join(filepath.Dir(path), "cli.log"))

	// a missing file is fine until the first login writes it
	_ = viper.ReadInConfig()
	return nil
}

func initLogger(verbose bool) {
	out := os.Stderr
	if f, err := os.OpenFile(viper.GetString("log.file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil && !verbose {
		out = f
	}
	cliLog = log.NewWithOptions(out, log.Options{ReportTimestamp: true, Prefix: "keizibann"})
	if verbose {
		cliLog.SetLevel(log.DebugLevel)
	}
}

func saveConfig() error {
	return viper.WriteConfigAs(viper.ConfigFileUsed())
}

// apiClient builds a client from config, carrying the saved admin token
func apiClient() *client.Client {
	c := client.New(viper.GetString("api.base_url"), time.Duration(viper.GetInt("api.timeout"))*time.Second)
	c.SetToken(viper.GetString("auth.token"))
	c.OnRequest(func(method, url string) {
		cliLog.Debug("HTTP request", "method", method, "url", url)
	})
	return c
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
