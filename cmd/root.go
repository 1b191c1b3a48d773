package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jobease/jobfill/internal/utils"
	"github.com/jobease/jobfill/pkg/engine"
	"github.com/jobease/jobfill/pkg/siteprefs"
	"github.com/jobease/jobfill/pkg/storage"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobfill",
	Short: "Autofill job application forms from your profile.",
	Long: `jobfill fills job application forms from a stored profile: names, contact
details, education, employment dates, yes/no screening questions and resume
uploads. With site preferences enabled it also remembers the answers you give
to site specific questions and replays them on your next visit.`,
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
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobfill.yaml)")

	// Global flags
	rootCmd.PersistentFlags().String("dbpath", "", "Path to the SQLite store (default is ~/.config/jobfill/jobfill.sqlite)")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy used to fetch pages (Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

	viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("dbpath"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".jobfill")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("jobfill")
	viper.AutomaticEnv()

	viper.SetDefault("store.path", "")
	viper.SetDefault("store.lock_timeout", 30*time.Second)
	viper.SetDefault("siteprefs.overlap", siteprefs.DefaultOverlap)
	viper.SetDefault("siteprefs.capture_delay", siteprefs.DefaultCaptureDelay)
	viper.SetDefault("attach.simulate_drop", true)
	viper.SetDefault("diagnostics.enabled", false)
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".jobfill.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// engineConfig builds the session configuration from viper.
func engineConfig() engine.Config {
	return engine.Config{
		Overlap:      viper.GetInt("siteprefs.overlap"),
		CaptureDelay: viper.GetDuration("siteprefs.capture_delay"),
		SimulateDrop: viper.GetBool("attach.simulate_drop"),
		Diagnostics:  viper.GetBool("diagnostics.enabled"),
	}
}

// openStore opens the SQLite store under the cross-process lock. The
// returned function closes the store and releases the lock.
func openStore() (*storage.DB, func(), error) {
	path, err := utils.GetAbsDBPath(viper.GetString("store.path"))
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create store directory: %w", err)
	}

	lock, err := utils.NewStoreLock(path)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("store.lock_timeout"))
	defer cancel()
	if err := lock.Acquire(ctx); err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(path)
	if err != nil {
		lock.Release()
		return nil, nil, fmt.Errorf("open store %s: %w", path, err)
	}
	utils.Log.Debugf("using store %s", path)

	return db, func() {
		db.Close()
		lock.Release()
	}, nil
}
