/*
Copyright © 2026 Spamman4587
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Spamman4587/chromabot/internal/engine"
	"github.com/Spamman4587/chromabot/internal/store"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chromabot",
	Short: "Team-based territorial conquest bot",
	Long: `chromabot runs a persistent two-team territorial conquest game over
a threaded messaging platform. Players issue orders by sending the bot
messages ("invade sapphire", "lead all to snooland", "attack with 30
cavalry") and the bot answers in-thread, schedules battles, and resolves
them when their clocks run out.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chromabot.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A local .env can hold the API token during development.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".chromabot" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chromabot")
	}

	viper.SetEnvPrefix("chromabot")
	viper.AutomaticEnv() // read in environment variables that match

	viper.SetDefault("db_dialect", "sqlite")
	viper.SetDefault("db_dsn", "chromabot.db")
	viper.SetDefault("battle_delay", "24h")
	viper.SetDefault("battle_duration", "48h")
	viper.SetDefault("battle_lockout", "1h")
	viper.SetDefault("move_speed", "8h")
	viper.SetDefault("poll_interval", "30s")
	viper.SetDefault("recruitment", "chromabot")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openStore connects to the configured database and applies migrations.
func openStore() (*store.Store, error) {
	dialect := store.Dialect(viper.GetString("db_dialect"))
	st, err := store.Open(dialect, viper.GetString("db_dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// engineConfig assembles the game constants from the loaded configuration.
func engineConfig() engine.Config {
	return engine.Config{
		BattleDelay:    viper.GetDuration("battle_delay"),
		BattleDuration: viper.GetDuration("battle_duration"),
		BattleLockout:  viper.GetDuration("battle_lockout"),
		MoveSpeed:      viper.GetDuration("move_speed"),
		Username:       viper.GetString("bot_username"),
		Formula:        viper.GetString("formula"),
	}
}

// pollInterval returns the inbox polling cadence, guarding against a
// zero value hammering the API.
func pollInterval() time.Duration {
	d := viper.GetDuration("poll_interval")
	if d <= 0 {
		d = 30 * time.Second
	}
	return d
}
