/*
Copyright © 2026 Spamman4587
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Spamman4587/chromabot/internal/command"
	"github.com/Spamman4587/chromabot/internal/courier"
	"github.com/Spamman4587/chromabot/internal/engine"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot: poll the inbox and dispatch player orders",
	Long: `Connects to the messaging platform, polls the bot's inbox, and
dispatches every new message as a game order. Each order runs in its own
database transaction; battle clocks are advanced by the companion
"tick" command (typically from cron).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := engine.New(engineConfig())
		if err != nil {
			return err
		}

		client := courier.NewClient(viper.GetString("api_base"), viper.GetString("api_token"))
		dispatcher := command.NewDispatcher(st, eng, client, command.Config{
			Recruitment: viper.GetString("recruitment"),
		})

		log.Printf("chromabot serving as %s", viper.GetString("bot_username"))
		courier.NewWorker(client, dispatcher, pollInterval()).Start()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
