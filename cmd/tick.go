/*
Copyright © 2026 Spamman4587
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Spamman4587/chromabot/internal/courier"
	"github.com/Spamman4587/chromabot/internal/engine"
)

// tickCmd represents the tick command
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Advance the game clock once: complete arrivals, resolve due battles",
	Long: `Completes every movement order whose arrival time has passed and
resolves every battle whose clock has run out, in a single transaction.
Intended to run from cron alongside "serve".`,
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

		ctx := context.Background()
		tx, err := st.Begin(ctx)
		if err != nil {
			return err
		}
		report, err := eng.Tick(ctx, tx, time.Now())
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("tick failed: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit tick: %w", err)
		}

		log.Printf("tick: %d arrivals, %d battles resolved", len(report.Arrivals), len(report.Resolved))

		// Outcome announcements are informational; the resolution itself is
		// already committed, so a courier failure only costs the post.
		client := courier.NewClient(viper.GetString("api_base"), viper.GetString("api_token"))
		for _, result := range report.Resolved {
			if _, err := client.Reply(result.Battle.SubmissionID, outcomeText(result)); err != nil {
				log.Printf("Error announcing outcome of battle %d: %v", result.Battle.ID, err)
			}
		}
		return nil
	},
}

// outcomeText renders the reply posted under a battle thread once it
// has been resolved.
func outcomeText(result *engine.BattleResult) string {
	text := fmt.Sprintf("The battle for %s is over!  The **%s** armies are victorious!",
		result.Region.Name, result.Outcome.Winner)
	if result.Outcome.Margin != 0 {
		text = fmt.Sprintf("%s  (Victory margin: %.0f)", text, result.Outcome.Margin)
	}
	return text
}

func init() {
	rootCmd.AddCommand(tickCmd)
}
