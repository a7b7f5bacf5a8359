/*
Copyright © 2026 Spamman4587
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Spamman4587/chromabot/internal/game"
	"github.com/Spamman4587/chromabot/internal/store"
)

// worldRegion is one map entry in a world definition file.
type worldRegion struct {
	Name     string   `yaml:"name"`
	Channel  string   `yaml:"channel"`
	Owner    string   `yaml:"owner"`
	Capital  string   `yaml:"capital"`
	Adjacent []string `yaml:"adjacent"`
}

// worldPlayer is one pre-registered participant in a world definition file.
type worldPlayer struct {
	Name      string `yaml:"name"`
	Team      string `yaml:"team"`
	Rank      string `yaml:"rank"`
	Region    string `yaml:"region"`
	Leader    bool   `yaml:"leader"`
	Loyalists int    `yaml:"loyalists"`
}

type worldFile struct {
	Regions []worldRegion `yaml:"regions"`
	Players []worldPlayer `yaml:"players"`
}

// worldCmd represents the world command
var worldCmd = &cobra.Command{
	Use:   "world [file]",
	Short: "Seed the region map and roster from a world definition",
	Long: `Loads a YAML world definition into the database. The file lists the
regions (with ownership, capitals, and adjacency) and optionally a
starting roster of players. Loading is idempotent on region names:
rerunning with an already-seeded database fails rather than duplicating
the map.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read world file: %w", err)
		}
		var world worldFile
		if err := yaml.Unmarshal(raw, &world); err != nil {
			return fmt.Errorf("failed to parse world file: %w", err)
		}
		if len(world.Regions) == 0 {
			return fmt.Errorf("world file %s defines no regions", args[0])
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		tx, err := st.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := seedWorld(ctx, tx, &world); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit world: %w", err)
		}
		fmt.Printf("Loaded %d regions and %d players from %s\n",
			len(world.Regions), len(world.Players), args[0])
		return nil
	},
}

func seedWorld(ctx context.Context, tx *store.Tx, world *worldFile) error {
	ids := make(map[string]int64, len(world.Regions))

	for _, wr := range world.Regions {
		owner, ok := game.ParseTeam(wr.Owner)
		if !ok {
			return fmt.Errorf("region %s: unknown owner %q", wr.Name, wr.Owner)
		}
		region := &game.Region{
			Name:    wr.Name,
			Channel: wr.Channel,
			Owner:   owner,
		}
		if wr.Capital != "" {
			capital, ok := game.ParseTeam(wr.Capital)
			if !ok {
				return fmt.Errorf("region %s: unknown capital team %q", wr.Name, wr.Capital)
			}
			region.Capital = &capital
		}
		if err := tx.CreateRegion(ctx, region); err != nil {
			return fmt.Errorf("failed to create region %s: %w", wr.Name, err)
		}
		ids[wr.Name] = region.ID
	}

	// Adjacency is declared one-way in the file; the store records both
	// directions.
	seen := make(map[[2]int64]bool)
	for _, wr := range world.Regions {
		for _, neighbor := range wr.Adjacent {
			to, ok := ids[neighbor]
			if !ok {
				return fmt.Errorf("region %s: unknown neighbor %q", wr.Name, neighbor)
			}
			from := ids[wr.Name]
			key := [2]int64{from, to}
			if from > to {
				key = [2]int64{to, from}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if err := tx.AddAdjacency(ctx, from, to); err != nil {
				return fmt.Errorf("failed to link %s and %s: %w", wr.Name, neighbor, err)
			}
		}
	}

	for _, wp := range world.Players {
		team, ok := game.ParseTeam(wp.Team)
		if !ok {
			return fmt.Errorf("player %s: unknown team %q", wp.Name, wp.Team)
		}
		rank := game.RankRecruit
		if wp.Rank != "" {
			if rank, ok = game.ParseRank(wp.Rank); !ok {
				return fmt.Errorf("player %s: unknown rank %q", wp.Name, wp.Rank)
			}
		}
		regionID, ok := ids[wp.Region]
		if !ok {
			return fmt.Errorf("player %s: unknown region %q", wp.Name, wp.Region)
		}
		loyalists := wp.Loyalists
		if loyalists <= 0 {
			loyalists = 100
		}
		player := &game.Player{
			Name:       wp.Name,
			Team:       team,
			Rank:       rank,
			Leader:     wp.Leader,
			RegionID:   regionID,
			Loyalists:  loyalists,
			Defectable: true,
		}
		if err := tx.CreatePlayer(ctx, player); err != nil {
			return fmt.Errorf("failed to create player %s: %w", wp.Name, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(worldCmd)
}
