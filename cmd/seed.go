/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ilng/roster/internal/seed"
	"github.com/ilng/roster/internal/server"
)

var (
	seedFile          string
	seedAdminPassword string
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate an empty store with the initial roster",
	Long: `Loads a YAML seed document (the built-in roster when --file is not
given) into an empty store. Refuses to run when users already exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file := seedFile
		if file == "" {
			file = cfg.SeedFile
		}
		doc, err := seed.Load(file)
		if err != nil {
			return err
		}

		rt, err := server.OpenRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		res, err := seed.Apply(cmd.Context(), rt.Store, rt.Audit, doc, seed.Options{AdminPassword: seedAdminPassword})
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"users":  res.Users,
			"units":  res.Units,
			"awards": res.Awards,
		}).Info("Seeded store")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed document (defaults to SEED_FILE or the built-in roster)")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for Admin accounts that have none")
}
