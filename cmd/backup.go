/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ilng/roster/internal/server"
	"github.com/ilng/roster/internal/services"
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a snapshot of the store to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := server.OpenRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		key, err := rt.Services.Admin.SystemBackup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Replace the store with a snapshot from object storage",
	Long: `Downloads a snapshot uploaded by "roster backup" and makes it the
current document. The key may be the full object key or its timestamp.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := server.OpenRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.Backups == nil {
			return services.ErrBackupsDisabled
		}
		snap, err := rt.Backups.DownloadSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := rt.Services.Admin.Restore(cmd.Context(), args[0], snap); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"key":   args[0],
			"users": len(snap.Users),
		}).Info("Restored snapshot")
		return nil
	},
}

var listBackupsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := server.OpenRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.Backups == nil {
			return services.ErrBackupsDisabled
		}
		keys, err := rt.Backups.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(restoreCmd)
	backupCmd.AddCommand(listBackupsCmd)
}
