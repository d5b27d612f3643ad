/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ilng/roster/internal/ranks"
)

// ranksCmd represents the ranks command
var ranksCmd = &cobra.Command{
	Use:   "ranks",
	Short: "Print the rank table",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tLEVEL\tTIER")
		for _, r := range ranks.All() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Code, r.Name, r.Level, r.Tier)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(ranksCmd)
}
