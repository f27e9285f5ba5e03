// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elambeth/mm-archive/internal/papers"
)

var papersCmd = &cobra.Command{
	Use:   "papers [filter]",
	Short: "List the papers in the archive",
	Long: `Papers lists the archive, optionally filtered by a case-insensitive title
substring or a year substring. Open an entry with "view --paper <id>".`,
	Example: `  mm-archive papers
  mm-archive papers capital
  mm-archive papers 2014`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		all, err := a.client.Papers(cmd.Context())
		if err != nil {
			return err
		}
		a.render.Papers(papers.Filter(all, strings.Join(args, " ")))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(papersCmd)
}
