// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Elambeth/mm-archive/internal/papers"
	"github.com/Elambeth/mm-archive/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view [n]",
	Short: "Open a cited paper at the cited page",
	Long: `View opens source n (1-based) of the saved answer in the document viewer,
positioned at the cited page. With --paper it opens a listing entry at
page 1 instead. Use --print to show the link without launching a viewer.`,
	Example: `  mm-archive view 2
  mm-archive view --paper p17 --print`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	paperID, _ := cmd.Flags().GetString("paper")
	printOnly, _ := cmd.Flags().GetBool("print")

	if paperID == "" && len(args) == 0 {
		return errors.New("specify a source number or --paper <id>")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if paperID != "" {
		all, err := a.client.Papers(ctx)
		if err != nil {
			return err
		}
		p, ok := papers.Find(all, paperID)
		if !ok {
			return fmt.Errorf("paper %q not found", paperID)
		}
		return a.openHandoff(viewer.HandoffFromPaper(p), printOnly)
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid source number %q", args[0])
	}
	if !a.controller.RestoreLastSession(ctx) {
		fmt.Fprintln(cmd.OutOrStdout(), "No previous session.")
		return nil
	}
	v := a.controller.View()
	src, ok := v.Source(n)
	if !ok {
		return fmt.Errorf("no source %d (answer has %d)", n, len(v.Sources()))
	}
	return a.openHandoff(viewer.BuildHandoff(src), printOnly)
}

func init() {
	viewCmd.Flags().String("paper", "", "open a listing entry by id at page 1")
	viewCmd.Flags().Bool("print", false, "print the document link instead of launching the viewer")
	rootCmd.AddCommand(viewCmd)
}
