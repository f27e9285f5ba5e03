// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Elambeth/mm-archive/internal/query"
	"github.com/Elambeth/mm-archive/internal/viewer"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask the archive a question",
	Long: `Ask sends one question to the question-answering service and prints the
answer with its numbered sources. A progress line runs while the answer is
being prepared.

The question and answer replace the previously saved session. Use --open
to launch the viewer on one of the sources once the answer arrives.`,
	Example: `  mm-archive ask "What is ROIC?"
  mm-archive ask --open 1 how do moats erode`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	openN, _ := cmd.Flags().GetInt("open")
	check, _ := cmd.Flags().GetBool("check")
	printOnly, _ := cmd.Flags().GetBool("print")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if check {
		if err := a.client.Ping(ctx); err != nil {
			return fmt.Errorf("service check: %w", err)
		}
	}

	a.controller.Subscribe(a.render.Update)

	submitErr := a.controller.Submit(ctx, strings.Join(args, " "))
	if errors.Is(submitErr, query.ErrEmptyQuery) || errors.Is(submitErr, query.ErrInFlight) {
		return submitErr
	}

	v := a.controller.View()
	if err := a.render.Session(v); err != nil {
		return err
	}
	if submitErr != nil {
		return fmt.Errorf("%w: %v", errReported, submitErr)
	}

	if openN == 0 {
		return nil
	}
	src, ok := v.Source(openN)
	if !ok {
		return fmt.Errorf("no source %d (answer has %d)", openN, len(v.Sources()))
	}
	return a.openHandoff(viewer.BuildHandoff(src), printOnly)
}

func init() {
	askCmd.Flags().Int("open", 0, "open source N in the viewer after answering")
	askCmd.Flags().Bool("check", false, "check the service is reachable before asking")
	askCmd.Flags().Bool("print", false, "with --open, print the document link instead of launching the viewer")
	rootCmd.AddCommand(askCmd)
}
