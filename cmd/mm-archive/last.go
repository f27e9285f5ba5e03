// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/Elambeth/mm-archive/internal/query"
	"github.com/Elambeth/mm-archive/pkg/types"
)

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the last saved question and answer",
	Long: `Last restores the previously saved session and prints it. An absent or
unreadable session prints "No previous session." and is not an error.`,
	RunE: runLast,
}

// lastSession is the exported form of a restored session.
type lastSession struct {
	Query  string             `json:"query" yaml:"query"`
	Result types.AnswerResult `json:"result" yaml:"result"`
}

func runLast(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q: use text, json, or yaml", format)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if !a.controller.RestoreLastSession(cmd.Context()) {
		fmt.Fprintln(out, "No previous session.")
		return nil
	}
	v := a.controller.View()

	switch format {
	case "json":
		return writeJSON(out, v)
	case "yaml":
		return writeYAML(out, v)
	default:
		return a.render.Session(v)
	}
}

func exportSession(v query.ViewModel) lastSession {
	s := lastSession{Query: v.Query}
	if v.Result != nil {
		s.Result = *v.Result
	}
	return s
}

func writeJSON(w io.Writer, v query.ViewModel) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(exportSession(v)); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v query.ViewModel) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportSession(v)); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return enc.Close()
}

func init() {
	lastCmd.Flags().String("format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(lastCmd)
}
