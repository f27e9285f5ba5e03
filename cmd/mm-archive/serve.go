// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Elambeth/mm-archive/internal/viewer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local PDF corpus under /pdfs/",
	Long: `Serve exposes viewer.pdf_dir over HTTP so document links resolve against
a local copy of the corpus. Point viewer.base_url at the listen address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		gin.SetMode(gin.ReleaseMode)
		srv, err := viewer.NewServer(cfg.Viewer.PDFDir, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.Viewer.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
