package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/talentflow-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard views as a JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := currentFilter(cmd)
		if err != nil {
			return err
		}
		addr := settings().ServeAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(newLoader(), server.Options{
			Filter:   f,
			Analysis: analysisOptions(),
			Logger:   logger,
		})
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (default from config)")
}
