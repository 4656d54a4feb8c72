package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/dashboard"
	"github.com/ziadkadry99/umlgen/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser chat",
	Long:  `Starts the umlgen web server with the chat dashboard, a websocket conversation endpoint and the render/download API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		port := appConfig.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: serveAllowAll,
		}, logger)

		srv.Mount(dashboard.New(dashboard.Config{
			Gateway:           a.gateway,
			Renderer:          a.renderer,
			Credentials:       a.keys,
			Generations:       a.history,
			Observer:          a.recorder(),
			Provider:          string(appConfig.Provider),
			Format:            a.format,
			GenerationTimeout: appConfig.Timeout(),
			Logger:            logger,
		}))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "umlgen %s starting on http://localhost:%d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", appConfig.Provider, appConfig.Model)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.db.Path())

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow cross-origin requests from any origin")
	rootCmd.AddCommand(serveCmd)
}
