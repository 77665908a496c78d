package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"viewshell/bridge"
	"viewshell/events"
	"viewshell/pdfexport"
)

func serveCommand() *cobra.Command {
	var socketPath, chromeURL string

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Run the export host",
		Long: `Run the export host. The command bridge listens on a Unix socket
for the UI glue. When path names an existing file or folder, an open-file or
open-folder event is queued for the first client that reports ready.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("socket") {
				cfg.SocketPath = socketPath
			}
			if cmd.Flags().Changed("chrome-url") {
				cfg.ChromeURL = chromeURL
			}

			var launchPath string
			if len(args) == 1 {
				launchPath = args[0]
			}
			return runServe(cfg, launchPath)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "bridge socket path (default under the user config dir)")
	cmd.Flags().StringVar(&chromeURL, "chrome-url", "", "DevTools URL of a running browser (chromium builds)")
	return cmd
}

// runServe must be called on the main goroutine: it runs the platform loop.
func runServe(cfg *Config, launchPath string) error {
	if err := cfg.ensureDirs(); err != nil {
		return err
	}
	logCloser, err := setupLogging(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	platform := NewPlatform()

	native, err := pdfexport.NewNative(pdfexport.NativeOptions{ChromeURL: cfg.ChromeURL})
	switch {
	case errors.Is(err, pdfexport.ErrUnsupported):
		logrus.Warnf("pdf export: no native backend in this build, exports will fail")
	case err != nil:
		return fmt.Errorf("failed to start %s backend: %w", pdfexport.Backend, err)
	}
	if closer, ok := native.(io.Closer); ok {
		defer closer.Close()
	}

	exporter := pdfexport.New(native, pdfexport.WithMainThread(platform))
	registry := pdfexport.NewRegistry()
	relay := events.NewRelay(cfg.EventBacklog)

	platform.OnOpenFiles(openFilesHandler(relay))

	router := bridge.NewExportRouter(registry, exporter, platform)
	srv, err := bridge.NewBridgeServer(cfg.SocketPath, router, relay)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.SocketPath, err)
	}

	if ev, ok := launchEvent(launchPath); ok {
		logrus.WithFields(logrus.Fields{"event": ev.Name, "path": ev.Payload}).Info("launch: queued startup event")
		relay.Emit(ev)
	}

	go hostSurface(platform, registry)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
		platform.Quit()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		if sig, ok := <-sigc; ok {
			logrus.Infof("received %s, shutting down", sig)
			platform.Quit()
		}
	}()

	logrus.WithFields(logrus.Fields{
		"version": version,
		"backend": pdfexport.Backend,
		"socket":  cfg.SocketPath,
	}).Info("viewshell host started")

	platform.Run()

	srv.Close()
	if err := <-serveErr; err != nil {
		return fmt.Errorf("bridge server: %w", err)
	}
	logrus.Info("viewshell host stopped")
	return nil
}
