package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"training-analyzer/export"
	"training-analyzer/metrics"
	"training-analyzer/render"
	"training-analyzer/server"
	"training-analyzer/services"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides HTTP_ADDR")
	return cmd
}

func (a *app) serve(parent context.Context, addr string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("=== Training analyzer starting ===")
	a.logger.Info("Config | store: %s | collection: %s | max upload: %d bytes",
		a.cfg.StoreDriver, a.table.Collection, a.cfg.MaxUploadBytes)

	rec := metrics.NewRecorder()
	reports := a.reports(ctx, rec)
	defer reports.Close()

	formatter := services.NewFormatter(a.table)
	renderer, err := render.New(formatter, a.table.NoticeDismiss, a.cfg.Location())
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Analyzer:  services.NewAnalyzer(a.table, a.logger, rec),
		Reports:   reports,
		PDF:       export.NewPDFRenderer(a.cfg.ChromeBin, a.cfg.PDFConcurrency, a.cfg.PDFTimeout, a.logger),
		Renderer:  renderer,
		Formatter: formatter,
		Metrics:   rec,
		Logger:    a.logger,
	}, server.Options{
		MaxUploadBytes:  a.cfg.MaxUploadBytes,
		MaxPayloadBytes: a.cfg.MaxPayloadBytes,
		MaxLoadRecords:  a.table.MaxLoadRecords,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, addr)
	})
	if err := g.Wait(); err != nil {
		a.logger.Error("[server] %v", err)
		return err
	}

	a.logger.Info("=== Training analyzer stopped ===")
	return nil
}
