package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"investnotes/internal/schedule"
	"investnotes/internal/scraper"
	"investnotes/internal/store"
	"investnotes/visualization"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data files and the lookup API for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.config.Server.Addr
			}
			return a.serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context, addr string) error {
	s := visualization.NewServer(a.config.Server.DataDir, a.logger)
	if err := s.Reload(); err != nil {
		a.logger.Warn("No stock data loaded yet: %v", err)
	}
	return s.Run(ctx, addr)
}

func newScheduleCmd(a *app) *cobra.Command {
	var runNow, serve, live bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Refresh the data files on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			refresh := func(ctx context.Context) error {
				return a.refresh(ctx, live || a.config.Market.Live)
			}

			if runNow {
				if err := refresh(ctx); err != nil {
					return err
				}
			}

			sched := schedule.New(a.logger)
			if err := sched.Add(a.config.Schedule.Spec, "refresh", refresh); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			a.logger.Info("Refreshing data on schedule %q", a.config.Schedule.Spec)

			if serve {
				return a.serve(ctx, a.config.Server.Addr)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "refresh once before waiting for the schedule")
	cmd.Flags().BoolVar(&serve, "serve", false, "also serve the data files")
	cmd.Flags().BoolVar(&live, "live", false, "read the market lists from Eastmoney")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var browser bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the configuration, the OCR store and optionally the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error

			if err := a.config.ValidateOCR(); err != nil {
				a.logger.Warn("OCR is not usable: %v", err)
			} else {
				a.logger.Info("OCR provider %s configured", a.config.OCR.Provider)
			}

			st, err := store.Open(a.config.OCR.DBPath)
			if err != nil {
				errs = append(errs, fmt.Errorf("store: %w", err))
			} else {
				st.Close()
				a.logger.Info("OCR store %s is writable", a.config.OCR.DBPath)
			}

			if browser {
				s, err := scraper.New(a.logger, a.config)
				if err != nil {
					errs = append(errs, fmt.Errorf("browser: %w", err))
				} else {
					if err := s.PreflightCheck(); err != nil {
						errs = append(errs, err)
					} else {
						a.logger.Info("Browser preflight checks passed")
					}
					s.Close()
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&browser, "browser", false, "also launch the headless browser")
	return cmd
}
