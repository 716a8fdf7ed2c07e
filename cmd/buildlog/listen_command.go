package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"buildlog/internal/buildevent"
	"buildlog/internal/config"
	"buildlog/internal/engine"
	"buildlog/internal/listener"
	"buildlog/internal/logging"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept build event streams on a socket, one build per connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bindFlag != "" {
				cfg.Listener.Bind = bindFlag
			}
			format, err := buildevent.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			p, err := newPipeline(signalCtx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout()+time.Second)
				defer flushCancel()
				if err := p.Close(flushCtx); err != nil {
					p.diag.Warn("sink shutdown incomplete", logging.Error(err))
				}
			}()

			network, addr := cfg.ListenNetwork()
			if network == "unix" {
				if addr, err = config.ExpandPath(addr); err != nil {
					return fmt.Errorf("resolve socket path: %w", err)
				}
			}
			srv, err := listener.New(listener.Options{
				Network:  network,
				Address:  addr,
				LockPath: cfg.Listener.LockPath,
				Format:   format,
				Emitter:  p.emitter,
				Logger:   p.diag,
				OnBuild: func(sum engine.Summary) {
					p.diag.Info("build correlated",
						logging.String(logging.FieldBuildID, sum.BuildID),
						logging.String("state", sum.State.String()),
						logging.Int(logging.FieldWarnings, sum.Warnings),
						logging.Int(logging.FieldErrors, sum.Errors),
						logging.Duration(logging.FieldTimeElapsed, sum.Elapsed),
					)
				},
			})
			if err != nil {
				return fmt.Errorf("start listener: %w", err)
			}
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s %s\n", network, srv.Addr())
			return srv.Serve(signalCtx)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "ndjson", "Event stream format (ndjson|msgpack)")
	cmd.Flags().StringVar(&bindFlag, "bind", "", "host:port or unix socket path; overrides listener.bind")
	return cmd
}
