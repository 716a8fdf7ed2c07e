package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"buildlog/internal/buildevent"
	"buildlog/internal/engine"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var noSummary bool

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Feed a recorded build event stream through a fresh engine",
		Long: "Replay decodes a recorded build event stream (NDJSON or MessagePack) and\n" +
			"emits the correlated records to the configured console and sinks.\n" +
			"Reads stdin when no file or - is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			path := "-"
			if len(args) == 1 {
				path = strings.TrimSpace(args[0])
			}
			src, format, err := openSource(cmd, path, formatFlag)
			if err != nil {
				return err
			}
			defer src.Close()

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			dec, err := buildevent.NewDecoder(src, format)
			if err != nil {
				return err
			}
			p, err := newPipeline(signalCtx, cfg)
			if err != nil {
				return err
			}
			eng := engine.New(p.emitter, engine.WithLogger(p.diag))
			_, runErr := buildevent.Run(signalCtx, dec, eng)

			flushCtx, flushCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout()+time.Second)
			defer flushCancel()
			closeErr := p.Close(flushCtx)

			if !noSummary {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(eng.Summary()))
			}
			if runErr != nil {
				return fmt.Errorf("replay %s: %w", displayPath(path), runErr)
			}
			if sum := eng.Summary(); sum.State != engine.StateFinished {
				return fmt.Errorf("replay %s: stream ended with the build %s", displayPath(path), sum.State)
			}
			return closeErr
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Event stream format (ndjson|msgpack); guessed from the file extension when empty")
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "Do not print the build summary table")
	return cmd
}

func openSource(cmd *cobra.Command, path, formatFlag string) (io.ReadCloser, buildevent.Format, error) {
	format := buildevent.FormatFromPath(path)
	if strings.TrimSpace(formatFlag) != "" {
		parsed, err := buildevent.ParseFormat(formatFlag)
		if err != nil {
			return nil, "", err
		}
		format = parsed
	}
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), format, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open event stream: %w", err)
	}
	return f, format, nil
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
