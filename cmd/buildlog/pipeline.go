package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"buildlog/internal/config"
	"buildlog/internal/logging"
	"buildlog/internal/sink"
)

// pipeline owns everything between the engine and the outside world: the
// record logger, the stream hub and the sinks draining it.
type pipeline struct {
	logger  *slog.Logger
	diag    *slog.Logger
	emitter *logging.Emitter
	hub     *logging.StreamHub
	seq     *sink.Seq
	file    *sink.File
}

func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	// Diagnostics go to stderr and never into the hub, so sink failures
	// cannot feed back into the sinks.
	diag, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
		Color:       cfg.Logging.Color,
	})
	if err != nil {
		return nil, fmt.Errorf("diagnostic logger: %w", err)
	}

	p := &pipeline{diag: diag}
	if cfg.SinkEnabled() || cfg.Sink.File != "" {
		p.hub = logging.NewStreamHub(cfg.Sink.QueueSize)
	}
	if cfg.Sink.File != "" {
		file, err := sink.OpenFile(cfg.Sink.File, diag)
		if err != nil {
			return nil, err
		}
		p.file = file
		p.hub.AddSink(file)
	}
	if cfg.SinkEnabled() {
		seq, err := sink.NewSeq(p.hub, sink.SeqOptions{
			Endpoint:       cfg.Sink.Endpoint,
			APIKey:         cfg.Sink.APIKey,
			BatchSize:      cfg.Sink.BatchSize,
			FlushInterval:  cfg.FlushInterval(),
			RequestTimeout: cfg.RequestTimeout(),
			Logger:         diag,
		})
		if err != nil {
			p.closeFile()
			return nil, err
		}
		seq.Start(ctx)
		p.seq = seq
	}

	logger, err := logging.NewFromConfig(cfg, p.hub)
	if err != nil {
		_ = p.Close(ctx)
		return nil, fmt.Errorf("build logger: %w", err)
	}
	p.logger = logger
	p.emitter = logging.NewEmitter(logger)
	return p, nil
}

// Close flushes the Seq sink and closes the file sink, then warns about any
// record a sink failed to deliver. ctx bounds the final flush.
func (p *pipeline) Close(ctx context.Context) error {
	var errs []error
	if p.seq != nil {
		if err := p.seq.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush seq sink: %w", err))
		}
		stats := p.seq.Stats()
		if stats.Lost > 0 {
			p.diag.Warn("seq sink fell behind; records were overwritten before delivery",
				logging.Int("lost", stats.Lost),
				logging.Int("sent", stats.Sent),
			)
		}
		if stats.Failed > 0 {
			p.diag.Warn("seq sink rejected records",
				logging.Int("failed", stats.Failed),
				logging.Int("sent", stats.Sent),
			)
		}
	}
	if p.file != nil {
		if failed := p.file.Failed(); failed > 0 {
			p.diag.Warn("clef file sink could not write records", logging.Int("failed", failed))
		}
	}
	if err := p.closeFile(); err != nil {
		errs = append(errs, fmt.Errorf("close clef file: %w", err))
	}
	if p.hub != nil {
		p.hub.Close()
	}
	return errors.Join(errs...)
}

func (p *pipeline) closeFile() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}
