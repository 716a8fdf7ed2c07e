package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"buildlog/internal/logging"
)

const userAgent = "buildlog/0.1"

// SeqOptions configures a Seq sink.
type SeqOptions struct {
	Endpoint       string
	APIKey         string
	BatchSize      int
	FlushInterval  time.Duration
	RequestTimeout time.Duration
	// Client overrides the HTTP client; RequestTimeout is ignored when set.
	Client *http.Client
	// Logger receives delivery failures. It must not write into the hub.
	Logger *slog.Logger
}

// SeqStats counts delivery outcomes. Lost counts events the hub overwrote
// before this sink fetched them.
type SeqStats struct {
	Batches int
	Sent    int
	Failed  int
	Lost    int
}

// Seq drains a StreamHub and posts batches to <endpoint>/api/events/raw.
type Seq struct {
	hub       *logging.StreamHub
	url       string
	apiKey    string
	batchSize int
	interval  time.Duration
	client    *http.Client
	logger    *slog.Logger

	mu     sync.Mutex
	cursor uint64
	stats  SeqStats

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSeq validates opts and returns a stopped sink. Call Start to begin
// background delivery.
func NewSeq(hub *logging.StreamHub, opts SeqOptions) (*Seq, error) {
	if hub == nil {
		return nil, errors.New("seq sink requires a stream hub")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("seq sink requires an endpoint")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	client := opts.Client
	if client == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Seq{
		hub:       hub,
		url:       endpoint + "/api/events/raw?clef",
		apiKey:    strings.TrimSpace(opts.APIKey),
		batchSize: opts.BatchSize,
		interval:  opts.FlushInterval,
		client:    client,
		logger:    logging.NewComponentLogger(opts.Logger, "seq"),
	}, nil
}

// Start launches the flush loop. It is a no-op when already started.
func (s *Seq) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

func (s *Seq) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("seq flush failed", logging.Error(err))
			}
		}
	}
}

// Flush posts everything published since the last flush, one batch at a
// time. Batches that fail are logged and skipped so one bad request cannot
// stall delivery. The returned error joins every batch failure.
func (s *Seq) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for {
		events, _, err := s.hub.Fetch(ctx, s.cursor, s.batchSize, false)
		if err != nil {
			return errors.Join(append(errs, err)...)
		}
		if len(events) == 0 {
			return errors.Join(errs...)
		}
		if first := events[0].Sequence; first > s.cursor+1 {
			s.stats.Lost += int(first - s.cursor - 1)
		}
		if err := s.post(ctx, events); err != nil {
			if ctx.Err() != nil {
				// Leave the batch for the next flush.
				s.cursor = events[0].Sequence - 1
				return errors.Join(append(errs, err)...)
			}
			s.cursor = events[len(events)-1].Sequence
			s.stats.Failed += len(events)
			errs = append(errs, err)
			continue
		}
		s.cursor = events[len(events)-1].Sequence
		s.stats.Batches++
		s.stats.Sent += len(events)
	}
}

// Close stops the flush loop and delivers what is still buffered. ctx
// bounds the final flush.
func (s *Seq) Close(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	return s.Flush(ctx)
}

// Stats returns delivery counters.
func (s *Seq) Stats() SeqStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Seq) post(ctx context.Context, events []logging.LogEvent) error {
	payload, skipped := encodeBatch(events)
	for _, err := range skipped {
		s.logger.Warn("dropping unencodable event", logging.Error(err))
	}
	if len(payload) == 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build seq request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", ContentType)
	if s.apiKey != "" {
		req.Header.Set("X-Seq-ApiKey", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send seq batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("seq returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
