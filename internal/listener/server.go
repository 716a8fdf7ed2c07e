package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"buildlog/internal/buildevent"
	"buildlog/internal/engine"
	"buildlog/internal/logging"
)

// ErrAlreadyRunning is returned when another listener holds the lock.
var ErrAlreadyRunning = errors.New("another buildlog listener is already running")

// Options configures a Server.
type Options struct {
	Network  string
	Address  string
	LockPath string
	Format   buildevent.Format
	// Emitter receives the records of every connection. It must be safe for
	// concurrent use.
	Emitter engine.Emitter
	Logger  *slog.Logger
	// OnBuild, when set, is called with the final summary of each connection.
	OnBuild func(engine.Summary)
}

// Server hosts one engine per accepted connection.
type Server struct {
	opts     Options
	logger   *slog.Logger
	lock     *flock.Flock
	listener net.Listener

	closeOnce sync.Once
}

// New acquires the single-instance lock and binds the socket.
func New(opts Options) (*Server, error) {
	if opts.Network == "" {
		opts.Network = "unix"
	}
	if opts.Format == "" {
		opts.Format = buildevent.FormatNDJSON
	}
	logger := logging.NewComponentLogger(opts.Logger, "listener")

	var lock *flock.Flock
	if opts.LockPath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LockPath), 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
		lock = flock.New(opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
	}

	ln, err := listen(opts.Network, opts.Address)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, err
	}
	return &Server{opts: opts, logger: logger, lock: lock, listener: ln}, nil
}

func listen(network, address string) (net.Listener, error) {
	if network == "unix" {
		dir := filepath.Dir(address)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create socket directory: %w", err)
		}
		if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
			return nil, fmt.Errorf("socket directory %s: insufficient permissions: %w", dir, err)
		}
		if err := os.RemoveAll(address); err != nil {
			return nil, fmt.Errorf("remove existing socket: %w", err)
		}
	}
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s %s: %w", network, address, err)
	}
	return ln, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is canceled, then waits for every
// open connection to finish. It returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("listening for build events",
		logging.String("network", s.opts.Network),
		logging.String("address", s.listener.Addr().String()),
		logging.String("format", string(s.opts.Format)),
	)
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() { s.listener.Close() })
	defer stop()
	g.Go(func() error {
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			g.Go(func() error {
				s.handle(gctx, conn)
				return nil
			})
		}
	})
	return g.Wait()
}

// handle runs one build. Errors end the connection, never the server.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	if remote == "" {
		remote = "local"
	}
	logger := s.logger.With(logging.String("remote", remote))
	logger.Debug("build connection accepted")

	dec, err := buildevent.NewDecoder(conn, s.opts.Format)
	if err != nil {
		logger.Error("unusable event format", logging.Error(err))
		return
	}
	eng := engine.New(s.opts.Emitter, engine.WithLogger(s.opts.Logger))
	n, err := buildevent.Run(ctx, dec, eng)
	sum := eng.Summary()

	attrs := []any{
		logging.Int("events", n),
		logging.String("state", sum.State.String()),
		logging.Int("errors", sum.Errors),
		logging.Int("warnings", sum.Warnings),
	}
	switch {
	case err != nil && ctx.Err() != nil:
		logger.Info("build connection closed by shutdown", attrs...)
	case err != nil:
		logger.Error("build stream aborted", append(attrs, logging.Error(err))...)
	case sum.State != engine.StateFinished:
		logger.Warn("build stream ended before BuildFinished", attrs...)
	default:
		logger.Debug("build connection finished", attrs...)
	}
	if s.opts.OnBuild != nil {
		s.opts.OnBuild(sum)
	}
}

// Close releases the socket and the lock. It is safe to call more than once.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		if s.opts.Network == "unix" {
			if rerr := os.RemoveAll(s.opts.Address); rerr != nil {
				s.logger.Warn("failed to remove socket", logging.String("socket", s.opts.Address), logging.Error(rerr))
			}
		}
		if s.lock != nil {
			if uerr := s.lock.Unlock(); uerr != nil {
				err = errors.Join(err, fmt.Errorf("release lock: %w", uerr))
			}
		}
	})
	return err
}
