package adapter

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/quark/internal/logger"
)

// Server owns one listening socket and fans accepted connections out to
// per-connection goroutines.
//
// Thread safety: all exported methods are safe for concurrent use. Shutdown
// is idempotent via sync.Once.
type Server struct {
	config Config
	name   string

	// Metrics is an optional recorder for connection lifecycle metrics.
	Metrics MetricsRecorder

	listener   net.Listener
	listenerMu sync.RWMutex

	// ListenerReady is closed once the listener accepts connections.
	// Tests use it to synchronize with startup.
	ListenerReady chan struct{}

	// activeConns tracks serve goroutines for graceful shutdown.
	activeConns sync.WaitGroup

	// activeSockets maps remote address to net.Conn for forced closure.
	activeSockets sync.Map

	connCount     atomic.Int32
	connSemaphore chan struct{}

	shutdownOnce sync.Once
	shutdown     chan struct{}

	// shutdownCtx is cancelled on shutdown so in-flight handlers can abort.
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc
}

// New creates a Server in a stopped state. name is used for logging only.
func New(config Config, name string) *Server {
	var sem chan struct{}
	if config.MaxConnections > 0 {
		sem = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:         config,
		name:           name,
		ListenerReady:  make(chan struct{}),
		connSemaphore:  sem,
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancel,
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// listen binds the configured socket: a Unix stream socket when UnixSocket
// is set (removing a stale socket file first), TCP otherwise.
func (s *Server) listen() (net.Listener, error) {
	if path := s.config.UnixSocket; path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale socket %s: %w", path, err)
		}
		l, err := net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("failed to listen on unix socket %s: %w", path, err)
		}
		return l, nil
	}

	l, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return l, nil
}

// Serve runs the accept loop, delegating per-connection handling to factory.
// It blocks until the context is cancelled or the listener fails, and
// returns after graceful shutdown has drained (or force-closed) all
// connections.
func (s *Server) Serve(ctx context.Context, factory ConnectionFactory) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.ListenerReady)

	logger.Info(s.name+" server listening", logger.KeyListenAddr, listener.Addr().String())

	go func() {
		<-ctx.Done()
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.drain()
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return s.drain()
			default:
				logger.Debug("Error accepting "+s.name+" connection", logger.KeyError, err)
				continue
			}
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(true); err != nil {
				logger.Debug("Failed to set TCP_NODELAY", logger.KeyError, err)
			}
		}

		s.activeConns.Add(1)
		active := s.connCount.Add(1)

		addr := conn.RemoteAddr().String()
		s.activeSockets.Store(addr, conn)

		if s.Metrics != nil {
			s.Metrics.RecordConnectionAccepted()
			s.Metrics.SetActiveConnections(active)
		}
		logger.Debug(s.name+" connection accepted", logger.KeyClientAddr, addr, "active", active)

		handler := factory.NewConnection(conn)

		go func(addr string, conn net.Conn) {
			defer func() {
				_ = conn.Close()
				s.activeSockets.Delete(addr)
				s.activeConns.Done()
				remaining := s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				if s.Metrics != nil {
					s.Metrics.RecordConnectionClosed()
					s.Metrics.SetActiveConnections(remaining)
				}
				logger.Debug(s.name+" connection closed", logger.KeyClientAddr, addr, "active", remaining)
			}()

			handler.Serve(s.shutdownCtx)
		}(addr, conn)
	}
}

// Stop initiates graceful shutdown and waits for it to complete or for ctx
// to expire. Safe to call multiple times and concurrently with Serve.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.forceClose()
		return ctx.Err()
	}
}

// initiateShutdown stops the accept loop, closes the listener, nudges
// blocked reads with a short deadline and cancels in-flight requests.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug(s.name + " shutdown initiated")

		close(s.shutdown)

		s.listenerMu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing "+s.name+" listener", logger.KeyError, err)
			}
		}
		s.listenerMu.Unlock()

		// Unblock pending reads so handlers notice the shutdown.
		deadline := time.Now().Add(100 * time.Millisecond)
		s.activeSockets.Range(func(_, value any) bool {
			if conn, ok := value.(net.Conn); ok {
				_ = conn.SetReadDeadline(deadline)
			}
			return true
		})

		s.cancelRequests()

		if s.config.UnixSocket != "" {
			if err := os.Remove(s.config.UnixSocket); err != nil && !os.IsNotExist(err) {
				logger.Debug("Error removing unix socket", logger.KeyError, err)
			}
		}
	})
}

// drain waits for active connections to finish, force-closing whatever is
// left when the shutdown timeout expires.
func (s *Server) drain() error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(s.name + " server stopped")
		return nil
	case <-time.After(timeout):
		forced := s.forceClose()
		s.activeConns.Wait()
		return fmt.Errorf("%s shutdown timed out, force-closed %d connections", s.name, forced)
	}
}

// forceClose closes every tracked connection and returns how many it hit.
func (s *Server) forceClose() int {
	forced := 0
	s.activeSockets.Range(func(_, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			_ = conn.Close()
			forced++
		}
		return true
	})
	return forced
}
