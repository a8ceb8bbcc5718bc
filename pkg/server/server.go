// Package server implements the TCP front end: one listener goroutine, one
// goroutine per accepted client doing newline-delimited JSON framing, and a
// single worker goroutine draining a bounded queue and dispatching against
// the confined *service.Service.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/omnifs/omnifs/internal/logger"
	"github.com/omnifs/omnifs/pkg/dispatch"
	"github.com/omnifs/omnifs/pkg/metrics"
	"github.com/omnifs/omnifs/pkg/service"
)

const maxFrameSize = 16 * 1024 * 1024

type job struct {
	req  *dispatch.Request
	conn net.Conn
}

// Server owns the listener and the single-consumer request queue.
type Server struct {
	svc     *service.Service
	metrics *metrics.Metrics

	queue    chan job
	shutdown chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	listener net.Listener
}

// New builds a Server. queueSize should be config.server.max_connections*4
// per the bounded-FIFO sizing policy.
func New(svc *service.Service, m *metrics.Metrics, queueSize int) *Server {
	return &Server{
		svc:      svc,
		metrics:  m,
		queue:    make(chan job, queueSize),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Serve binds addr and blocks accepting connections until Shutdown is
// called, at which point the listener closes and Accept returns an error
// that is recognized as a clean stop.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go s.work()

	logger.Info("server listening", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return nil
			default:
				logger.Warn("accept error", logger.KeyError, err.Error())
				continue
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	clientAddr := conn.RemoteAddr().String()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		var req dispatch.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			logger.Debug("dropping malformed request frame",
				logger.KeyClientAddr, clientAddr, logger.KeyError, err.Error())
			continue
		}

		select {
		case s.queue <- job{req: &req, conn: conn}:
		case <-s.shutdown:
			return
		}
	}
}

func (s *Server) work() {
	defer close(s.done)
	for {
		select {
		case j := <-s.queue:
			s.handle(j)
		case <-s.shutdown:
			s.drain()
			return
		}
	}
}

func (s *Server) drain() {
	for {
		select {
		case j := <-s.queue:
			s.handle(j)
		default:
			return
		}
	}
}

func (s *Server) handle(j job) {
	s.metrics.QueueDepth.Set(float64(len(s.queue)))

	lc := logger.NewLogContext(j.conn.RemoteAddr().String()).
		WithOperation(j.req.Operation, j.req.RequestID)
	if j.req.SessionID != "" {
		lc = lc.WithSession(j.req.SessionID)
	}
	ctx := logger.WithContext(context.Background(), lc)

	resp := dispatch.Dispatch(ctx, s.svc, s.metrics, j.req)
	s.writeResponse(j.conn, resp)
}

func (s *Server) writeResponse(conn net.Conn, resp *dispatch.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to marshal response", logger.KeyError, err.Error())
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		logger.Warn("failed to write response to client",
			logger.KeyClientAddr, conn.RemoteAddr().String(), logger.KeyError, err.Error())
	}
}

// Shutdown stops accepting new connections, drains and services whatever
// is already queued, then returns once the worker goroutine has exited.
func (s *Server) Shutdown() {
	close(s.shutdown)
	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()
	<-s.done
}
