// Package server runs the TCP accept loop that serves the wire protocol
// in internal/protocol, dispatching each connection's requests through
// internal/workerpool. Grounded on shake-karrot-lightkafka's
// net.Listen/Accept loop and handleConnection shape, adapted from a fixed
// binary header to newline-delimited JSON and from "goroutine per
// connection, unbounded" to "dispatch through a bounded worker pool".
package server

import (
	"bufio"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/ignitekv/ignite/internal/protocol"
	"github.com/ignitekv/ignite/internal/workerpool"
	"github.com/ignitekv/ignite/pkg/enginecontract"
	"github.com/ignitekv/ignite/pkg/errors"
)

// Server accepts TCP connections and serves internal/protocol requests
// against the engine passed to New.
type Server struct {
	addr string
	pool *workerpool.Pool
	log  *zap.SugaredLogger

	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New builds a Server that will listen on addr and dispatch requests
// through a workerpool.Pool of the given size over eng.
func New(addr string, eng enginecontract.Engine, poolSize int, log *zap.SugaredLogger) *Server {
	return &Server{
		addr: addr,
		pool: workerpool.New(eng, poolSize, log),
		log:  log,
		quit: make(chan struct{}),
	}
}

// ListenAndServe opens the listener and runs the accept loop until Close
// is called. It blocks the calling goroutine.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.log.Infow("server listening", "addr", s.addr)

	go func() {
		<-s.quit
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				s.log.Errorw("accept error", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Close stops the accept loop, waits for in-flight connections to finish,
// and shuts down the worker pool.
func (s *Server) Close() error {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return s.pool.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		conn.Close()
		s.wg.Done()
	}()

	reader := bufio.NewReader(conn)
	for {
		req, err := protocol.ReadRequest(reader)
		if err != nil {
			if err == io.EOF {
				return
			}
			if werr := protocol.WriteResponse(conn, &protocol.Response{OK: false, Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		done := make(chan struct{})
		s.pool.Submit(func(eng enginecontract.Engine) {
			defer close(done)
			resp := dispatch(eng, req)
			if werr := protocol.WriteResponse(conn, resp); werr != nil {
				s.log.Errorw("failed to write response", "error", werr)
			}
		})
		<-done
	}
}

// dispatch runs req against eng and builds the wire response. Malformed
// requests never reach here — protocol.ReadRequest validates shape before
// returning.
func dispatch(eng enginecontract.Engine, req *protocol.Request) *protocol.Response {
	switch req.Op {
	case protocol.OpSet:
		if err := eng.Set(req.Key, req.Value); err != nil {
			return errResponse(err)
		}
		return &protocol.Response{OK: true}

	case protocol.OpGet:
		value, ok, err := eng.Get(req.Key)
		if err != nil {
			return errResponse(err)
		}
		if !ok {
			return errResponse(errors.ErrKeyNotFound)
		}
		return &protocol.Response{OK: true, Value: value}

	case protocol.OpRemove:
		if err := eng.Remove(req.Key); err != nil {
			return errResponse(err)
		}
		return &protocol.Response{OK: true}

	default:
		return errResponse(errors.ErrInvalidRequest)
	}
}

// errResponse builds a failure Response, marking it Retryable when err's
// cause looks transient (see errors.IsRetryable) so a client like
// cmd/ignite-cli can decide whether retrying the same request is worth it.
func errResponse(err error) *protocol.Response {
	return &protocol.Response{OK: false, Error: err.Error(), Retryable: errors.IsRetryable(err)}
}
