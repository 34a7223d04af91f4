package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AarC10/GSW-Sync/lib/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout   = 5 * time.Second
	maxRetryDelay  = 30 * time.Second
	baseRetryDelay = 250 * time.Millisecond
)

// liveStream pushes line protocol frames to a Grafana Live websocket
// endpoint, reconnecting when a write fails.
type liveStream struct {
	addr      string
	authToken string
	dialer    *websocket.Dialer
	conn      *websocket.Conn
}

func newLiveStream(addr, authToken string) *liveStream {
	return &liveStream{
		addr:      addr,
		authToken: authToken,
		dialer:    &websocket.Dialer{HandshakeTimeout: writeTimeout, Proxy: http.ProxyFromEnvironment},
	}
}

// connect dials until it succeeds or ctx is done, backing off between
// attempts.
func (s *liveStream) connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.authToken)

	delay := baseRetryDelay
	for {
		conn, response, err := s.dialer.DialContext(ctx, s.addr, header)
		if err == nil {
			s.conn = conn
			logger.Info("Connected to Grafana Live", zap.String("addr", s.addr))
			return nil
		}
		if response != nil {
			err = fmt.Errorf("%w (status %d)", err, response.StatusCode)
		}
		logger.Warn("Couldn't connect to Grafana Live, retrying", zap.Duration("delay", delay), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

// send writes one frame, reconnecting once if the connection broke.
func (s *liveStream) send(ctx context.Context, query string) error {
	if s.conn == nil {
		if err := s.connect(ctx); err != nil {
			return err
		}
	}

	if err := s.write(query); err != nil {
		logger.Warn("Write to Grafana Live failed, reconnecting", zap.Error(err))
		s.close()
		if err := s.connect(ctx); err != nil {
			return err
		}
		return s.write(query)
	}
	return nil
}

func (s *liveStream) write(query string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(query)); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (s *liveStream) close() {
	if s.conn == nil {
		return
	}
	deadline := time.Now().Add(writeTimeout)
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, message, deadline); err != nil {
		logger.Debug("Couldn't send websocket close frame", zap.Error(err))
	}
	if err := s.conn.Close(); err != nil {
		logger.Debug("Error closing websocket", zap.Error(err))
	}
	s.conn = nil
}
