package shell

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/history"
	"github.com/vango-dev/navshell/pkg/middleware"
	"github.com/vango-dev/navshell/pkg/nav"
	"github.com/vango-dev/navshell/pkg/routepath"
)

// handleSocket upgrades a browser connection and runs its navigation
// session until the browser leaves or the server shuts down.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("request_id", chimw.GetReqID(r.Context()))

	sock, err := history.Accept(conn, history.SocketConfig{
		HandshakeTimeout: s.cfg.HandshakeDuration(),
		Logger:           logger,
	})
	if err != nil {
		logger.Warn("handshake failed", "error", errors.Classify(err).Error())
		conn.Close()
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.serveSession(s.ctx, sock, logger)
}

// serveSession attaches a resolver to sock and streams every published
// route to the browser. All resolver calls happen on the socket's event loop.
func (s *Server) serveSession(ctx context.Context, sock *history.Socket, logger *slog.Logger) {
	s.connections.Inc()
	defer s.connections.Dec()

	resolver := nav.New(
		nav.WithLogger(logger),
		nav.WithMetrics(s.metrics),
	)
	if err := resolver.Attach(s.table, history.WithBase(sock, s.base)); err != nil {
		logger.Error("attach failed", "error", err)
		sock.Close()
		return
	}
	defer resolver.Detach()

	send := func(ar *nav.ActiveRoute) {
		if err := sock.Send(history.Message{Type: history.TypeRoute, Route: RouteStateOf(ar)}); err != nil {
			logger.Debug("route frame not sent", "error", err)
		}
	}
	send(resolver.Active())
	if _, err := resolver.Subscribe(send); err != nil {
		logger.Error("subscribe failed", "error", err)
		return
	}

	logger.Debug("session started", "location", resolver.Active().Location)

	handle := middleware.Chain(func(_ context.Context, msg history.Message) error {
		return handleMessage(resolver, msg)
	}, s.frameMiddleware...)

	err := sock.Run(ctx, func(msg history.Message) {
		if err := handle(ctx, msg); err != nil {
			reject(sock, err, logger)
		}
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("session ended", "error", err)
		return
	}
	logger.Debug("session ended")
}

// handleMessage serves a client request other than a pop.
func handleMessage(r *nav.Resolver, msg history.Message) error {
	var err error
	switch msg.Type {
	case history.TypeNavigate:
		var opts []nav.NavigateOption
		if msg.Replace {
			opts = append(opts, nav.WithReplace())
		}
		if msg.Name != "" {
			err = r.NavigateToName(msg.Name, msg.Params, routepath.Query(msg.Query), opts...)
		} else {
			if len(msg.Query) > 0 {
				opts = append(opts, nav.WithQuery(routepath.Query(msg.Query)))
			}
			err = r.Navigate(msg.Location, opts...)
		}
	case history.TypeBack:
		err = r.Back()
	case history.TypeForward:
		err = r.Forward()
	default:
		err = fmt.Errorf("unknown frame type %q", msg.Type)
	}
	return err
}

// reject reports a failed request to the browser.
func reject(sock *history.Socket, err error, logger *slog.Logger) {
	coded := errors.Classify(err)
	logger.Info("navigation rejected", "code", coded.Code, "error", err)
	if sendErr := sock.Send(history.Message{Type: history.TypeError, Error: coded.Error()}); sendErr != nil {
		logger.Debug("error frame not sent", "error", sendErr)
	}
}

// RouteStateOf describes ar for the browser.
func RouteStateOf(ar *nav.ActiveRoute) *history.RouteState {
	if ar == nil {
		return nil
	}
	rs := &history.RouteState{
		Name:     ar.Name(),
		Path:     ar.Path,
		Params:   map[string]string(ar.Params.Clone()),
		Query:    map[string][]string(ar.Query.Clone()),
		Location: ar.Location,
		NotFound: ar.NotFound(),
		Seq:      ar.Seq,
	}
	if v := ar.View(); v != nil {
		rs.View = fmt.Sprint(v)
	}
	return rs
}
