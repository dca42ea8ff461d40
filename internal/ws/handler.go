package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/outsider-backend/internal/hub"
	"github.com/DoyleJ11/outsider-backend/internal/ident"
	"github.com/DoyleJ11/outsider-backend/internal/types"
)

type Options struct {
	Logger *zap.Logger
	// OriginPatterns is passed to websocket.AcceptOptions. Empty means same
	// origin only.
	OriginPatterns []string
	MessageRate    rate.Limit
	MessageBurst   int
	OutboxSize     int
	WriteTimeout   time.Duration
	// LeaveTimeout bounds the implicit leave after a disconnect.
	LeaveTimeout time.Duration
	NewRoomID    func() (string, error)
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MessageRate <= 0 {
		o.MessageRate = 10
	}
	if o.MessageBurst < 1 {
		o.MessageBurst = 20
	}
	if o.OutboxSize < 1 {
		o.OutboxSize = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.LeaveTimeout <= 0 {
		o.LeaveTimeout = 5 * time.Second
	}
	if o.NewRoomID == nil {
		o.NewRoomID = ident.NewRoomID
	}
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	opts.defaults()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			opts.Logger.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		s := newSession(h, opts, cancel)
		s.log.Debug("connected", zap.String("remote", r.RemoteAddr))

		// Writer goroutine
		written := make(chan struct{})
		go func() {
			defer close(written)
			s.writeLoop(ctx, conn, opts.WriteTimeout)
		}()

		s.readLoop(ctx, conn)
		dropped := ctx.Err() != nil && r.Context().Err() == nil

		// The room must stop addressing this session before the socket goes.
		s.disconnect(opts.LeaveTimeout)
		cancel()
		<-written

		if dropped {
			_ = conn.Close(websocket.StatusPolicyViolation, "too slow")
			return
		}
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

func (s *session) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					s.log.Debug("read", zap.Error(err))
				}
			}
			return
		}

		if !s.limiter.Allow() {
			s.Send(types.Error(ErrRateLimited))
			continue
		}

		var cm types.ClientMessage
		if typ != websocket.MessageText || json.Unmarshal(data, &cm) != nil {
			s.Send(types.Error(ErrBadMessage))
			continue
		}

		if err := s.handle(ctx, cm); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.log.Debug("action rejected", zap.String("type", cm.Type), zap.Error(err))
			s.Send(types.Error(err))
		}
	}
}

func (s *session) writeLoop(ctx context.Context, conn *websocket.Conn, timeout time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.out:
			wctx, cancel := context.WithTimeout(ctx, timeout)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				s.log.Debug("write", zap.String("type", msg.Type), zap.Error(err))
				s.kill()
				return
			}
		}
	}
}
