package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/outsider-backend/internal/engine"
	"github.com/DoyleJ11/outsider-backend/internal/hub"
	"github.com/DoyleJ11/outsider-backend/internal/ident"
	"github.com/DoyleJ11/outsider-backend/internal/lobby"
	"github.com/DoyleJ11/outsider-backend/internal/types"
)

var (
	ErrBadMessage    = errors.New("malformed message")
	ErrUnknownType   = errors.New("unknown message type")
	ErrMissingField  = errors.New("missing field")
	ErrAlreadyInRoom = errors.New("already in a room, leave it first")
	ErrNotInRoom     = errors.New("not in a room")
	ErrNameMismatch  = errors.New("name does not match this connection")
	ErrRoomMismatch  = errors.New("room does not match this connection")
	ErrRateLimited   = errors.New("too many messages, slow down")
)

// session is one websocket connection. It is bound to at most one room at a
// time. Everything except Send runs on the connection's read goroutine.
type session struct {
	id      string
	hub     *hub.Hub
	log     *zap.Logger
	out     chan types.ServerMessage
	limiter *rate.Limiter
	newID   func() (string, error)
	kill    context.CancelFunc

	roomID string
	name   string
}

func newSession(h *hub.Hub, opts Options, kill context.CancelFunc) *session {
	id := uuid.NewString()
	return &session{
		id:      id,
		hub:     h,
		log:     opts.Logger.With(zap.String("session", id)),
		out:     make(chan types.ServerMessage, opts.OutboxSize),
		limiter: rate.NewLimiter(opts.MessageRate, opts.MessageBurst),
		newID:   opts.NewRoomID,
		kill:    kill,
	}
}

// Send never blocks. A client that cannot keep up is disconnected, which the
// room then sees as a leave.
func (s *session) Send(msg types.ServerMessage) bool {
	select {
	case s.out <- msg:
		return true
	default:
		s.kill()
		return false
	}
}

func (s *session) bound() bool { return s.roomID != "" }

func (s *session) bind(roomID, name string) {
	s.roomID, s.name = roomID, name
	s.log = s.log.With(zap.String("room", roomID), zap.String("player", name))
}

func (s *session) unbind() {
	s.roomID, s.name = "", ""
}

// handle runs one inbound action. The returned error goes back to this
// client only.
func (s *session) handle(ctx context.Context, m types.ClientMessage) error {
	switch m.Type {
	case types.ActCreateRoom:
		return s.createRoom(ctx, m)
	case types.ActJoinRoom:
		return s.joinRoom(ctx, m)
	case types.ActSubmitWords:
		lb, err := s.current(ctx, m)
		if err != nil {
			return err
		}
		return s.settle(lb.SubmitWords(ctx, s.name, m.Words))
	case types.ActVote:
		if strings.TrimSpace(m.Accused) == "" {
			return fmt.Errorf("%w: accused", ErrMissingField)
		}
		lb, err := s.current(ctx, m)
		if err != nil {
			return err
		}
		return s.settle(lb.Vote(ctx, s.name, strings.TrimSpace(m.Accused)))
	case types.ActLeaveRoom:
		return s.leaveRoom(ctx, m)
	case "":
		return fmt.Errorf("%w: type", ErrMissingField)
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
}

func (s *session) createRoom(ctx context.Context, m types.ClientMessage) error {
	if s.bound() {
		return ErrAlreadyInRoom
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return engine.ErrInvalidPlayer
	}
	creator := engine.Player{Name: name, Avatar: ident.PickAvatar(m.Avatar)}

	id := strings.TrimSpace(m.RoomID)
	generated := id == ""
	// A generated id can collide with a live room; draw again a few times.
	for attempt := 0; ; attempt++ {
		if generated {
			var err error
			if id, err = s.newID(); err != nil {
				return fmt.Errorf("generate room id: %w", err)
			}
		}
		_, err := s.hub.Create(ctx, hub.CreateRoom{
			ID:            id,
			Capacity:      m.Capacity,
			OutsiderCount: m.OutsiderCount,
			Creator:       creator,
			Client:        s,
		})
		if generated && errors.Is(err, engine.ErrDuplicateID) && attempt < 5 {
			continue
		}
		if err != nil {
			return err
		}
		break
	}

	s.bind(id, name)
	s.log.Info("room created via websocket")
	return nil
}

func (s *session) joinRoom(ctx context.Context, m types.ClientMessage) error {
	if s.bound() {
		return ErrAlreadyInRoom
	}
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return engine.ErrInvalidPlayer
	}
	id := strings.TrimSpace(m.RoomID)
	if id == "" {
		return fmt.Errorf("%w: roomId", ErrMissingField)
	}

	lb, err := s.hub.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := lb.Join(ctx, engine.Player{Name: name, Avatar: ident.PickAvatar(m.Avatar)}, s); err != nil {
		return err
	}
	s.bind(id, name)
	return nil
}

func (s *session) leaveRoom(ctx context.Context, m types.ClientMessage) error {
	lb, err := s.current(ctx, m)
	if err != nil {
		return err
	}
	err = lb.Leave(ctx, s.name)
	s.unbind()
	if errors.Is(err, engine.ErrRoomNotFound) {
		return nil
	}
	return err
}

// current resolves the bound room after checking that the payload, when it
// names a room or player, agrees with the binding.
func (s *session) current(ctx context.Context, m types.ClientMessage) (*lobby.Lobby, error) {
	if !s.bound() {
		return nil, ErrNotInRoom
	}
	if n := strings.TrimSpace(m.Name); n != "" && n != s.name {
		return nil, ErrNameMismatch
	}
	if id := strings.TrimSpace(m.RoomID); id != "" && id != s.roomID {
		return nil, ErrRoomMismatch
	}
	lb, err := s.hub.Get(ctx, s.roomID)
	if err != nil {
		return nil, s.settle(err)
	}
	return lb, nil
}

// settle drops the binding once the room is known to be gone.
func (s *session) settle(err error) error {
	if errors.Is(err, engine.ErrRoomNotFound) {
		s.unbind()
	}
	return err
}

// disconnect is the implicit leave when the socket goes away.
func (s *session) disconnect(timeout time.Duration) {
	if !s.bound() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	lb, err := s.hub.Get(ctx, s.roomID)
	if err == nil {
		err = lb.Leave(ctx, s.name)
	}
	switch {
	case err == nil, errors.Is(err, engine.ErrRoomNotFound), errors.Is(err, hub.ErrHubClosed):
	default:
		s.log.Warn("leave on disconnect", zap.Error(err))
	}
	s.unbind()
}
