package hub

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/outsider-backend/internal/archive"
	"github.com/DoyleJ11/outsider-backend/internal/engine"
	"github.com/DoyleJ11/outsider-backend/internal/lobby"
)

var ErrHubClosed = errors.New("server is shutting down")

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	ID            string
	Capacity      int
	OutsiderCount int
	Creator       engine.Player
	Client        lobby.Client
	Reply         chan CreateResult
}

type CreateResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetRoom struct {
	ID    string
	Reply chan *lobby.Lobby
}

// RemoveRoom only removes ID while it still maps to Lobby, so a room created
// under a recycled id is left alone.
type RemoveRoom struct {
	ID    string
	Lobby *lobby.Lobby
}

type ListRooms struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Rules    engine.Rules
	Logger   *zap.Logger
	Recorder archive.Recorder
	// NewRand supplies each room its own source of randomness.
	NewRand func() *rand.Rand
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = archive.Nop{}
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	if opts.Rules == (engine.Rules{}) {
		opts.Rules = engine.DefaultRules()
	}

	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.create(msg)

			case GetRoom:
				msg.Reply <- h.live(msg.ID) // May be nil

			case RemoveRoom:
				if h.lobbies[msg.ID] == msg.Lobby {
					delete(h.lobbies, msg.ID)
					h.log.Info("room removed", zap.String("room", msg.ID), zap.Int("rooms", len(h.lobbies)))
				}

			case ListRooms:
				ids := make([]string, 0, len(h.lobbies))
				for id := range h.lobbies {
					if h.live(id) != nil {
						ids = append(ids, id)
					}
				}
				slices.Sort(ids)
				msg.Reply <- ids

			case ShutdownHub:
				for _, lb := range h.lobbies {
					lb.Send(lobby.Shutdown{})
				}
				clear(h.lobbies)
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) create(msg CreateRoom) CreateResult {
	if h.live(msg.ID) != nil {
		return CreateResult{Err: engine.ErrDuplicateID}
	}

	room, events, err := engine.NewRoom(msg.ID, msg.Capacity, msg.OutsiderCount, msg.Creator, h.opts.Rules, h.opts.NewRand())
	if err != nil {
		return CreateResult{Err: err}
	}

	lb := lobby.NewLobby(h.ctx, room, events, msg.Client, lobby.Options{
		Logger:   h.opts.Logger,
		Recorder: h.opts.Recorder,
		OnEmpty:  h.onEmpty,
	})
	h.lobbies[msg.ID] = lb
	h.log.Info("room created",
		zap.String("room", msg.ID),
		zap.Int("capacity", msg.Capacity),
		zap.Int("outsiders", msg.OutsiderCount),
		zap.Int("rooms", len(h.lobbies)))
	return CreateResult{Lobby: lb}
}

// live returns the lobby for id unless it is missing or has already stopped.
// Stopped lobbies are pruned on sight.
func (h *Hub) live(id string) *lobby.Lobby {
	lb := h.lobbies[id]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, id)
		return nil
	default:
		return lb
	}
}

// onEmpty runs on the emptied lobby's goroutine.
func (h *Hub) onEmpty(id string, lb *lobby.Lobby) {
	select {
	case h.inbox <- RemoveRoom{ID: id, Lobby: lb}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Create(ctx context.Context, req CreateRoom) (*lobby.Lobby, error) {
	reply := make(chan CreateResult, 1)
	req.Reply = reply
	if err := h.send(ctx, req); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Err
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get looks a room up by id. Callers must not hold on to the result past the
// action they fetched it for.
func (h *Hub) Get(ctx context.Context, id string) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetRoom{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case lb := <-reply:
		if lb == nil {
			return nil, engine.ErrRoomNotFound
		}
		return lb, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Rooms(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	if err := h.send(ctx, ListRooms{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case ids := <-reply:
		return ids, nil
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }
