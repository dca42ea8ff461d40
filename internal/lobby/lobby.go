package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/outsider-backend/internal/archive"
	"github.com/DoyleJ11/outsider-backend/internal/engine"
	"github.com/DoyleJ11/outsider-backend/internal/types"
)

// Client is one member's outbound channel. Send must not block; it reports
// false when the message could not be queued.
type Client interface {
	Send(msg types.ServerMessage) bool
}

type Msg interface{ isLobbyMsg() }

type Join struct {
	Player engine.Player
	Client Client
	Reply  chan error
}

func (Join) isLobbyMsg() {}

type SubmitWords struct {
	Name  string
	Words []string
	Reply chan error
}

func (SubmitWords) isLobbyMsg() {}

type CastVote struct {
	Voter   string
	Accused string
	Reply   chan error
}

func (CastVote) isLobbyMsg() {}

// Leave covers both a voluntary leave and a dropped connection. Reply may be nil.
type Leave struct {
	Name  string
	Reply chan error
}

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type timerFired struct {
	id    int
	timer engine.Timer
}

func (timerFired) isLobbyMsg() {}

type View struct {
	Room          engine.Room
	NumClients    int
	PendingTimers int
}

type Options struct {
	Logger        *zap.Logger
	Recorder      archive.Recorder
	RecordTimeout time.Duration
	// OnEmpty runs on the lobby goroutine right before it exits because the
	// last player left.
	OnEmpty func(id string, l *Lobby)
}

type Lobby struct {
	id        string
	inbox     chan Msg
	room      *engine.Room
	clients   map[string]Client
	timers    map[int]*time.Timer
	nextTimer int
	opts      Options
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewLobby takes ownership of room and starts its goroutine. initial holds
// the events produced when the room was created; they are delivered first.
func NewLobby(parent context.Context, room *engine.Room, initial []engine.Event, creator Client, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = archive.Nop{}
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 5 * time.Second
	}

	l := &Lobby{
		id:      room.ID,
		inbox:   make(chan Msg, 64), // Small buffer
		room:    room,
		clients: make(map[string]Client),
		timers:  make(map[int]*time.Timer),
		opts:    opts,
		log:     opts.Logger.With(zap.String("room", room.ID)),
		ctx:     ctx,
		cancel:  cancel,
	}
	if len(room.Players) > 0 && creator != nil {
		l.clients[room.Players[0].Name] = creator
	}

	go l.loop(initial)
	return l
}

func (l *Lobby) loop(initial []engine.Event) {
	defer l.stopTimers()
	l.dispatch(initial)

	for {
		select {
		case <-l.ctx.Done():
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				events, err := engine.Apply(l.room, engine.Command{Type: engine.CmdJoin, Player: msg.Player})
				if err != nil {
					reply(msg.Reply, err)
					break
				}
				// Register first so the joiner sees its own membership event.
				l.clients[msg.Player.Name] = msg.Client
				l.log.Info("player joined",
					zap.String("player", msg.Player.Name),
					zap.Int("players", len(l.room.Players)),
					zap.Int("capacity", l.room.Capacity))
				l.dispatch(events)
				reply(msg.Reply, nil)

			case SubmitWords:
				events, err := engine.Apply(l.room, engine.Command{
					Type:   engine.CmdSubmitWords,
					Player: engine.Player{Name: msg.Name},
					Words:  msg.Words,
				})
				if err != nil {
					reply(msg.Reply, err)
					break
				}
				l.dispatch(events)
				reply(msg.Reply, nil)

			case CastVote:
				events, err := engine.Apply(l.room, engine.Command{
					Type:    engine.CmdVote,
					Player:  engine.Player{Name: msg.Voter},
					Accused: msg.Accused,
				})
				if err != nil {
					reply(msg.Reply, err)
					break
				}
				l.dispatch(events)
				reply(msg.Reply, nil)

			case Leave:
				if l.leave(msg) {
					return
				}

			case timerFired:
				delete(l.timers, msg.id)
				events, err := engine.Apply(l.room, engine.CommandForTimer(msg.timer))
				if err != nil {
					l.log.Error("timer command failed", zap.String("kind", string(msg.timer.Kind)), zap.Error(err))
					break
				}
				l.dispatch(events)

			case GetState:
				// Snapshot for the HTTP summary and tests, taken on the owning goroutine
				msg.Reply <- View{
					Room:          l.room.Clone(),
					NumClients:    len(l.clients),
					PendingTimers: len(l.timers),
				}

			case Shutdown:
				l.cancel()
				return
			}
		}
	}
}

// leave reports whether the lobby has closed because the room emptied.
func (l *Lobby) leave(msg Leave) bool {
	if _, ok := l.room.Player(msg.Name); !ok {
		// Eliminated players are still connected but no longer seated.
		if _, member := l.clients[msg.Name]; member {
			delete(l.clients, msg.Name)
			reply(msg.Reply, nil)
			return false
		}
		reply(msg.Reply, engine.ErrPlayerNotFound)
		return false
	}

	events, err := engine.Apply(l.room, engine.Command{Type: engine.CmdLeave, Player: engine.Player{Name: msg.Name}})
	if err != nil {
		reply(msg.Reply, err)
		return false
	}
	delete(l.clients, msg.Name)
	l.log.Info("player left", zap.String("player", msg.Name), zap.Int("players", len(l.room.Players)))
	l.dispatch(events)
	reply(msg.Reply, nil)

	if !l.room.Empty() {
		return false
	}
	l.log.Info("room empty, closing")
	if l.opts.OnEmpty != nil {
		l.opts.OnEmpty(l.id, l)
	}
	l.cancel()
	return true
}

func (l *Lobby) dispatch(events []engine.Event) {
	for _, e := range events {
		switch e.Type {
		case engine.EvtTimerStarted:
			l.schedule(e.Timer)
			continue
		case engine.EvtGameOver:
			l.record()
		}

		msg := types.FromEvent(e)
		if e.To != "" {
			if c, ok := l.clients[e.To]; ok {
				l.send(e.To, c, msg)
			}
			continue
		}
		for name, c := range l.clients {
			l.send(name, c, msg)
		}
	}
}

func (l *Lobby) send(name string, c Client, msg types.ServerMessage) {
	if !c.Send(msg) {
		l.log.Warn("client outbox full, message dropped",
			zap.String("player", name),
			zap.String("type", msg.Type))
	}
}

func (l *Lobby) schedule(t engine.Timer) {
	id := l.nextTimer
	l.nextTimer++
	l.timers[id] = time.AfterFunc(t.After, func() {
		select {
		case l.inbox <- timerFired{id: id, timer: t}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) stopTimers() {
	for id, t := range l.timers {
		t.Stop()
		delete(l.timers, id)
	}
}

// record hands the finished game to the archive without blocking the lobby.
func (l *Lobby) record() {
	names := make([]string, 0, len(l.room.Players))
	for _, p := range l.room.Players {
		names = append(names, p.Name)
	}
	res := archive.Result{
		RoomID:     l.room.ID,
		Winner:     string(l.room.Winner),
		SecretWord: l.room.SecretWord,
		Outsiders:  append([]string{}, l.room.RevealedOutsiders...),
		Players:    names,
		Rounds:     l.room.Round,
		FinishedAt: time.Now(),
	}
	l.log.Info("game over", zap.String("winner", res.Winner), zap.Int("rounds", res.Rounds))

	rec, timeout, log := l.opts.Recorder, l.opts.RecordTimeout, l.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := rec.Record(ctx, res); err != nil {
			log.Warn("archive game result", zap.Error(err))
		}
	}()
}

func reply(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

func (l *Lobby) ID() string { return l.id }

// Inbox exposes the raw mailbox; prefer the blocking helpers below.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby has stopped processing messages.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Send queues m unless the lobby has already stopped.
func (l *Lobby) Send(m Msg) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) Join(ctx context.Context, p engine.Player, c Client) error {
	r := make(chan error, 1)
	return l.request(ctx, Join{Player: p, Client: c, Reply: r}, r)
}

func (l *Lobby) SubmitWords(ctx context.Context, name string, words []string) error {
	r := make(chan error, 1)
	return l.request(ctx, SubmitWords{Name: name, Words: words, Reply: r}, r)
}

func (l *Lobby) Vote(ctx context.Context, voter, accused string) error {
	r := make(chan error, 1)
	return l.request(ctx, CastVote{Voter: voter, Accused: accused, Reply: r}, r)
}

func (l *Lobby) Leave(ctx context.Context, name string) error {
	r := make(chan error, 1)
	return l.request(ctx, Leave{Name: name, Reply: r}, r)
}

func (l *Lobby) View(ctx context.Context) (View, error) {
	r := make(chan View, 1)
	if !l.Send(GetState{Reply: r}) {
		return View{}, engine.ErrRoomNotFound
	}
	select {
	case v := <-r:
		return v, nil
	case <-l.Done():
		return View{}, engine.ErrRoomNotFound
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// request sends m and waits for its reply. A lobby that stops before
// answering is reported as a missing room.
func (l *Lobby) request(ctx context.Context, m Msg, r chan error) error {
	if !l.Send(m) {
		return engine.ErrRoomNotFound
	}
	select {
	case err := <-r:
		return err
	case <-l.Done():
		select {
		case err := <-r:
			return err
		default:
			return engine.ErrRoomNotFound
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
