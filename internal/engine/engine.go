package engine

import (
	"errors"
	"math/rand/v2"
	"time"
)

// Errors are user visible: their text is what the originating client sees.
var ErrInvalidConfiguration = errors.New("outsider count must be positive and smaller than the room size")
var ErrInvalidPlayer = errors.New("player name is required")
var ErrInvalidRoomID = errors.New("room id is required")
var ErrDuplicateID = errors.New("room id is already taken")
var ErrRoomNotFound = errors.New("room does not exist")
var ErrPlayerNotFound = errors.New("player is not in this room")
var ErrRoomFull = errors.New("room is full")
var ErrNameTaken = errors.New("name is already taken")
var ErrGameAlreadyStarted = errors.New("game already started")
var ErrWrongPhase = errors.New("action not allowed in the current phase")
var ErrNoWords = errors.New("at least one word is required")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseWordInput Phase = "wordInput"
	PhasePlaying   Phase = "playing"
	PhaseVoting    Phase = "voting"
	PhaseGameOver  Phase = "gameOver"
)

type Team string

const (
	TeamInsiders  Team = "insiders"
	TeamOutsiders Team = "outsiders"
)

type Player struct {
	Name       string
	Avatar     string
	IsOutsider bool
}

type Rules struct {
	CountdownFrom      int
	CountdownTick      time.Duration
	DiscussionDuration time.Duration
}

type Room struct {
	ID            string
	Capacity      int
	OutsiderCount int
	Phase         Phase
	Rules         Rules

	Players          []Player
	WordsBySubmitter map[string][]string
	CommittedPlayers []string
	WordPool         []string
	SecretWord       string

	// Outsiders shrinks on elimination or departure; RevealedOutsiders keeps
	// everyone drawn at game start for the final reveal.
	Outsiders         []string
	RevealedOutsiders []string
	Votes             map[string]string
	Round             int
	Winner            Team

	timerGen int
	rng      *rand.Rand
}

type CommandType string

const (
	CmdJoin          CommandType = "Join"
	CmdSubmitWords   CommandType = "SubmitWords"
	CmdVote          CommandType = "Vote"
	CmdLeave         CommandType = "Leave"
	CmdCountdownTick CommandType = "CountdownTick"
	CmdDiscussionEnd CommandType = "DiscussionEnd"
)

/*
	CmdJoin          -> EvtRoomJoined [-> EvtRoomFull -> EvtStartWordInput]
	CmdSubmitWords   -> EvtWordsCommitted [-> EvtTimerStarted(countdown)]
	CmdCountdownTick -> EvtCountdown -> EvtTimerStarted(countdown) | EvtGameStart... -> EvtTimerStarted(discussion)
	CmdDiscussionEnd -> EvtStartVoting
	CmdVote          -> EvtVoteUpdate [-> EvtVoteResult -> EvtStartVoting | EvtGameOver]
	CmdLeave         -> EvtRoomJoined [-> EvtVoteUpdate] [-> EvtGameOver]
*/

type Command struct {
	Type    CommandType
	Player  Player
	Words   []string
	Accused string
	Timer   Timer
}

type EventType string

const (
	EvtRoomCreated    EventType = "roomCreated"
	EvtRoomJoined     EventType = "roomJoined"
	EvtRoomFull       EventType = "roomFull"
	EvtStartWordInput EventType = "startWordInput"
	EvtWordsCommitted EventType = "wordsCommitted"
	EvtCountdown      EventType = "countdown"
	EvtGameStart      EventType = "gameStart"
	EvtStartVoting    EventType = "startVoting"
	EvtVoteUpdate     EventType = "voteUpdate"
	EvtVoteResult     EventType = "voteResult"
	EvtGameOver       EventType = "gameOver"

	// EvtTimerStarted is never sent to clients; the owner of the room
	// schedules Timer and feeds it back as a command when it fires.
	EvtTimerStarted EventType = "timerStarted"
)

// Event is an outbound effect. To names a single recipient; empty means the
// whole room.
type Event struct {
	Type  EventType
	To    string
	Data  any
	Timer Timer
}

type TimerKind string

const (
	TimerCountdown  TimerKind = "countdown"
	TimerDiscussion TimerKind = "discussion"
)

type Timer struct {
	Kind  TimerKind
	After time.Duration
	N     int
	Gen   int
}

// Apply runs one command against the room. On error the room is left
// untouched and no events are returned.
func Apply(r *Room, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdJoin:
		return r.join(cmd.Player)

	case CmdSubmitWords:
		return r.submitWords(cmd.Player.Name, cmd.Words)

	case CmdVote:
		return r.vote(cmd.Player.Name, cmd.Accused)

	case CmdLeave:
		return r.leave(cmd.Player.Name)

	case CmdCountdownTick:
		if cmd.Timer.Kind != TimerCountdown {
			return nil, ErrUnsupportedCommand
		}
		return r.countdownTick(cmd.Timer), nil

	case CmdDiscussionEnd:
		if cmd.Timer.Kind != TimerDiscussion {
			return nil, ErrUnsupportedCommand
		}
		return r.discussionEnd(cmd.Timer), nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// CommandForTimer turns a fired timer back into the command that handles it.
func CommandForTimer(t Timer) Command {
	switch t.Kind {
	case TimerDiscussion:
		return Command{Type: CmdDiscussionEnd, Timer: t}
	default:
		return Command{Type: CmdCountdownTick, Timer: t}
	}
}
