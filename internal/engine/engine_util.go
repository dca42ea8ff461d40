package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

func DefaultRules() Rules {
	return Rules{
		CountdownFrom:      5,
		CountdownTick:      time.Second,
		DiscussionDuration: 30 * time.Second,
	}
}

// NewRoom validates the configuration and seats the creator. The returned
// events announce the room to the creator and to the (one-member) room.
func NewRoom(id string, capacity, outsiderCount int, creator Player, rules Rules, rng *rand.Rand) (*Room, []Event, error) {
	if id == "" {
		return nil, nil, ErrInvalidRoomID
	}
	if outsiderCount <= 0 || outsiderCount >= capacity {
		return nil, nil, ErrInvalidConfiguration
	}
	if creator.Name == "" {
		return nil, nil, ErrInvalidPlayer
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	creator.IsOutsider = false
	r := &Room{
		ID:               id,
		Capacity:         capacity,
		OutsiderCount:    outsiderCount,
		Phase:            PhaseWaiting,
		Rules:            rules,
		Players:          []Player{creator},
		WordsBySubmitter: map[string][]string{},
		Votes:            map[string]string{},
		rng:              rng,
	}

	events := []Event{
		{Type: EvtRoomCreated, To: creator.Name, Data: RoomCreatedData{RoomID: id, Players: r.Roster()}},
		r.membershipEvent(),
	}
	return r, events, nil
}

// Roster is the public player list in join order.
func (r *Room) Roster() []PublicPlayer {
	out := make([]PublicPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, PublicPlayer{Name: p.Name, Avatar: p.Avatar})
	}
	return out
}

func (r *Room) Player(name string) (Player, bool) {
	i := r.indexOf(name)
	if i < 0 {
		return Player{}, false
	}
	return r.Players[i], true
}

func (r *Room) Empty() bool { return len(r.Players) == 0 }

// Clone returns a deep copy that shares no slices or maps with r.
func (r *Room) Clone() Room {
	c := *r
	c.Players = slices.Clone(r.Players)
	c.CommittedPlayers = slices.Clone(r.CommittedPlayers)
	c.WordPool = slices.Clone(r.WordPool)
	c.Outsiders = slices.Clone(r.Outsiders)
	c.RevealedOutsiders = slices.Clone(r.RevealedOutsiders)
	c.WordsBySubmitter = make(map[string][]string, len(r.WordsBySubmitter))
	for k, v := range r.WordsBySubmitter {
		c.WordsBySubmitter[k] = slices.Clone(v)
	}
	c.Votes = make(map[string]string, len(r.Votes))
	for k, v := range r.Votes {
		c.Votes[k] = v
	}
	c.rng = nil
	return c
}

// RequiredVotes is ceil(players/2).
func (r *Room) RequiredVotes() int {
	return (len(r.Players) + 1) / 2
}

func (r *Room) indexOf(name string) int {
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.Name == name })
}

func (r *Room) isOutsider(name string) bool {
	return slices.Contains(r.Outsiders, name)
}

func (r *Room) membershipEvent() Event {
	return Event{Type: EvtRoomJoined, Data: RoomJoinedData{
		RoomID:       r.ID,
		Players:      r.Roster(),
		CurrentCount: len(r.Players),
		Capacity:     r.Capacity,
	}}
}

func (r *Room) voteUpdateEvent() Event {
	votes := make(map[string]string, len(r.Votes))
	for k, v := range r.Votes {
		votes[k] = v
	}
	return Event{Type: EvtVoteUpdate, Data: VoteUpdateData{Votes: votes, Required: r.RequiredVotes()}}
}

func (r *Room) gameOverEvent(winner Team, message string) Event {
	r.Phase = PhaseGameOver
	r.Winner = winner
	r.timerGen++
	return Event{Type: EvtGameOver, Data: GameOverData{
		Winner:            winner,
		SecretWord:        r.SecretWord,
		Outsiders:         append([]string{}, r.Outsiders...),
		RevealedOutsiders: append([]string{}, r.RevealedOutsiders...),
		Message:           message,
	}}
}

func (r *Room) startTimer(kind TimerKind, after time.Duration, n int) Event {
	return Event{Type: EvtTimerStarted, Timer: Timer{Kind: kind, After: after, N: n, Gen: r.timerGen}}
}

func roomFullMessage(current, capacity int) string {
	return fmt.Sprintf("room is full (%d/%d)", current, capacity)
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// EventsOfType filters events, keeping their order.
func EventsOfType(events []Event, eventType EventType) []Event {
	var out []Event
	for _, event := range events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
