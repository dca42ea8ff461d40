package engine

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() Rules {
	return Rules{CountdownFrom: 5, CountdownTick: time.Second, DiscussionDuration: 30 * time.Second}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// newTestRoom creates a room for names[0] and joins the rest in order.
func newTestRoom(t *testing.T, capacity, outsiders int, names ...string) *Room {
	t.Helper()
	r, _, err := NewRoom("ROOM01", capacity, outsiders, Player{Name: names[0], Avatar: "🦊"}, testRules(), seeded())
	require.NoError(t, err)
	for _, n := range names[1:] {
		_, err := Apply(r, Command{Type: CmdJoin, Player: Player{Name: n, Avatar: "🐙"}})
		require.NoError(t, err)
	}
	return r
}

func submit(t *testing.T, r *Room, name string, words ...string) []Event {
	t.Helper()
	events, err := Apply(r, Command{Type: CmdSubmitWords, Player: Player{Name: name}, Words: words})
	require.NoError(t, err)
	return events
}

// runTimers keeps firing the timers the room asks for until it stops asking
// or a timer of kind stop is requested, and returns every event emitted.
func runTimers(t *testing.T, r *Room, events []Event, stop TimerKind) []Event {
	t.Helper()
	var all []Event
	for {
		timers := EventsOfType(events, EvtTimerStarted)
		if len(timers) == 0 {
			return all
		}
		require.Len(t, timers, 1)
		if timers[0].Timer.Kind == stop {
			return all
		}
		var err error
		events, err = Apply(r, CommandForTimer(timers[0].Timer))
		require.NoError(t, err)
		all = append(all, events...)
	}
}

func timerOf(t *testing.T, events []Event, kind TimerKind) Timer {
	t.Helper()
	for _, e := range events {
		if e.Type == EvtTimerStarted && e.Timer.Kind == kind {
			return e.Timer
		}
	}
	t.Fatalf("no %s timer in %+v", kind, events)
	return Timer{}
}

// startedRoom runs a room all the way into the playing phase.
func startedRoom(t *testing.T, capacity, outsiders int, names ...string) (*Room, []Event) {
	t.Helper()
	r := newTestRoom(t, capacity, outsiders, names...)
	var events []Event
	for _, n := range names {
		events = submit(t, r, n, "word-"+n)
	}
	all := runTimers(t, r, events, TimerDiscussion)
	require.Equal(t, PhasePlaying, r.Phase)
	return r, all
}

func votingRoom(t *testing.T, capacity, outsiders int, names ...string) *Room {
	t.Helper()
	r, events := startedRoom(t, capacity, outsiders, names...)
	_, err := Apply(r, CommandForTimer(timerOf(t, events, TimerDiscussion)))
	require.NoError(t, err)
	require.Equal(t, PhaseVoting, r.Phase)
	return r
}

func castVote(t *testing.T, r *Room, voter, accused string) []Event {
	t.Helper()
	events, err := Apply(r, Command{Type: CmdVote, Player: Player{Name: voter}, Accused: accused})
	require.NoError(t, err)
	return events
}

func insiders(r *Room) []string {
	var out []string
	for _, p := range r.Players {
		if !p.IsOutsider {
			out = append(out, p.Name)
		}
	}
	return out
}

func TestNewRoom_ValidatesCounts(t *testing.T) {
	cases := []struct {
		name      string
		id        string
		capacity  int
		outsiders int
		player    string
		wantErr   error
	}{
		{name: "valid", id: "A", capacity: 3, outsiders: 1, player: "ann"},
		{name: "outsiders equal capacity", id: "A", capacity: 3, outsiders: 3, player: "ann", wantErr: ErrInvalidConfiguration},
		{name: "outsiders above capacity", id: "A", capacity: 2, outsiders: 5, player: "ann", wantErr: ErrInvalidConfiguration},
		{name: "no outsiders", id: "A", capacity: 4, outsiders: 0, player: "ann", wantErr: ErrInvalidConfiguration},
		{name: "single seat", id: "A", capacity: 1, outsiders: 1, player: "ann", wantErr: ErrInvalidConfiguration},
		{name: "missing id", id: "", capacity: 3, outsiders: 1, player: "ann", wantErr: ErrInvalidRoomID},
		{name: "missing name", id: "A", capacity: 3, outsiders: 1, player: "", wantErr: ErrInvalidPlayer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, events, err := NewRoom(tc.id, tc.capacity, tc.outsiders, Player{Name: tc.player}, testRules(), seeded())
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhaseWaiting, r.Phase)
			require.Len(t, events, 2)
			assert.Equal(t, EvtRoomCreated, events[0].Type)
			assert.Equal(t, tc.player, events[0].To)
			assert.Equal(t, EvtRoomJoined, events[1].Type)
			assert.Empty(t, events[1].To)
		})
	}
}

func TestJoin_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T) *Room
		player  string
		wantErr error
	}{
		{
			name:    "full room",
			setup:   func(t *testing.T) *Room { return newTestRoom(t, 2, 1, "ann", "bob") },
			player:  "cid",
			wantErr: ErrRoomFull,
		},
		{
			name:    "name taken",
			setup:   func(t *testing.T) *Room { return newTestRoom(t, 3, 1, "ann") },
			player:  "ann",
			wantErr: ErrNameTaken,
		},
		{
			name: "game already started",
			setup: func(t *testing.T) *Room {
				r, _ := startedRoom(t, 3, 1, "ann", "bob", "cid")
				_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "cid"}})
				require.NoError(t, err)
				return r
			},
			player:  "dan",
			wantErr: ErrGameAlreadyStarted,
		},
		{
			name:    "empty name",
			setup:   func(t *testing.T) *Room { return newTestRoom(t, 3, 1, "ann") },
			player:  "",
			wantErr: ErrInvalidPlayer,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.setup(t)
			before := r.Clone()
			events, err := Apply(r, Command{Type: CmdJoin, Player: Player{Name: tc.player}})
			require.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, events)
			assert.Equal(t, before.Players, r.Players)
			assert.Equal(t, before.Phase, r.Phase)
		})
	}
}

func TestJoin_NameMatchIsCaseSensitive(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann")
	_, err := Apply(r, Command{Type: CmdJoin, Player: Player{Name: "Ann"}})
	require.NoError(t, err)
	assert.Len(t, r.Players, 2)
}

func TestJoin_FillingRoomStartsWordInput(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob")
	require.Equal(t, PhaseWaiting, r.Phase)

	events, err := Apply(r, Command{Type: CmdJoin, Player: Player{Name: "cid"}})
	require.NoError(t, err)

	assert.Equal(t, PhaseWordInput, r.Phase)
	require.Len(t, events, 3)
	assert.Equal(t, EvtRoomJoined, events[0].Type)
	assert.Equal(t, EvtRoomFull, events[1].Type)
	assert.Equal(t, EvtStartWordInput, events[2].Type)

	joined := events[0].Data.(RoomJoinedData)
	assert.Equal(t, 3, joined.CurrentCount)
	assert.Equal(t, 3, joined.Capacity)
	assert.Equal(t, []PublicPlayer{{"ann", "🦊"}, {"bob", "🐙"}, {"cid", ""}}, joined.Players)
	assert.LessOrEqual(t, len(r.Players), r.Capacity)
}

func TestSubmitWords_WrongPhase(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob")
	_, err := Apply(r, Command{Type: CmdSubmitWords, Player: Player{Name: "ann"}, Words: []string{"x"}})
	require.ErrorIs(t, err, ErrWrongPhase)

	r, _ = startedRoom(t, 3, 1, "ann", "bob", "cid")
	_, err = Apply(r, Command{Type: CmdSubmitWords, Player: Player{Name: "ann"}, Words: []string{"x"}})
	require.ErrorIs(t, err, ErrWrongPhase)
}

func TestSubmitWords_RejectsUnknownPlayerAndEmptyLists(t *testing.T) {
	r := newTestRoom(t, 2, 1, "ann", "bob")

	_, err := Apply(r, Command{Type: CmdSubmitWords, Player: Player{Name: "zed"}, Words: []string{"x"}})
	require.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = Apply(r, Command{Type: CmdSubmitWords, Player: Player{Name: "ann"}, Words: []string{" ", ""}})
	require.ErrorIs(t, err, ErrNoWords)
	assert.Empty(t, r.CommittedPlayers)
}

func TestSubmitWords_RepeatIsAcknowledgedPrivately(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")

	first := submit(t, r, "ann", "apple")
	require.Len(t, first, 1)
	assert.Empty(t, first[0].To)

	again := submit(t, r, "ann", "pear", "plum")
	require.Len(t, again, 1)
	assert.Equal(t, "ann", again[0].To)
	assert.Equal(t, []string{"apple"}, r.WordsBySubmitter["ann"])
	assert.Equal(t, WordsCommittedData{CommittedPlayers: []string{"ann"}, Total: 3, Current: 1}, again[0].Data)
}

func TestSubmitWords_CompletionBuildsPoolAndStartsCountdown(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")

	submit(t, r, "bob", "banana", "apple")
	submit(t, r, "ann", "apple")
	assert.Empty(t, r.WordPool)
	events := submit(t, r, "cid", "cherry")

	assert.Equal(t, []string{"banana", "apple", "apple", "cherry"}, r.WordPool)
	timer := timerOf(t, events, TimerCountdown)
	assert.Equal(t, 5, timer.N)
	assert.Equal(t, time.Second, timer.After)
}

func TestCountdown_TicksFiveToZeroThenStarts(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")
	submit(t, r, "ann", "apple")
	submit(t, r, "bob", "banana")
	events := submit(t, r, "cid", "cherry")

	all := runTimers(t, r, events, TimerDiscussion)

	var ticks []int
	for _, e := range EventsOfType(all, EvtCountdown) {
		ticks = append(ticks, e.Data.(CountdownData).N)
	}
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, ticks)
	assert.Equal(t, PhasePlaying, r.Phase)
	assert.Equal(t, 30*time.Second, timerOf(t, all, TimerDiscussion).After)
}

func TestStartGame_ThreePlayerScenario(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")
	submit(t, r, "ann", "apple")
	submit(t, r, "bob", "banana")
	events := submit(t, r, "cid", "cherry")
	require.Equal(t, []string{"apple", "banana", "cherry"}, r.WordPool)

	all := runTimers(t, r, events, TimerDiscussion)
	starts := EventsOfType(all, EvtGameStart)
	require.Len(t, starts, 3)

	outsiderCount := 0
	var words []string
	for _, e := range starts {
		data := e.Data.(GameStartData)
		p, ok := r.Player(e.To)
		require.True(t, ok)
		assert.Len(t, data.Players, 3)
		if data.Role == RoleOutsider {
			outsiderCount++
			assert.True(t, p.IsOutsider)
			assert.Nil(t, data.Word)
			continue
		}
		require.NotNil(t, data.Word)
		assert.False(t, p.IsOutsider)
		words = append(words, *data.Word)
	}

	assert.Equal(t, 1, outsiderCount)
	require.Len(t, words, 2)
	assert.Equal(t, words[0], words[1])
	assert.Contains(t, r.WordPool, words[0])
	assert.Equal(t, r.SecretWord, words[0])
}

func TestStartGame_MarksExactlyOutsiderCountDistinctPlayers(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		r := newTestRoom(t, 6, 3, "a", "b", "c", "d", "e", "f")
		r.rng = rand.New(rand.NewPCG(seed, seed+1))
		var events []Event
		for _, p := range r.Players {
			events = submit(t, r, p.Name, "w")
		}
		runTimers(t, r, events, TimerDiscussion)

		marked := 0
		for _, p := range r.Players {
			if p.IsOutsider {
				marked++
				assert.Contains(t, r.Outsiders, p.Name)
			}
		}
		assert.Equal(t, 3, marked)
		assert.Len(t, r.Outsiders, 3)
		assert.Equal(t, r.Outsiders, r.RevealedOutsiders)
	}
}

func TestRosterNeverCarriesRoles(t *testing.T) {
	_, events := startedRoom(t, 3, 1, "ann", "bob", "cid")
	for _, e := range EventsOfType(events, EvtGameStart) {
		for _, p := range e.Data.(GameStartData).Players {
			assert.Equal(t, PublicPlayer{Name: p.Name, Avatar: p.Avatar}, p)
		}
	}
}

func TestTimers_StaleFiresAreIgnored(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")
	submit(t, r, "ann", "apple")
	submit(t, r, "bob", "banana")
	events := submit(t, r, "cid", "cherry")
	countdown := timerOf(t, events, TimerCountdown)

	// A departure during the countdown sends the room back to waiting.
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "cid"}})
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, r.Phase)
	assert.Empty(t, r.WordPool)

	stale, err := Apply(r, CommandForTimer(countdown))
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.Equal(t, PhaseWaiting, r.Phase)
}

func TestTimers_DiscussionEndOnlyMovesPlayingRooms(t *testing.T) {
	r, events := startedRoom(t, 3, 1, "ann", "bob", "cid")
	discussion := timerOf(t, events, TimerDiscussion)

	outsider := r.Outsiders[0]
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: outsider}})
	require.NoError(t, err)
	require.Equal(t, PhaseGameOver, r.Phase)

	late, err := Apply(r, CommandForTimer(discussion))
	require.NoError(t, err)
	assert.Empty(t, late)
	assert.Equal(t, PhaseGameOver, r.Phase)
}

func TestTimers_DiscussionEndStartsVoting(t *testing.T) {
	r, events := startedRoom(t, 3, 1, "ann", "bob", "cid")
	out, err := Apply(r, CommandForTimer(timerOf(t, events, TimerDiscussion)))
	require.NoError(t, err)

	assert.Equal(t, PhaseVoting, r.Phase)
	require.Len(t, out, 1)
	assert.Equal(t, EvtStartVoting, out[0].Type)
	assert.Equal(t, StartVotingData{Players: r.Roster(), Round: 1}, out[0].Data)
}

func TestVote_WrongPhaseAndUnknownPlayers(t *testing.T) {
	r, _ := startedRoom(t, 3, 1, "ann", "bob", "cid")
	_, err := Apply(r, Command{Type: CmdVote, Player: Player{Name: "ann"}, Accused: "bob"})
	require.ErrorIs(t, err, ErrWrongPhase)

	r = votingRoom(t, 3, 1, "ann", "bob", "cid")
	_, err = Apply(r, Command{Type: CmdVote, Player: Player{Name: "ann"}, Accused: "zed"})
	require.ErrorIs(t, err, ErrPlayerNotFound)
	_, err = Apply(r, Command{Type: CmdVote, Player: Player{Name: "zed"}, Accused: "ann"})
	require.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Empty(t, r.Votes)
}

func TestVote_LastWriteWins(t *testing.T) {
	r := votingRoom(t, 5, 1, "a", "b", "c", "d", "e")
	castVote(t, r, "a", "b")
	events := castVote(t, r, "a", "c")

	assert.Equal(t, map[string]string{"a": "c"}, r.Votes)
	assert.Equal(t, VoteUpdateData{Votes: map[string]string{"a": "c"}, Required: 3}, events[0].Data)
}

func TestVote_NoResolutionBelowThreshold(t *testing.T) {
	r := votingRoom(t, 5, 1, "a", "b", "c", "d", "e")
	target := insiders(r)[0]

	castVote(t, r, "a", target)
	events := castVote(t, r, "b", target)

	assert.False(t, ContainsEvent(events, EvtVoteResult))
	assert.Equal(t, PhaseVoting, r.Phase)
}

func TestVote_PluralityBelowMajorityWaits(t *testing.T) {
	r := votingRoom(t, 5, 1, "a", "b", "c", "d", "e")
	names := insiders(r)

	// Three votes cast, but no one holds three of them.
	castVote(t, r, "a", names[0])
	castVote(t, r, "b", names[0])
	events := castVote(t, r, "c", names[1])

	assert.False(t, ContainsEvent(events, EvtVoteResult))
	assert.Equal(t, PhaseVoting, r.Phase)
}

func TestVote_TieAtTopNeverResolves(t *testing.T) {
	r := votingRoom(t, 5, 1, "a", "b", "c", "d", "e")
	ins := insiders(r)
	outsider := r.Outsiders[0]

	castVote(t, r, ins[0], ins[1])
	castVote(t, r, ins[1], ins[0])
	castVote(t, r, ins[2], ins[0])
	castVote(t, r, outsider, ins[1])
	require.Equal(t, PhaseVoting, r.Phase)

	// With four players left two votes are enough, but both accused hold two.
	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: ins[3]}})
	require.NoError(t, err)

	assert.False(t, ContainsEvent(events, EvtVoteResult))
	assert.Equal(t, PhaseVoting, r.Phase)
	first, second := min(ins[0], ins[1]), max(ins[0], ins[1])
	assert.Equal(t, []TallyEntry{{first, 2}, {second, 2}}, r.Tally())
}

func TestVote_FourPlayersOutsiderFoundWithTwoVotes(t *testing.T) {
	r := votingRoom(t, 4, 1, "a", "b", "c", "d")
	outsider := r.Outsiders[0]
	voters := insiders(r)

	castVote(t, r, voters[0], outsider)
	events := castVote(t, r, voters[1], outsider)

	require.True(t, ContainsEvent(events, EvtVoteResult))
	result := EventsOfType(events, EvtVoteResult)[0].Data.(VoteResultData)
	assert.True(t, result.WasOutsider)
	assert.Equal(t, outsider, result.Accused)
	assert.Equal(t, 0, result.OutsidersLeft)

	over := EventsOfType(events, EvtGameOver)
	require.Len(t, over, 1)
	data := over[0].Data.(GameOverData)
	assert.Equal(t, TeamInsiders, data.Winner)
	assert.Empty(t, data.Outsiders)
	assert.Equal(t, []string{outsider}, data.RevealedOutsiders)
	assert.Equal(t, r.SecretWord, data.SecretWord)
	assert.Equal(t, PhaseGameOver, r.Phase)
	_, stillThere := r.Player(outsider)
	assert.False(t, stillThere)
}

func TestVote_AccusingInsiderEndsWithOutsidersWinning(t *testing.T) {
	r := votingRoom(t, 3, 1, "ann", "bob", "cid")
	innocent := insiders(r)[0]

	castVote(t, r, "ann", innocent)
	events := castVote(t, r, "bob", innocent)

	over := EventsOfType(events, EvtGameOver)
	require.Len(t, over, 1)
	data := over[0].Data.(GameOverData)
	assert.Equal(t, TeamOutsiders, data.Winner)
	assert.Equal(t, r.Outsiders, data.Outsiders)
	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.Len(t, r.Players, 3)
}

func TestVote_EliminationStartsNewRound(t *testing.T) {
	r := votingRoom(t, 5, 2, "a", "b", "c", "d", "e")
	first := r.Outsiders[0]

	var events []Event
	for _, voter := range insiders(r) {
		events = castVote(t, r, voter, first)
		if ContainsEvent(events, EvtVoteResult) {
			break
		}
	}

	require.True(t, ContainsEvent(events, EvtStartVoting))
	assert.Equal(t, PhaseVoting, r.Phase)
	assert.Equal(t, 2, r.Round)
	assert.Empty(t, r.Votes)
	assert.Len(t, r.Players, 4)
	assert.Len(t, r.Outsiders, 1)
	assert.NotContains(t, r.Outsiders, first)
}

func TestLeave_UnknownPlayer(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann")
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "bob"}})
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestLeave_PurgesPlayerEverywhere(t *testing.T) {
	r := votingRoom(t, 5, 2, "a", "b", "c", "d", "e")
	leaver := insiders(r)[0]
	other := insiders(r)[1]
	castVote(t, r, leaver, other)
	castVote(t, r, other, leaver)

	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: leaver}})
	require.NoError(t, err)

	assert.Equal(t, EvtRoomJoined, events[0].Type)
	_, ok := r.Player(leaver)
	assert.False(t, ok)
	assert.NotContains(t, r.CommittedPlayers, leaver)
	assert.NotContains(t, r.WordsBySubmitter, leaver)
	assert.Empty(t, r.Votes)
	assert.True(t, ContainsEvent(events, EvtVoteUpdate))
}

func TestLeave_LastOutsiderDuringPlayingEndsGame(t *testing.T) {
	r, _ := startedRoom(t, 3, 1, "ann", "bob", "cid")
	outsider := r.Outsiders[0]

	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: outsider}})
	require.NoError(t, err)

	over := EventsOfType(events, EvtGameOver)
	require.Len(t, over, 1)
	data := over[0].Data.(GameOverData)
	assert.Equal(t, TeamInsiders, data.Winner)
	assert.Empty(t, data.Outsiders)
	assert.NotEmpty(t, data.Message)
	assert.Equal(t, PhaseGameOver, r.Phase)
	assert.Empty(t, r.Votes)
}

func TestLeave_OneOfSeveralOutsidersKeepsGameRunning(t *testing.T) {
	r := votingRoom(t, 5, 2, "a", "b", "c", "d", "e")
	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: r.Outsiders[0]}})
	require.NoError(t, err)

	assert.False(t, ContainsEvent(events, EvtGameOver))
	assert.Equal(t, PhaseVoting, r.Phase)
	assert.Len(t, r.Outsiders, 1)
}

func TestLeave_ShrinkingRosterCanCompleteARound(t *testing.T) {
	r := votingRoom(t, 5, 1, "a", "b", "c", "d", "e")
	outsider := r.Outsiders[0]
	ins := insiders(r)

	castVote(t, r, ins[0], outsider)
	castVote(t, r, ins[1], outsider)
	require.Equal(t, PhaseVoting, r.Phase)

	// Four players left: two votes on the outsider now meet the threshold.
	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: ins[3]}})
	require.NoError(t, err)

	require.True(t, ContainsEvent(events, EvtGameOver))
	assert.Equal(t, TeamInsiders, r.Winner)
}

func TestLeave_LastPlayerEmptiesRoom(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob")
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "ann"}})
	require.NoError(t, err)
	assert.False(t, r.Empty())

	events, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "bob"}})
	require.NoError(t, err)
	assert.True(t, r.Empty())
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Data.(RoomJoinedData).CurrentCount)
}

func TestLeave_DuringWordInputAllowsRefill(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann", "bob", "cid")
	submit(t, r, "ann", "apple")
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: "bob"}})
	require.NoError(t, err)
	require.Equal(t, PhaseWaiting, r.Phase)

	events, err := Apply(r, Command{Type: CmdJoin, Player: Player{Name: "dan"}})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtStartWordInput))
	assert.Equal(t, []string{"ann"}, r.CommittedPlayers)

	submit(t, r, "cid", "cherry")
	events = submit(t, r, "dan", "date")
	assert.Equal(t, []string{"apple", "cherry", "date"}, r.WordPool)
	timerOf(t, events, TimerCountdown)
}

func TestOutsidersAlwaysSubsetOfPlayers(t *testing.T) {
	r := votingRoom(t, 5, 2, "a", "b", "c", "d", "e")
	check := func() {
		for _, o := range r.Outsiders {
			_, ok := r.Player(o)
			assert.True(t, ok, "outsider %s is not a player", o)
		}
		for voter := range r.Votes {
			_, ok := r.Player(voter)
			assert.True(t, ok, "voter %s is not a player", voter)
		}
	}

	for _, voter := range insiders(r) {
		castVote(t, r, voter, r.Outsiders[0])
		check()
		if r.Round > 1 {
			break
		}
	}
	_, err := Apply(r, Command{Type: CmdLeave, Player: Player{Name: r.Outsiders[0]}})
	require.NoError(t, err)
	check()
	assert.Equal(t, PhaseGameOver, r.Phase)
}

func TestApply_UnsupportedCommand(t *testing.T) {
	r := newTestRoom(t, 3, 1, "ann")
	_, err := Apply(r, Command{Type: "Teleport"})
	require.ErrorIs(t, err, ErrUnsupportedCommand)

	_, err = Apply(r, Command{Type: CmdCountdownTick, Timer: Timer{Kind: TimerDiscussion}})
	require.ErrorIs(t, err, ErrUnsupportedCommand)
}
