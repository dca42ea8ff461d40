package engine

import (
	"slices"
	"strings"
)

func (r *Room) submitWords(name string, words []string) ([]Event, error) {
	if r.Phase != PhaseWordInput {
		return nil, ErrWrongPhase
	}
	if r.indexOf(name) < 0 {
		return nil, ErrPlayerNotFound
	}

	// Repeat submissions only resynchronize the sender's progress view.
	if slices.Contains(r.CommittedPlayers, name) {
		return []Event{{Type: EvtWordsCommitted, To: name, Data: r.progress()}}, nil
	}

	cleaned := cleanWords(words)
	if len(cleaned) == 0 {
		return nil, ErrNoWords
	}

	r.CommittedPlayers = append(r.CommittedPlayers, name)
	r.WordsBySubmitter[name] = cleaned
	events := []Event{{Type: EvtWordsCommitted, Data: r.progress()}}

	if len(r.CommittedPlayers) == r.Capacity {
		r.WordPool = r.assemblePool()
		r.timerGen++
		events = append(events, r.startTimer(TimerCountdown, r.Rules.CountdownTick, r.Rules.CountdownFrom))
	}
	return events, nil
}

func (r *Room) progress() WordsCommittedData {
	return WordsCommittedData{
		CommittedPlayers: slices.Clone(r.CommittedPlayers),
		Total:            r.Capacity,
		Current:          len(r.CommittedPlayers),
	}
}

// assemblePool concatenates submissions in submission order. Duplicates
// across players are kept.
func (r *Room) assemblePool() []string {
	var pool []string
	for _, name := range r.CommittedPlayers {
		pool = append(pool, r.WordsBySubmitter[name]...)
	}
	return pool
}

func (r *Room) countdownTick(t Timer) []Event {
	if r.Phase != PhaseWordInput || t.Gen != r.timerGen || len(r.WordPool) == 0 {
		return nil
	}

	events := []Event{{Type: EvtCountdown, Data: CountdownData{N: t.N}}}
	if t.N > 0 {
		return append(events, r.startTimer(TimerCountdown, r.Rules.CountdownTick, t.N-1))
	}
	return append(events, r.startGame()...)
}

func (r *Room) discussionEnd(t Timer) []Event {
	if r.Phase != PhasePlaying || t.Gen != r.timerGen {
		return nil
	}

	r.Phase = PhaseVoting
	r.Votes = map[string]string{}
	r.Round = 1
	r.timerGen++
	return []Event{{Type: EvtStartVoting, Data: StartVotingData{Players: r.Roster(), Round: r.Round}}}
}

func cleanWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}
