package engine

import "slices"

// startGame assigns roles and the secret word, then addresses every player
// individually: only insiders learn the word.
func (r *Room) startGame() []Event {
	r.Phase = PhasePlaying

	picked := r.drawOutsiders()
	r.Outsiders = nil
	for i := range r.Players {
		r.Players[i].IsOutsider = slices.Contains(picked, i)
		if r.Players[i].IsOutsider {
			r.Outsiders = append(r.Outsiders, r.Players[i].Name)
		}
	}
	r.RevealedOutsiders = slices.Clone(r.Outsiders)
	r.SecretWord = r.WordPool[r.rng.IntN(len(r.WordPool))]
	r.Votes = map[string]string{}
	r.Round = 0

	roster := r.Roster()
	events := make([]Event, 0, len(r.Players)+1)
	for _, p := range r.Players {
		data := GameStartData{Role: RoleInsider, Players: roster}
		if p.IsOutsider {
			data.Role = RoleOutsider
		} else {
			word := r.SecretWord
			data.Word = &word
		}
		events = append(events, Event{Type: EvtGameStart, To: p.Name, Data: data})
	}

	r.timerGen++
	return append(events, r.startTimer(TimerDiscussion, r.Rules.DiscussionDuration, 0))
}

// drawOutsiders picks OutsiderCount distinct seat indices by rejection
// sampling. At least one insider is always left.
func (r *Room) drawOutsiders() []int {
	want := min(r.OutsiderCount, len(r.Players)-1)
	picked := make([]int, 0, want)
	for len(picked) < want {
		i := r.rng.IntN(len(r.Players))
		if slices.Contains(picked, i) {
			continue
		}
		picked = append(picked, i)
	}
	return picked
}
