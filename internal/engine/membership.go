package engine

import "slices"

func (r *Room) join(p Player) ([]Event, error) {
	if p.Name == "" {
		return nil, ErrInvalidPlayer
	}
	if len(r.Players) >= r.Capacity {
		return nil, ErrRoomFull
	}
	if r.indexOf(p.Name) >= 0 {
		return nil, ErrNameTaken
	}
	if r.Phase != PhaseWaiting {
		return nil, ErrGameAlreadyStarted
	}

	p.IsOutsider = false
	r.Players = append(r.Players, p)
	events := []Event{r.membershipEvent()}

	if len(r.Players) == r.Capacity {
		r.Phase = PhaseWordInput
		events = append(events,
			Event{Type: EvtRoomFull, Data: RoomFullData{
				Message:      roomFullMessage(len(r.Players), r.Capacity),
				CurrentCount: len(r.Players),
				Capacity:     r.Capacity,
			}},
			Event{Type: EvtStartWordInput, Data: StartWordInputData{}},
		)
	}
	return events, nil
}

func (r *Room) leave(name string) ([]Event, error) {
	if r.indexOf(name) < 0 {
		return nil, ErrPlayerNotFound
	}

	wasOutsider := r.isOutsider(name)
	r.removePlayer(name)
	events := []Event{r.membershipEvent()}
	if r.Empty() {
		return events, nil
	}

	switch r.Phase {
	case PhaseWordInput:
		// The seat has to be refilled before submission can complete again;
		// a countdown already running goes stale with the generation bump.
		r.Phase = PhaseWaiting
		r.WordPool = nil
		r.timerGen++

	case PhasePlaying, PhaseVoting:
		if wasOutsider && len(r.Outsiders) == 0 {
			events = append(events, r.gameOverEvent(TeamInsiders, "all outsiders left the game, insiders win"))
			break
		}
		if r.Phase == PhaseVoting {
			events = append(events, r.voteUpdateEvent())
			events = append(events, r.resolve()...)
		}
	}
	return events, nil
}

// removePlayer drops every trace of name from the room: seat, submission,
// outsider mark and any vote cast by or against them.
func (r *Room) removePlayer(name string) {
	r.Players = slices.DeleteFunc(r.Players, func(p Player) bool { return p.Name == name })
	r.CommittedPlayers = slices.DeleteFunc(r.CommittedPlayers, func(n string) bool { return n == name })
	r.Outsiders = slices.DeleteFunc(r.Outsiders, func(n string) bool { return n == name })
	delete(r.WordsBySubmitter, name)
	delete(r.Votes, name)
	for voter, accused := range r.Votes {
		if accused == name {
			delete(r.Votes, voter)
		}
	}
}
