package engine

import (
	"cmp"
	"fmt"
	"slices"
)

func (r *Room) vote(voter, accused string) ([]Event, error) {
	if r.Phase != PhaseVoting {
		return nil, ErrWrongPhase
	}
	if r.indexOf(voter) < 0 || r.indexOf(accused) < 0 {
		return nil, ErrPlayerNotFound
	}

	r.Votes[voter] = accused
	events := []Event{r.voteUpdateEvent()}
	return append(events, r.resolve()...), nil
}

// Tally counts votes per accused, highest first; equal counts sort by name.
func (r *Room) Tally() []TallyEntry {
	counts := map[string]int{}
	for _, accused := range r.Votes {
		counts[accused]++
	}
	tally := make([]TallyEntry, 0, len(counts))
	for name, n := range counts {
		tally = append(tally, TallyEntry{Name: name, Count: n})
	}
	slices.SortFunc(tally, func(a, b TallyEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return tally
}

// resolve closes the round once one accused holds a strict top tally of at
// least RequiredVotes. A tie at the top keeps the round open.
func (r *Room) resolve() []Event {
	required := r.RequiredVotes()
	if len(r.Votes) < required {
		return nil
	}
	tally := r.Tally()
	if len(tally) == 0 || tally[0].Count < required {
		return nil
	}
	if len(tally) > 1 && tally[1].Count == tally[0].Count {
		return nil
	}

	accused := tally[0].Name
	if !r.isOutsider(accused) {
		result := Event{Type: EvtVoteResult, Data: VoteResultData{
			Message:       fmt.Sprintf("%s was not an outsider. Outsiders win.", accused),
			Accused:       accused,
			OutsidersLeft: len(r.Outsiders),
			Tally:         tally,
		}}
		return []Event{result, r.gameOverEvent(TeamOutsiders, "")}
	}

	r.removePlayer(accused)
	events := []Event{{Type: EvtVoteResult, Data: VoteResultData{
		Message:       fmt.Sprintf("Outsider exposed! %s was an outsider.", accused),
		Accused:       accused,
		WasOutsider:   true,
		OutsidersLeft: len(r.Outsiders),
		Tally:         tally,
	}}}

	if len(r.Outsiders) == 0 {
		return append(events, r.gameOverEvent(TeamInsiders, ""))
	}

	r.Votes = map[string]string{}
	r.Round++
	return append(events, Event{Type: EvtStartVoting, Data: StartVotingData{Players: r.Roster(), Round: r.Round}})
}
