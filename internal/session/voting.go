package session

// Tally is the outcome of counting one agenda item's votes.
type Tally struct {
	Winner    string
	Count     int
	Total     int
	Threshold int
	Passed    bool
}

// tallyVotes counts votes in first-vote order. The winner is the option with
// the most votes; ties go to the option that appeared first during the count.
// passed requires the winner to reach ceil(total/2) where total counts votes
// cast, not seats.
func tallyVotes(item *AgendaItem) (Tally, bool) {
	counts := make(map[string]int, len(item.Options))
	var order []string
	for _, participantID := range item.VoteOrder {
		option, ok := item.Votes[participantID]
		if !ok {
			continue
		}
		if _, seen := counts[option]; !seen {
			order = append(order, option)
		}
		counts[option]++
	}
	if len(order) == 0 {
		return Tally{}, false
	}

	t := Tally{Total: len(item.Votes)}
	for _, option := range order {
		if counts[option] > t.Count {
			t.Winner = option
			t.Count = counts[option]
		}
	}
	t.Threshold = (t.Total + 1) / 2
	t.Passed = t.Count >= t.Threshold
	return t, true
}

// resolve fixes the item's outcome. It is a no-op for resolved or unvoted items.
func resolve(item *AgendaItem) (Tally, bool) {
	if item.Resolved {
		return Tally{}, false
	}
	t, ok := tallyVotes(item)
	if !ok {
		return Tally{}, false
	}
	item.Resolved = true
	item.ChosenOption = t.Winner
	item.Passed = t.Passed
	return t, true
}

func allVoted(item *AgendaItem, participants []Participant) bool {
	for _, p := range participants {
		if _, ok := item.Votes[p.ID]; !ok {
			return false
		}
	}
	return true
}
