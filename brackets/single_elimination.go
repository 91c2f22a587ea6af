package brackets

import (
	"github.com/footballinvestment/lfa-legacy-go/models"
)

// MatchPlan is one planned match before persistence. NextIndex points at the
// plan slice entry that consumes this match's winner (-1 for the final);
// the caller rewrites it into a database id once rows exist.
type MatchPlan struct {
	Round     int
	SlotIndex int

	ParticipantAID *int
	ParticipantBID *int

	Status   models.MatchStatus
	WinnerID *int

	NextIndex int
	NextSlot  int
}

// IsBye reports whether the match was planned with a single participant and
// auto-completed at generation time.
func (p *MatchPlan) IsBye() bool {
	return p.Round == 1 && p.Status == models.MatchStatusCompleted
}

// Plan is the full deterministic output of bracket generation.
type Plan struct {
	Matches    []*MatchPlan
	RoundCount int
	ByeCount   int
}

// GenerateSingleElimination builds a complete single-elimination bracket for
// the given participants, ordered by seed (index 0 holds seed 1). Round 1 is
// populated from the seeded pairing, byes auto-complete in favor of their
// sole participant and their winners are propagated into round 2; rounds
// 2..final are otherwise empty pending shells with the winner links fixed up
// front. The output is a pure function of the input order.
func GenerateSingleElimination(participantIDs []int) (*Plan, error) {
	n := len(participantIDs)
	if n < 2 {
		return nil, ErrInvalidParticipantCount
	}

	roundCount := 0
	for (1 << roundCount) < n {
		roundCount++
	}
	bracketSize := 1 << roundCount
	byeCount := bracketSize - n

	// Flat plan slice, round-major. roundOffset[r] is the index of the first
	// match of round r (1-based rounds).
	total := bracketSize - 1
	matches := make([]*MatchPlan, 0, total)
	roundOffset := make([]int, roundCount+2)
	for r := 1; r <= roundCount; r++ {
		roundOffset[r] = len(matches)
		inRound := bracketSize >> uint(r)
		for i := 0; i < inRound; i++ {
			mp := &MatchPlan{
				Round:     r,
				SlotIndex: i,
				Status:    models.MatchStatusPending,
				NextIndex: -1,
			}
			matches = append(matches, mp)
		}
	}
	roundOffset[roundCount+1] = len(matches)

	// Wire winner links: round r slot i feeds round r+1 slot i/2, alternating
	// between the A and B slot of the target.
	for r := 1; r < roundCount; r++ {
		inRound := bracketSize >> uint(r)
		for i := 0; i < inRound; i++ {
			mp := matches[roundOffset[r]+i]
			mp.NextIndex = roundOffset[r+1] + i/2
			mp.NextSlot = models.SlotA
			if i%2 != 0 {
				mp.NextSlot = models.SlotB
			}
		}
	}

	// Populate round 1 from the seeded pairing. Seeds beyond n are byes, so
	// the fold pairing hands every bye to the highest remaining seed.
	for i, pair := range seedPairs(bracketSize) {
		mp := matches[roundOffset[1]+i]
		if pair[0] < n {
			id := participantIDs[pair[0]]
			mp.ParticipantAID = &id
		}
		if pair[1] < n {
			id := participantIDs[pair[1]]
			mp.ParticipantBID = &id
		}

		switch {
		case mp.ParticipantAID != nil && mp.ParticipantBID != nil:
			mp.Status = models.MatchStatusScheduled
		case mp.ParticipantAID == nil && mp.ParticipantBID == nil:
			// Two byes can only meet if n <= bracketSize/2, which the round
			// count computation rules out.
			return nil, ErrCorruptBracket
		default:
			winner := mp.ParticipantAID
			if winner == nil {
				winner = mp.ParticipantBID
			}
			mp.Status = models.MatchStatusCompleted
			mp.WinnerID = winner
		}
	}

	// Propagate bye winners into their round 2 slots so the persisted rows
	// carry them from the start.
	for i := roundOffset[1]; i < roundOffset[2]; i++ {
		mp := matches[i]
		if mp.WinnerID == nil || mp.NextIndex < 0 {
			continue
		}
		target := matches[mp.NextIndex]
		id := *mp.WinnerID
		if mp.NextSlot == models.SlotA {
			target.ParticipantAID = &id
		} else {
			target.ParticipantBID = &id
		}
		if target.ParticipantAID != nil && target.ParticipantBID != nil {
			target.Status = models.MatchStatusScheduled
		}
	}

	return &Plan{Matches: matches, RoundCount: roundCount, ByeCount: byeCount}, nil
}

// seedPairs returns the round 1 pairing for a power-of-two bracket as
// 0-based seed positions: seed 1 meets the lowest remaining seed, seed 2 the
// next lowest, with the fold order keeping top seeds in opposite bracket
// halves.
func seedPairs(bracketSize int) [][2]int {
	if bracketSize < 2 {
		return nil
	}

	order := []int{0}
	for len(order) < bracketSize {
		doubled := len(order) * 2
		next := make([]int, 0, doubled)
		for _, seed := range order {
			next = append(next, seed, doubled-1-seed)
		}
		order = next
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(order); i += 2 {
		pairs = append(pairs, [2]int{order[i], order[i+1]})
	}
	return pairs
}
