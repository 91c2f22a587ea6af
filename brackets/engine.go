package brackets

import (
	"fmt"
	"sort"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

// Bracket is an in-memory arena over the persisted match rows of one
// tournament. All structural mutations go through it; the caller is expected
// to hold the tournament's mutation lock, apply exactly one operation, and
// persist the dirty set it returns.
type Bracket struct {
	tournamentID int
	matches      map[int]*models.Match
	ordered      []*models.Match
	final        *models.Match

	// feeders[targetID][slot] is the match whose winner fills that slot of
	// the target, fixed at generation time.
	feeders map[int][2]*models.Match

	dirty map[int]*models.Match
}

// Outcome reports what one engine operation changed.
type Outcome struct {
	// Dirty holds every match modified by the operation, in (round, slot)
	// order, ready to be persisted.
	Dirty []*models.Match

	// Eliminated / Reinstated are participant ids whose eliminated flag must
	// be flipped as a side effect.
	Eliminated []int
	Reinstated []int

	// TournamentComplete is set when the final reached completed;
	// ChampionID is its winner.
	TournamentComplete bool
	ChampionID         *int

	// TournamentDead is set when the final became terminal without a winner
	// (administrative cancellations collapsed the whole tree).
	TournamentDead bool
}

// NewBracket indexes the match rows of one tournament and validates the
// structural invariants: exactly one final, unique (round, slot) positions,
// and winner links forming a forest that collapses into the final.
func NewBracket(matches []*models.Match) (*Bracket, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matches", ErrCorruptBracket)
	}

	b := &Bracket{
		tournamentID: matches[0].TournamentID,
		matches:      make(map[int]*models.Match, len(matches)),
		ordered:      make([]*models.Match, 0, len(matches)),
		feeders:      make(map[int][2]*models.Match),
		dirty:        make(map[int]*models.Match),
	}

	seen := make(map[[2]int]bool, len(matches))
	for _, m := range matches {
		if m.TournamentID != b.tournamentID {
			return nil, fmt.Errorf("%w: match %d belongs to tournament %d", ErrCorruptBracket, m.ID, m.TournamentID)
		}
		pos := [2]int{m.RoundNumber, m.SlotIndex}
		if seen[pos] {
			return nil, fmt.Errorf("%w: duplicate position round %d slot %d", ErrCorruptBracket, m.RoundNumber, m.SlotIndex)
		}
		seen[pos] = true
		b.matches[m.ID] = m
		b.ordered = append(b.ordered, m)

		if m.NextMatchID == nil {
			if b.final != nil {
				return nil, fmt.Errorf("%w: more than one final", ErrCorruptBracket)
			}
			b.final = m
		}
	}
	if b.final == nil {
		return nil, fmt.Errorf("%w: no final match", ErrCorruptBracket)
	}

	sort.Slice(b.ordered, func(i, j int) bool {
		if b.ordered[i].RoundNumber != b.ordered[j].RoundNumber {
			return b.ordered[i].RoundNumber < b.ordered[j].RoundNumber
		}
		return b.ordered[i].SlotIndex < b.ordered[j].SlotIndex
	})

	for _, m := range b.ordered {
		if m.NextMatchID == nil {
			continue
		}
		target, ok := b.matches[*m.NextMatchID]
		if !ok {
			return nil, fmt.Errorf("%w: match %d links to unknown match %d", ErrCorruptBracket, m.ID, *m.NextMatchID)
		}
		if m.NextSlot == nil || (*m.NextSlot != models.SlotA && *m.NextSlot != models.SlotB) {
			return nil, fmt.Errorf("%w: match %d has no valid winner slot", ErrCorruptBracket, m.ID)
		}
		fs := b.feeders[target.ID]
		if fs[*m.NextSlot] != nil {
			return nil, fmt.Errorf("%w: slot %d of match %d has two feeders", ErrCorruptBracket, *m.NextSlot, target.ID)
		}
		fs[*m.NextSlot] = m
		b.feeders[target.ID] = fs
	}

	return b, nil
}

// Match returns the match with the given id, or ErrMatchNotInBracket.
func (b *Bracket) Match(id int) (*models.Match, error) {
	m, ok := b.matches[id]
	if !ok {
		return nil, ErrMatchNotInBracket
	}
	return m, nil
}

// Matches returns every match in (round, slot) order.
func (b *Bracket) Matches() []*models.Match {
	return b.ordered
}

// Final returns the root of the bracket tree.
func (b *Bracket) Final() *models.Match {
	return b.final
}

// StartMatch moves a scheduled match to in_progress, marking the beginning
// of a score-entry session.
func (b *Bracket) StartMatch(matchID int) (*Outcome, error) {
	m, err := b.Match(matchID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case models.MatchStatusScheduled:
	case models.MatchStatusCompleted:
		return nil, ErrMatchAlreadyResolved
	default:
		return nil, ErrMatchNotScorable
	}

	out := b.begin()
	m.Status = models.MatchStatusInProgress
	b.touch(m)
	return b.finish(out), nil
}

// SubmitScore resolves a scheduled or in_progress match. Ties are rejected;
// the strictly higher score wins and the winner is propagated downstream
// through an explicit worklist until it settles.
func (b *Bracket) SubmitScore(matchID, scoreA, scoreB int) (*Outcome, error) {
	m, err := b.Match(matchID)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case models.MatchStatusScheduled, models.MatchStatusInProgress:
	case models.MatchStatusCompleted:
		return nil, ErrMatchAlreadyResolved
	default:
		return nil, ErrMatchNotScorable
	}
	if err := validateScores(scoreA, scoreB); err != nil {
		return nil, err
	}
	if m.ParticipantAID == nil || m.ParticipantBID == nil {
		return nil, ErrMatchNotScorable
	}

	out := b.begin()
	a, bs := scoreA, scoreB
	m.ScoreA, m.ScoreB = &a, &bs

	winner, loser := *m.ParticipantAID, *m.ParticipantBID
	if scoreB > scoreA {
		winner, loser = loser, winner
	}
	b.complete(m, winner, out)
	out.Eliminated = append(out.Eliminated, loser)

	if err := b.propagate(m, out); err != nil {
		return nil, err
	}
	return b.finish(out), nil
}

// CancelMatch terminates a match administratively with no winner. Neither
// occupant advances; downstream matches that now wait on a dead slot resolve
// as walkovers once (or as soon as) their other slot holds a participant.
func (b *Bracket) CancelMatch(matchID int, reason string) (*Outcome, error) {
	m, err := b.Match(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status == models.MatchStatusCompleted {
		return nil, ErrMatchAlreadyResolved
	}
	if m.Status == models.MatchStatusCancelled {
		return nil, ErrMatchNotScorable
	}

	out := b.begin()
	b.cancel(m, reason, out)
	if err := b.resolveDownstream(m, out); err != nil {
		return nil, err
	}
	return b.finish(out), nil
}

// WithdrawParticipant pulls a still-active participant out of the bracket.
// If their undecided match has a known opponent it resolves as a walkover
// completion in the opponent's favor; otherwise the match is cancelled and
// the downstream slot is treated as dead.
func (b *Bracket) WithdrawParticipant(participantID int, reason string) (*Outcome, error) {
	var m *models.Match
	for _, cand := range b.ordered {
		if !cand.Status.Terminal() && cand.HasParticipant(participantID) {
			m = cand
			break
		}
	}
	if m == nil {
		return nil, ErrParticipantNotActive
	}

	out := b.begin()
	out.Eliminated = append(out.Eliminated, participantID)

	var opponent *int
	if m.ParticipantAID != nil && *m.ParticipantAID == participantID {
		opponent = m.ParticipantBID
	} else {
		opponent = m.ParticipantAID
	}

	if opponent != nil {
		// Walkover: the remaining participant inherits the slot, no scores.
		b.complete(m, *opponent, out)
		if err := b.propagate(m, out); err != nil {
			return nil, err
		}
		return b.finish(out), nil
	}

	b.cancel(m, reason, out)
	if err := b.resolveDownstream(m, out); err != nil {
		return nil, err
	}
	return b.finish(out), nil
}

// CorrectResult rewrites the score of an already-completed match. When the
// winner flips, the occupant of the downstream slot is swapped; if the
// downstream match is itself completed the correction fails with
// ErrDownstreamAlreadyResolved and an administrator has to unwind it first.
func (b *Bracket) CorrectResult(matchID, scoreA, scoreB int) (*Outcome, error) {
	m, err := b.Match(matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MatchStatusCompleted {
		return nil, ErrMatchNotResolved
	}
	if err := validateScores(scoreA, scoreB); err != nil {
		return nil, err
	}
	if m.ParticipantAID == nil || m.ParticipantBID == nil {
		// Byes and walkovers have no score to correct.
		return nil, ErrMatchNotScorable
	}

	newWinner, newLoser := *m.ParticipantAID, *m.ParticipantBID
	if scoreB > scoreA {
		newWinner, newLoser = newLoser, newWinner
	}

	out := b.begin()
	a, bs := scoreA, scoreB
	oldWinner := *m.WinnerID

	if newWinner == oldWinner {
		// Score-only correction, bracket shape untouched.
		m.ScoreA, m.ScoreB = &a, &bs
		b.touch(m)
		return b.finish(out), nil
	}

	if m.NextMatchID != nil {
		target, ok := b.matches[*m.NextMatchID]
		if !ok {
			return nil, fmt.Errorf("%w: match %d links to unknown match %d", ErrCorruptBracket, m.ID, *m.NextMatchID)
		}
		switch target.Status {
		case models.MatchStatusCompleted, models.MatchStatusCancelled:
			return nil, ErrDownstreamAlreadyResolved
		case models.MatchStatusInProgress:
			// A score-entry session against the wrong opponent is knocked
			// back to scheduled.
			target.Status = models.MatchStatusScheduled
		}
		w := newWinner
		target.SetParticipant(*m.NextSlot, &w)
		b.touch(target)
	} else {
		// Correcting the final flips the champion.
		out.TournamentComplete = true
		w := newWinner
		out.ChampionID = &w
	}

	m.ScoreA, m.ScoreB = &a, &bs
	w := newWinner
	m.WinnerID = &w
	b.touch(m)

	// The flipped winner is the previously eliminated participant.
	out.Eliminated = append(out.Eliminated, newLoser)
	out.Reinstated = append(out.Reinstated, newWinner)
	return b.finish(out), nil
}

// CancelAll terminates every non-terminal match, used when a whole
// tournament is aborted. Completed matches keep their results.
func (b *Bracket) CancelAll(reason string) (*Outcome, error) {
	out := b.begin()
	for _, m := range b.ordered {
		if m.Status.Terminal() {
			continue
		}
		b.cancel(m, reason, out)
	}
	if b.final.Status == models.MatchStatusCancelled {
		out.TournamentDead = true
	}
	return b.finish(out), nil
}

// Snapshot groups matches per round for the read API.
func (b *Bracket) Snapshot() [][]models.Match {
	roundCount := b.final.RoundNumber
	rounds := make([][]models.Match, roundCount)
	for _, m := range b.ordered {
		r := m.RoundNumber - 1
		if r < 0 || r >= roundCount {
			continue
		}
		rounds[r] = append(rounds[r], *m)
	}
	return rounds
}

func validateScores(scoreA, scoreB int) error {
	if scoreA < 0 || scoreB < 0 {
		return ErrInvalidScore
	}
	if scoreA == scoreB {
		return ErrAmbiguousResult
	}
	return nil
}

func (b *Bracket) begin() *Outcome {
	b.dirty = make(map[int]*models.Match)
	return &Outcome{}
}

func (b *Bracket) touch(m *models.Match) {
	b.dirty[m.ID] = m
}

func (b *Bracket) finish(out *Outcome) *Outcome {
	out.Dirty = make([]*models.Match, 0, len(b.dirty))
	for _, m := range b.ordered {
		if _, ok := b.dirty[m.ID]; ok {
			out.Dirty = append(out.Dirty, m)
		}
	}
	return out
}

func (b *Bracket) complete(m *models.Match, winnerID int, out *Outcome) {
	w := winnerID
	m.Status = models.MatchStatusCompleted
	m.WinnerID = &w
	b.touch(m)
	if m.ID == b.final.ID {
		out.TournamentComplete = true
		out.ChampionID = &w
	}
}

func (b *Bracket) cancel(m *models.Match, reason string, out *Outcome) {
	m.Status = models.MatchStatusCancelled
	if reason != "" {
		r := reason
		m.CancelReason = &r
	}
	b.touch(m)
	for _, pid := range []*int{m.ParticipantAID, m.ParticipantBID} {
		if pid != nil {
			out.Eliminated = append(out.Eliminated, *pid)
		}
	}
	if m.ID == b.final.ID {
		out.TournamentDead = true
	}
}

// propagate pushes the winner of src into the downstream slot chain via an
// explicit worklist, so a cascade of walkovers stays bounded and inspectable
// instead of recursing.
func (b *Bracket) propagate(src *models.Match, out *Outcome) error {
	queue := []*models.Match{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.NextMatchID == nil || cur.WinnerID == nil {
			continue
		}
		target, ok := b.matches[*cur.NextMatchID]
		if !ok {
			return fmt.Errorf("%w: match %d links to unknown match %d", ErrCorruptBracket, cur.ID, *cur.NextMatchID)
		}
		if target.Status == models.MatchStatusCompleted {
			return fmt.Errorf("%w: winner of match %d feeds resolved match %d", ErrCorruptBracket, cur.ID, target.ID)
		}
		if target.Status == models.MatchStatusCancelled {
			// The target died administratively before this feeder resolved.
			// Cancelled matches stay terminal; the arriving winner has
			// nowhere left to advance.
			out.Eliminated = append(out.Eliminated, *cur.WinnerID)
			continue
		}

		w := *cur.WinnerID
		target.SetParticipant(*cur.NextSlot, &w)
		b.touch(target)

		switch b.slotFate(target) {
		case slotsBothFilled:
			target.Status = models.MatchStatusScheduled
		case slotsOneDead:
			b.complete(target, w, out)
			queue = append(queue, target)
		}
	}
	return nil
}

// resolveDownstream re-evaluates the match fed by a newly dead (cancelled,
// winnerless) feeder. A waiting occupant walks over immediately; two dead
// feeders collapse the target as well, cascading toward the final.
func (b *Bracket) resolveDownstream(dead *models.Match, out *Outcome) error {
	queue := []*models.Match{dead}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.NextMatchID == nil {
			continue
		}
		target, ok := b.matches[*cur.NextMatchID]
		if !ok {
			return fmt.Errorf("%w: match %d links to unknown match %d", ErrCorruptBracket, cur.ID, *cur.NextMatchID)
		}
		if target.Status.Terminal() {
			continue
		}

		switch b.slotFate(target) {
		case slotsOneDead:
			occupant := target.ParticipantAID
			if occupant == nil {
				occupant = target.ParticipantBID
			}
			b.complete(target, *occupant, out)
			if err := b.propagate(target, out); err != nil {
				return err
			}
		case slotsBothDead:
			b.cancel(target, "no remaining participants", out)
			queue = append(queue, target)
		}
	}
	return nil
}

type slotFate int

const (
	slotsUndecided slotFate = iota
	slotsBothFilled
	slotsOneDead
	slotsBothDead
)

// slotFate classifies the participant slots of a match: filled slots hold a
// participant, dead slots can never be filled because their feeder ended
// without a winner, undecided slots still wait on an upstream result.
func (b *Bracket) slotFate(target *models.Match) slotFate {
	filled, dead := 0, 0
	fs := b.feeders[target.ID]
	for slot := models.SlotA; slot <= models.SlotB; slot++ {
		switch {
		case target.Participant(slot) != nil:
			filled++
		case fs[slot] != nil && fs[slot].Status.Terminal() && fs[slot].WinnerID == nil:
			dead++
		case fs[slot] == nil:
			// Round 1 slot with no feeder and no participant: a structural
			// bye that should have auto-completed at generation time.
			dead++
		}
	}

	switch {
	case filled == 2:
		return slotsBothFilled
	case filled == 1 && dead == 1:
		return slotsOneDead
	case dead == 2:
		return slotsBothDead
	default:
		return slotsUndecided
	}
}
