package brackets

import (
	"testing"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTournamentID = 42

// materialize turns a generation plan into persisted-looking match rows with
// database ids assigned in plan order, the same two-pass shape the bracket
// service performs.
func materialize(t *testing.T, plan *Plan) []*models.Match {
	t.Helper()

	rows := make([]*models.Match, len(plan.Matches))
	for i, mp := range plan.Matches {
		rows[i] = &models.Match{
			ID:             i + 1,
			TournamentID:   testTournamentID,
			RoundNumber:    mp.Round,
			SlotIndex:      mp.SlotIndex,
			ParticipantAID: mp.ParticipantAID,
			ParticipantBID: mp.ParticipantBID,
			Status:         mp.Status,
			WinnerID:       mp.WinnerID,
		}
	}
	for i, mp := range plan.Matches {
		if mp.NextIndex < 0 {
			continue
		}
		next := mp.NextIndex + 1
		slot := mp.NextSlot
		rows[i].NextMatchID = &next
		rows[i].NextSlot = &slot
	}
	return rows
}

func newTestBracket(t *testing.T, n int) (*Bracket, []int) {
	t.Helper()
	ids := participantIDs(n)
	plan, err := GenerateSingleElimination(ids)
	require.NoError(t, err)
	b, err := NewBracket(materialize(t, plan))
	require.NoError(t, err)
	return b, ids
}

func findMatch(t *testing.T, b *Bracket, round, slot int) *models.Match {
	t.Helper()
	for _, m := range b.Matches() {
		if m.RoundNumber == round && m.SlotIndex == slot {
			return m
		}
	}
	t.Fatalf("no match at round %d slot %d", round, slot)
	return nil
}

func findMatchWith(t *testing.T, b *Bracket, pid1, pid2 int) *models.Match {
	t.Helper()
	for _, m := range b.Matches() {
		if m.HasParticipant(pid1) && m.HasParticipant(pid2) {
			return m
		}
	}
	t.Fatalf("no match pairing %d and %d", pid1, pid2)
	return nil
}

func TestSubmitScoreCompletesAndPropagates(t *testing.T) {
	b, ids := newTestBracket(t, 4)

	m := findMatch(t, b, 1, 0)
	out, err := b.SubmitScore(m.ID, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, *m.ParticipantAID, *m.WinnerID)
	assert.False(t, out.TournamentComplete)
	assert.Contains(t, out.Eliminated, *m.ParticipantBID)

	final := b.Final()
	require.NotNil(t, final.ParticipantAID)
	assert.Equal(t, *m.WinnerID, *final.ParticipantAID)
	assert.Equal(t, models.MatchStatusPending, final.Status)

	// The winner occupies exactly one downstream slot.
	occupied := 0
	for _, other := range b.Matches() {
		if other.ID == m.ID {
			continue
		}
		if other.HasParticipant(*m.WinnerID) {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied)
	_ = ids
}

func TestSubmitScoreGuards(t *testing.T) {
	b, _ := newTestBracket(t, 4)
	m := findMatch(t, b, 1, 0)
	final := b.Final()

	_, err := b.SubmitScore(m.ID, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = b.SubmitScore(m.ID, 3, 3)
	assert.ErrorIs(t, err, ErrAmbiguousResult)

	_, err = b.SubmitScore(final.ID, 1, 0)
	assert.ErrorIs(t, err, ErrMatchNotScorable, "final has unresolved slots")

	_, err = b.SubmitScore(99999, 1, 0)
	assert.ErrorIs(t, err, ErrMatchNotInBracket)
}

func TestSubmitScoreIdempotenceGuard(t *testing.T) {
	b, _ := newTestBracket(t, 4)
	m := findMatch(t, b, 1, 0)

	_, err := b.SubmitScore(m.ID, 2, 1)
	require.NoError(t, err)

	_, err = b.SubmitScore(m.ID, 2, 1)
	assert.ErrorIs(t, err, ErrMatchAlreadyResolved)

	// No duplicate advancement: the winner still holds exactly one slot of
	// the downstream match.
	final := b.Final()
	assert.Equal(t, *m.WinnerID, *final.ParticipantAID)
	assert.Nil(t, final.ParticipantBID)
}

func TestStartMatchTransition(t *testing.T) {
	b, _ := newTestBracket(t, 2)
	m := b.Final()

	_, err := b.StartMatch(m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusInProgress, m.Status)

	// Scoring an in_progress match is legal.
	out, err := b.SubmitScore(m.ID, 0, 3)
	require.NoError(t, err)
	assert.True(t, out.TournamentComplete)

	_, err = b.StartMatch(m.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyResolved)
}

func TestByeAutoResolutionPropagatesWithoutScores(t *testing.T) {
	b, ids := newTestBracket(t, 5)

	// Seed 1 had a round 1 bye: completed, no scores, winner propagated.
	for _, m := range b.Matches() {
		if m.RoundNumber != 1 || m.Status != models.MatchStatusCompleted {
			continue
		}
		assert.Nil(t, m.ScoreA)
		assert.Nil(t, m.ScoreB)
		require.NotNil(t, m.WinnerID)

		next, err := b.Match(*m.NextMatchID)
		require.NoError(t, err)
		assert.Equal(t, m.WinnerID, next.Participant(*m.NextSlot))
	}
	_ = ids
}

func TestFiveParticipantEndToEnd(t *testing.T) {
	// 5 entrants, bracket of 8, byes for seeds 1-3.
	// One live round 1 match, two semifinals, one final.
	b, ids := newTestBracket(t, 5)
	seed := func(i int) int { return ids[i-1] }

	live := findMatchWith(t, b, seed(4), seed(5))
	assert.Equal(t, 1, live.RoundNumber)

	out, err := b.SubmitScore(live.ID, 2, 1) // seed 4 beats seed 5
	require.NoError(t, err)
	assert.False(t, out.TournamentComplete)

	semi1 := findMatchWith(t, b, seed(1), seed(4))
	assert.Equal(t, models.MatchStatusScheduled, semi1.Status)
	semi2 := findMatchWith(t, b, seed(2), seed(3))
	assert.Equal(t, models.MatchStatusScheduled, semi2.Status)

	scoreFor := func(m *models.Match, winner int, a, bScore int) {
		t.Helper()
		if *m.ParticipantAID != winner {
			a, bScore = bScore, a
		}
		_, err := b.SubmitScore(m.ID, a, bScore)
		require.NoError(t, err)
	}

	scoreFor(semi1, seed(1), 3, 0) // seed 1 advances
	scoreFor(semi2, seed(3), 1, 0) // seed 3 upsets seed 2

	final := b.Final()
	assert.Equal(t, models.MatchStatusScheduled, final.Status)
	assert.True(t, final.HasParticipant(seed(1)))
	assert.True(t, final.HasParticipant(seed(3)))

	var winnerA, winnerB = 2, 1
	if *final.ParticipantAID != seed(1) {
		winnerA, winnerB = winnerB, winnerA
	}
	out, err = b.SubmitScore(final.ID, winnerA, winnerB)
	require.NoError(t, err)

	assert.True(t, out.TournamentComplete)
	require.NotNil(t, out.ChampionID)
	assert.Equal(t, seed(1), *out.ChampionID)
}

func TestWithdrawWithKnownOpponentIsWalkover(t *testing.T) {
	b, ids := newTestBracket(t, 4)

	m := findMatch(t, b, 1, 0)
	withdrawn := *m.ParticipantBID
	opponent := *m.ParticipantAID

	out, err := b.WithdrawParticipant(withdrawn, "injury")
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, m.Status)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, opponent, *m.WinnerID)
	assert.Nil(t, m.ScoreA)
	assert.Nil(t, m.ScoreB)
	assert.Contains(t, out.Eliminated, withdrawn)

	final := b.Final()
	assert.Equal(t, opponent, *final.ParticipantAID)
	_ = ids
}

func TestWithdrawWithoutOpponentCancelsAndWalksOverLater(t *testing.T) {
	b, ids := newTestBracket(t, 5)
	seed := func(i int) int { return ids[i-1] }

	// Seed 1 sits alone in its semifinal slot (bye winner, opponent
	// undetermined). Withdrawal cancels the semifinal.
	out, err := b.WithdrawParticipant(seed(1), "withdrew")
	require.NoError(t, err)
	assert.Contains(t, out.Eliminated, seed(1))

	semi := findMatch(t, b, 2, 0)
	assert.Equal(t, models.MatchStatusCancelled, semi.Status)

	// The 4v5 winner now reaches a cancelled semifinal and walks straight
	// through to the final.
	live := findMatchWith(t, b, seed(4), seed(5))
	_, err = b.SubmitScore(live.ID, 2, 0)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusCompleted, semi.Status)
	require.NotNil(t, semi.WinnerID)
	assert.Equal(t, seed(4), *semi.WinnerID)
	assert.True(t, b.Final().HasParticipant(seed(4)))
}

func TestWithdrawUnknownParticipant(t *testing.T) {
	b, _ := newTestBracket(t, 4)
	_, err := b.WithdrawParticipant(999999, "ghost")
	assert.ErrorIs(t, err, ErrParticipantNotActive)
}

func TestCancelMatchDeadSlotResolvesWaitingOpponent(t *testing.T) {
	b, _ := newTestBracket(t, 4)

	m0 := findMatch(t, b, 1, 0)
	m1 := findMatch(t, b, 1, 1)

	// First semifinal slot fills normally.
	_, err := b.SubmitScore(m0.ID, 2, 0)
	require.NoError(t, err)
	winner := *m0.WinnerID

	// Cancelling the sibling leaves the final with one dead slot; the
	// waiting winner takes it as a walkover and the tournament completes.
	out, err := b.CancelMatch(m1.ID, "double forfeit")
	require.NoError(t, err)

	final := b.Final()
	assert.Equal(t, models.MatchStatusCompleted, final.Status)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, winner, *final.WinnerID)
	assert.True(t, out.TournamentComplete)
	require.NotNil(t, out.ChampionID)
	assert.Equal(t, winner, *out.ChampionID)
}

func TestCancelledMatchStaysTerminalWhenFeedersResolve(t *testing.T) {
	b, _ := newTestBracket(t, 8)

	// Cancel a semifinal before either of its feeders has produced a winner.
	semi := findMatch(t, b, 2, 0)
	_, err := b.CancelMatch(semi.ID, "venue flooded")
	require.NoError(t, err)

	var feeders []*models.Match
	for _, m := range b.Matches() {
		if m.RoundNumber == 1 && m.NextMatchID != nil && *m.NextMatchID == semi.ID {
			feeders = append(feeders, m)
		}
	}
	require.Len(t, feeders, 2)

	// Both feeder results still land; their winners are out, and the
	// cancelled semifinal is left untouched.
	for _, f := range feeders {
		out, err := b.SubmitScore(f.ID, 2, 0)
		require.NoError(t, err)
		assert.Contains(t, out.Eliminated, *f.WinnerID)
	}
	assert.Equal(t, models.MatchStatusCancelled, semi.Status)
	assert.Nil(t, semi.WinnerID)
	assert.Nil(t, semi.ParticipantAID)
	assert.Nil(t, semi.ParticipantBID)

	// The other half of the draw plays out; its finalist walks over the
	// dead slot and takes the title.
	other := findMatch(t, b, 2, 1)
	for _, m := range b.Matches() {
		if m.RoundNumber == 1 && m.NextMatchID != nil && *m.NextMatchID == other.ID {
			_, err := b.SubmitScore(m.ID, 3, 1)
			require.NoError(t, err)
		}
	}
	out, err := b.SubmitScore(other.ID, 1, 0)
	require.NoError(t, err)

	assert.True(t, out.TournamentComplete)
	require.NotNil(t, out.ChampionID)
	assert.Equal(t, *other.WinnerID, *out.ChampionID)
	assert.Equal(t, models.MatchStatusCompleted, b.Final().Status)
}

func TestCancelAllCollapsesBracket(t *testing.T) {
	b, _ := newTestBracket(t, 8)

	m := findMatch(t, b, 1, 0)
	_, err := b.SubmitScore(m.ID, 1, 0)
	require.NoError(t, err)

	out, err := b.CancelAll("tournament aborted")
	require.NoError(t, err)
	assert.True(t, out.TournamentDead)

	for _, match := range b.Matches() {
		assert.True(t, match.Status.Terminal(), "match %d", match.ID)
	}
	// The completed result is preserved.
	assert.Equal(t, models.MatchStatusCompleted, m.Status)
}

func TestCorrectResultFlipsDownstreamSlot(t *testing.T) {
	b, _ := newTestBracket(t, 4)

	m := findMatch(t, b, 1, 0)
	a, bID := *m.ParticipantAID, *m.ParticipantBID

	_, err := b.SubmitScore(m.ID, 2, 1)
	require.NoError(t, err)

	final := b.Final()
	require.Equal(t, a, *final.ParticipantAID)

	out, err := b.CorrectResult(m.ID, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, bID, *m.WinnerID)
	assert.Equal(t, bID, *final.ParticipantAID, "downstream slot flips from A to B")
	assert.Contains(t, out.Eliminated, a)
	assert.Contains(t, out.Reinstated, bID)
}

func TestCorrectResultBlockedByResolvedDownstream(t *testing.T) {
	b, _ := newTestBracket(t, 4)

	m0 := findMatch(t, b, 1, 0)
	m1 := findMatch(t, b, 1, 1)
	_, err := b.SubmitScore(m0.ID, 2, 1)
	require.NoError(t, err)
	_, err = b.SubmitScore(m1.ID, 2, 1)
	require.NoError(t, err)
	_, err = b.SubmitScore(b.Final().ID, 5, 4)
	require.NoError(t, err)

	_, err = b.CorrectResult(m0.ID, 1, 3)
	assert.ErrorIs(t, err, ErrDownstreamAlreadyResolved)
}

func TestCorrectResultGuards(t *testing.T) {
	b, _ := newTestBracket(t, 4)
	m := findMatch(t, b, 1, 0)

	_, err := b.CorrectResult(m.ID, 2, 1)
	assert.ErrorIs(t, err, ErrMatchNotResolved, "cannot correct an unplayed match")

	_, err = b.SubmitScore(m.ID, 2, 1)
	require.NoError(t, err)

	_, err = b.CorrectResult(m.ID, 2, 2)
	assert.ErrorIs(t, err, ErrAmbiguousResult)
}

func TestCorrectResultScoreOnly(t *testing.T) {
	b, _ := newTestBracket(t, 4)
	m := findMatch(t, b, 1, 0)

	_, err := b.SubmitScore(m.ID, 2, 1)
	require.NoError(t, err)
	winner := *m.WinnerID

	out, err := b.CorrectResult(m.ID, 5, 1)
	require.NoError(t, err)

	assert.Equal(t, winner, *m.WinnerID)
	assert.Equal(t, 5, *m.ScoreA)
	assert.Empty(t, out.Eliminated)
	assert.Empty(t, out.Reinstated)
}

func TestCorrectFinalFlipsChampion(t *testing.T) {
	b, _ := newTestBracket(t, 2)
	final := b.Final()

	out, err := b.SubmitScore(final.ID, 2, 1)
	require.NoError(t, err)
	require.NotNil(t, out.ChampionID)
	first := *out.ChampionID

	out, err = b.CorrectResult(final.ID, 0, 1)
	require.NoError(t, err)
	assert.True(t, out.TournamentComplete)
	require.NotNil(t, out.ChampionID)
	assert.NotEqual(t, first, *out.ChampionID)
}

func TestNewBracketValidation(t *testing.T) {
	plan, err := GenerateSingleElimination(participantIDs(4))
	require.NoError(t, err)

	t.Run("duplicate position", func(t *testing.T) {
		rows := materialize(t, plan)
		rows[1].SlotIndex = rows[0].SlotIndex
		_, err := NewBracket(rows)
		assert.ErrorIs(t, err, ErrCorruptBracket)
	})

	t.Run("no final", func(t *testing.T) {
		rows := materialize(t, plan)
		bogus := 12345
		slot := models.SlotA
		for _, r := range rows {
			if r.NextMatchID == nil {
				r.NextMatchID = &bogus
				r.NextSlot = &slot
			}
		}
		_, err := NewBracket(rows)
		assert.ErrorIs(t, err, ErrCorruptBracket)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewBracket(nil)
		assert.ErrorIs(t, err, ErrCorruptBracket)
	})
}

func TestSnapshotGroupsRounds(t *testing.T) {
	b, _ := newTestBracket(t, 5)
	rounds := b.Snapshot()

	require.Len(t, rounds, 3)
	assert.Len(t, rounds[0], 4)
	assert.Len(t, rounds[1], 2)
	assert.Len(t, rounds[2], 1)
}
