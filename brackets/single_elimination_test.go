package brackets

import (
	"fmt"
	"testing"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participantIDs(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = 100 + i
	}
	return ids
}

func TestSeedPairs(t *testing.T) {
	testCases := []struct {
		name        string
		bracketSize int
		expected    [][2]int
	}{
		{
			name:        "2 slots",
			bracketSize: 2,
			expected:    [][2]int{{0, 1}},
		},
		{
			name:        "4 slots",
			bracketSize: 4,
			expected:    [][2]int{{0, 3}, {1, 2}},
		},
		{
			name:        "8 slots",
			bracketSize: 8,
			expected:    [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, seedPairs(tc.bracketSize))
		})
	}
}

func TestGenerateRoundAndFinalCounts(t *testing.T) {
	for n := 2; n <= 1024; n++ {
		plan, err := GenerateSingleElimination(participantIDs(n))
		require.NoError(t, err, "n=%d", n)

		wantRounds := 0
		for (1 << wantRounds) < n {
			wantRounds++
		}
		assert.Equal(t, wantRounds, plan.RoundCount, "n=%d", n)

		finals := 0
		for _, mp := range plan.Matches {
			if mp.NextIndex < 0 {
				finals++
				assert.Equal(t, wantRounds, mp.Round, "n=%d final round", n)
			}
		}
		assert.Equal(t, 1, finals, "n=%d must have exactly one final", n)
	}
}

func TestGenerateRejectsTooFewParticipants(t *testing.T) {
	for _, n := range []int{0, 1} {
		_, err := GenerateSingleElimination(participantIDs(n))
		assert.ErrorIs(t, err, ErrInvalidParticipantCount, "n=%d", n)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	ids := participantIDs(13)
	first, err := GenerateSingleElimination(ids)
	require.NoError(t, err)
	second, err := GenerateSingleElimination(ids)
	require.NoError(t, err)

	require.Equal(t, len(first.Matches), len(second.Matches))
	for i := range first.Matches {
		assert.Equal(t, first.Matches[i], second.Matches[i], "match index %d", i)
	}
}

func TestGenerateByesGoToTopSeeds(t *testing.T) {
	// 5 participants in an 8 slot bracket: seeds 1, 2 and 3 get the byes.
	ids := participantIDs(5)
	plan, err := GenerateSingleElimination(ids)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.ByeCount)

	var byeWinners []int
	for _, mp := range plan.Matches {
		if mp.IsBye() {
			require.NotNil(t, mp.WinnerID)
			byeWinners = append(byeWinners, *mp.WinnerID)
		}
	}
	assert.ElementsMatch(t, []int{ids[0], ids[1], ids[2]}, byeWinners)
}

func TestGenerateFiveParticipantLayout(t *testing.T) {
	plan, err := GenerateSingleElimination(participantIDs(5))
	require.NoError(t, err)

	perRound := map[int]int{}
	for _, mp := range plan.Matches {
		perRound[mp.Round]++
	}
	assert.Equal(t, map[int]int{1: 4, 2: 2, 3: 1}, perRound)
	assert.Equal(t, 3, plan.RoundCount)

	// Three round 1 byes resolve instantly; their winners already occupy
	// round 2 slots.
	byes, filledRound2Slots := 0, 0
	for _, mp := range plan.Matches {
		if mp.IsBye() {
			byes++
		}
		if mp.Round == 2 {
			if mp.ParticipantAID != nil {
				filledRound2Slots++
			}
			if mp.ParticipantBID != nil {
				filledRound2Slots++
			}
		}
	}
	assert.Equal(t, 3, byes)
	assert.Equal(t, 3, filledRound2Slots)
}

func TestGenerateWinnerLinksFormSingleRootedForest(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6, 7, 8, 9, 16, 17, 31, 32, 33, 64, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			plan, err := GenerateSingleElimination(participantIDs(n))
			require.NoError(t, err)

			inbound := make(map[int]int)
			for i, mp := range plan.Matches {
				if mp.NextIndex < 0 {
					continue
				}
				require.Less(t, mp.NextIndex, len(plan.Matches))
				next := plan.Matches[mp.NextIndex]
				assert.Equal(t, mp.Round+1, next.Round, "match %d links forward one round", i)
				assert.Equal(t, mp.SlotIndex/2, next.SlotIndex, "match %d slot pairing", i)
				wantSlot := models.SlotA
				if mp.SlotIndex%2 != 0 {
					wantSlot = models.SlotB
				}
				assert.Equal(t, wantSlot, mp.NextSlot)
				inbound[mp.NextIndex]++
			}

			for i, mp := range plan.Matches {
				if mp.Round == 1 {
					continue
				}
				assert.Equal(t, 2, inbound[i], "match %d (round %d) must have two feeders", i, mp.Round)
			}
		})
	}
}

func TestGenerateRoundMatchCountsHalve(t *testing.T) {
	plan, err := GenerateSingleElimination(participantIDs(64))
	require.NoError(t, err)

	perRound := map[int]int{}
	for _, mp := range plan.Matches {
		perRound[mp.Round]++
	}
	for r := 1; r <= plan.RoundCount; r++ {
		assert.Equal(t, 64>>r, perRound[r], "round %d", r)
	}
}
