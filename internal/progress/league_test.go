package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/codequest/internal/model"
)

func TestApplyLeagueOutcome(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		from    model.League
		outcome LeagueOutcome
		want    model.League
	}{
		{model.LeagueBronze, Promote, model.LeagueSilver},
		{model.LeagueSilver, Demote, model.LeagueBronze},
		{model.LeagueGold, Stay, model.LeagueGold},
		{model.LeagueDiamond, Promote, model.LeagueDiamond},
		{model.LeagueBronze, Demote, model.LeagueBronze},
		{model.League("platinum"), Promote, model.LeagueSilver},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.outcome), func(t *testing.T) {
			p := e.NewProfile("u")
			p.League = tt.from
			p.LeagueXP = 250
			p.XP = 900

			next := e.ApplyLeagueOutcome(p, tt.outcome)
			assert.Equal(t, tt.want, next.League)
			assert.Zero(t, next.LeagueXP)
			assert.Equal(t, 900, next.XP, "lifetime XP is untouched")
		})
	}
}

func TestLeagueMovesAtMostOneTier(t *testing.T) {
	e := newTestEngine()
	for _, l := range model.AllLeagues() {
		for _, o := range []LeagueOutcome{Promote, Demote, Stay} {
			p := e.NewProfile("u")
			p.League = l
			next := e.ApplyLeagueOutcome(p, o)
			diff := next.League.Rank() - l.Rank()
			require.LessOrEqual(t, diff, 1)
			require.GreaterOrEqual(t, diff, -1)
		}
	}
}

func TestParseLeagueOutcome(t *testing.T) {
	o, err := ParseLeagueOutcome("promote")
	require.NoError(t, err)
	assert.Equal(t, Promote, o)

	_, err = ParseLeagueOutcome("relegate")
	assert.Error(t, err)
}
