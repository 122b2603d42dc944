package normalize

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/league-ledger/internal/model"
)

func TestPosition_CollapsesDST(t *testing.T) {
	for _, in := range []string{"D/ST", "DST", "dst", "d/st", " D/St "} {
		assert.Equal(t, "D/ST", Position(in), "input %q", in)
	}
	assert.Equal(t, "QB", Position("qb"))
	assert.Equal(t, "WR", Position(" wr "))
	assert.Equal(t, "", Position(""))
}

func TestOpponent_PreservesAwayMarker(t *testing.T) {
	assert.Equal(t, "@KC", Opponent("@kc"))
	assert.Equal(t, "KC", Opponent("kc"))
	assert.Equal(t, "", Opponent("  "))
}

func TestPlayer_Idempotent(t *testing.T) {
	p := model.Player{
		Name: "  Ja'Marr Chase ", Team: "cin", Position: "wr",
		Opponent: "@pit", Proj: 17.456, Fpts: 21.004,
	}
	once := Player(p)
	twice := Player(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "Ja'Marr Chase", once.Name)
	assert.Equal(t, "CIN", once.Team)
	assert.Equal(t, "WR", once.Position)
	assert.Equal(t, "@PIT", once.Opponent)
	assert.Equal(t, model.Points(17.46), once.Proj)
	assert.Equal(t, model.Points(21.0), once.Fpts)
}

func TestIsStub(t *testing.T) {
	assert.True(t, IsStub(nil))
	assert.True(t, IsStub(&model.PlayerEntry{Slot: "BENCH"}))
	assert.True(t, IsStub(&model.PlayerEntry{Player: model.Player{Name: "   ", Team: "KC"}}))
	assert.False(t, IsStub(&model.PlayerEntry{Player: model.Player{Name: "Travis Kelce"}}))
}

func TestCleanRecord(t *testing.T) {
	cleaned, changed := CleanRecord("3-1-0, 2nd in East")
	assert.Equal(t, "3-1-0", cleaned)
	assert.True(t, changed)

	cleaned, changed = CleanRecord("3-1-0")
	assert.Equal(t, "3-1-0", cleaned)
	assert.False(t, changed)

	cleaned, changed = CleanRecord("  4-2-1 something")
	assert.Equal(t, "4-2-1", cleaned)
	assert.True(t, changed)

	cleaned, changed = CleanRecord("")
	assert.Equal(t, "", cleaned)
	assert.False(t, changed)
}

func TestParseRecord(t *testing.T) {
	w, l, ties := ParseRecord("3-1-0")
	assert.Equal(t, []int{3, 1, 0}, []int{w, l, ties})

	w, l, ties = ParseRecord("5-2")
	assert.Equal(t, []int{5, 2, 0}, []int{w, l, ties})

	w, l, ties = ParseRecord("junk")
	assert.Equal(t, []int{0, 0, 0}, []int{w, l, ties})
}

// ---------------------------------------------------------------------------
// Side
// ---------------------------------------------------------------------------

func sideJSON(t *testing.T, s string) json.RawMessage {
	t.Helper()
	require.True(t, json.Valid([]byte(s)), "test fixture must be valid JSON")
	return json.RawMessage(s)
}

func TestSide_WrappedEntriesWithSlots(t *testing.T) {
	raw := sideJSON(t, `{
		"name": " Sharks ",
		"record": "2-0-0, 1st in West",
		"starters": [
			{"slot": "QB", "player": {"name": "Josh Allen", "team": "buf", "position": "qb", "proj": 22.1, "fpts": 25.3}}
		],
		"bench": [
			{"slot": "", "player": {"name": "Jaylen Warren", "team": "pit", "position": "rb", "proj": 8.0, "fpts": 6.2}}
		],
		"totals": {"proj": 22.1, "fpts": 25.3, "bench_proj": 8.0, "bench_fpts": 6.2}
	}`)
	side, warnings, err := Side(raw, "team_a", "S2025W1G?")
	require.NoError(t, err)

	assert.Equal(t, "Sharks", side.Name)
	assert.Equal(t, "2-0-0", side.Record)
	require.Len(t, side.Starters, 1)
	assert.Equal(t, "QB", side.Starters[0].Slot)
	assert.Equal(t, "BUF", side.Starters[0].Player.Team)
	require.Len(t, side.Bench, 1)
	assert.Equal(t, "BENCH", side.Bench[0].Slot, "empty slot defaults to BENCH")
	assert.Equal(t, model.Points(25.3), side.Totals.Fpts)

	// The messy record produces a warning; the slotted starters do not.
	joined := strings.Join(warnings, "\n")
	assert.Contains(t, joined, "cleaned record")
	assert.NotContains(t, joined, "auto-assigned")
}

func TestSide_DefaultSlotAssignment(t *testing.T) {
	raw := sideJSON(t, `{
		"name": "Bears",
		"starters": [
			{"name": "P1", "team": "KC", "position": "QB", "projected_points": 1, "actual_points": 1},
			{"name": "P2", "team": "KC", "position": "RB", "projected_points": 1, "actual_points": 1},
			{"name": "P3", "team": "KC", "position": "RB", "projected_points": 1, "actual_points": 1},
			{"name": "P4", "team": "KC", "position": "WR", "projected_points": 1, "actual_points": 1},
			{"name": "P5", "team": "KC", "position": "WR", "projected_points": 1, "actual_points": 1},
			{"name": "P6", "team": "KC", "position": "TE", "projected_points": 1, "actual_points": 1},
			{"name": "P7", "team": "KC", "position": "RB", "projected_points": 1, "actual_points": 1},
			{"name": "P8", "team": "KC", "position": "D/ST", "projected_points": 1, "actual_points": 1},
			{"name": "P9", "team": "KC", "position": "K", "projected_points": 1, "actual_points": 1},
			{"name": "P10", "team": "KC", "position": "WR", "projected_points": 1, "actual_points": 1}
		],
		"totals": {"proj": 10, "fpts": 10}
	}`)
	side, warnings, err := Side(raw, "team_b", "S2025W1G?")
	require.NoError(t, err)

	require.Len(t, side.Starters, 10)
	wantSlots := []string{"QB", "RB", "RB", "WR", "WR", "TE", "FLEX", "D/ST", "K", "FLEX"}
	for i, want := range wantSlots {
		assert.Equal(t, want, side.Starters[i].Slot, "starter #%d", i+1)
	}
	assert.Contains(t, strings.Join(warnings, "\n"), "auto-assigned")
}

func TestSide_DropsBenchAndIRStubs(t *testing.T) {
	raw := sideJSON(t, `{
		"name": "Sharks",
		"starters": [],
		"bench": [
			{"player": {"name": "Real Player", "team": "KC", "position": "WR"}},
			{"player": {"name": "", "team": "", "position": ""}}
		],
		"ir": [
			{"player": {"name": "  ", "team": "", "position": ""}}
		]
	}`)
	side, warnings, err := Side(raw, "team_a", "ref")
	require.NoError(t, err)

	require.Len(t, side.Bench, 1)
	assert.Equal(t, "Real Player", side.Bench[0].Player.Name)
	assert.Empty(t, side.IR)

	joined := strings.Join(warnings, "\n")
	assert.Contains(t, joined, "1 BENCH stub")
	assert.Contains(t, joined, "1 IR stub")
}

func TestSide_BoxScorePromotion(t *testing.T) {
	raw := sideJSON(t, `{
		"name": "Sharks",
		"box_score": {
			"starters": [
				{"slot": "QB", "player": {"name": "Josh Allen", "team": "BUF", "position": "QB", "proj": 20, "fpts": 20}}
			]
		},
		"totals": {"proj": 20, "fpts": 20}
	}`)
	side, _, err := Side(raw, "team_a", "ref")
	require.NoError(t, err)
	require.Len(t, side.Starters, 1)
	assert.Equal(t, "Josh Allen", side.Starters[0].Player.Name)
}

func TestSide_StripsJunkFieldsWithWarning(t *testing.T) {
	raw := sideJSON(t, `{
		"name": "Sharks",
		"manager": "Alex",
		"score": 0,
		"division": "",
		"rank": 3,
		"starters": []
	}`)
	_, warnings, err := Side(raw, "team_a", "ref")
	require.NoError(t, err)

	joined := strings.Join(warnings, "\n")
	assert.Contains(t, joined, `"manager"`)
	assert.Contains(t, joined, `"rank"`)
	// Empty/zero junk is stripped silently.
	assert.NotContains(t, joined, `"score"`)
	assert.NotContains(t, joined, `"division"`)
}

func TestSide_RejectsNonObject(t *testing.T) {
	_, _, err := Side(json.RawMessage(`[1,2,3]`), "team_a", "ref")
	require.Error(t, err)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSide_LenientTotalsStrings(t *testing.T) {
	raw := sideJSON(t, `{
		"name": "Sharks",
		"starters": [],
		"totals": {"proj": "101.55", "fpts": null, "bench_proj": "--", "bench_fpts": 3.456}
	}`)
	side, _, err := Side(raw, "team_a", "ref")
	require.NoError(t, err)
	assert.Equal(t, model.Points(101.55), side.Totals.Proj)
	assert.Equal(t, model.Points(0), side.Totals.Fpts)
	assert.Equal(t, model.Points(0), side.Totals.BenchProj)
	assert.Equal(t, model.Points(3.46), side.Totals.BenchFpts)
}
