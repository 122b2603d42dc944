package alias

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/league-ledger/internal/model"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testSeason() *model.Season {
	return &model.Season{
		SeasonID: "L001S2025",
		Year:     2025,
		Teams: []*model.Team{
			{TeamID: "T1", Name: "Sharks", Aliases: []string{"Fish Sticks"}, Abbrev: "SHK"},
			{TeamID: "T2", Name: "Bears", Abbrev: "BRS"},
		},
	}
}

func TestBuildMap_CoversNamesAliasesAbbrevs(t *testing.T) {
	m := BuildMap(testSeason())

	for input, want := range map[string]string{
		"Sharks":      "T1",
		"sharks":      "T1",
		"  SHARKS  ":  "T1",
		"Fish Sticks": "T1",
		"SHK":         "T1",
		"shk":         "T1",
		"Bears":       "T2",
		"brs":         "T2",
	} {
		got, ok := Resolve(m, input)
		require.True(t, ok, "expected %q to resolve", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, ok := Resolve(m, "Sh4rks")
	assert.False(t, ok)
}

func TestBuildMap_SkipsTeamsWithoutID(t *testing.T) {
	season := testSeason()
	season.Teams = append(season.Teams, &model.Team{Name: "Ghosts"})
	m := BuildMap(season)
	_, ok := Resolve(m, "Ghosts")
	assert.False(t, ok)
}

func TestSuggest_NearMiss(t *testing.T) {
	m := BuildMap(testSeason())
	assert.Equal(t, "sharks", Suggest(m, "Shraks"))
	assert.Equal(t, "bears", Suggest(m, "Bearz"))
	// Nothing plausibly close.
	assert.Equal(t, "", Suggest(m, "Quetzalcoatl United"))
}

func TestExists_ExcludesOwnTeam(t *testing.T) {
	season := testSeason()
	assert.True(t, Exists(season, "bears", ""))
	assert.True(t, Exists(season, "fish sticks", "T2"))
	assert.False(t, Exists(season, "fish sticks", "T1"), "a team's own alias is not a conflict")
	assert.False(t, Exists(season, "Otters", ""))
}

func TestApplyRename_MigratesOldNameToAlias(t *testing.T) {
	season := testSeason()
	ApplyRename(season, Rename{NewName: "Land Sharks", OldName: "Sharks", OldAbbrev: "SHK"}, discard)

	team := season.Teams[0]
	assert.Equal(t, "Land Sharks", team.Name)

	// Both spellings keep resolving to T1 after a map rebuild.
	m := BuildMap(season)
	for _, input := range []string{"Land Sharks", "Sharks", "SHK", "Fish Sticks"} {
		got, ok := Resolve(m, input)
		require.True(t, ok, "expected %q to resolve after rename", input)
		assert.Equal(t, "T1", got)
	}
}

func TestApplyRename_Idempotent(t *testing.T) {
	season := testSeason()
	r := Rename{NewName: "Land Sharks", OldName: "Sharks"}
	ApplyRename(season, r, discard)
	ApplyRename(season, r, discard)

	team := season.Teams[0]
	count := 0
	for _, a := range team.Aliases {
		if Key(a) == "sharks" {
			count++
		}
	}
	assert.Equal(t, 1, count, "repeated rename must not duplicate the alias")
}

func TestApplyRename_RefusesForeignAlias(t *testing.T) {
	season := testSeason()
	// Trying to adopt "Bears", which belongs to T2.
	ApplyRename(season, Rename{NewName: "Sharks", OldName: "Bears"}, discard)

	team := season.Teams[0]
	for _, a := range team.Aliases {
		assert.NotEqual(t, "bears", Key(a), "alias held by another team must not be adopted")
	}

	m := BuildMap(season)
	got, ok := Resolve(m, "Bears")
	require.True(t, ok)
	assert.Equal(t, "T2", got)
}

func TestApplyRename_FindsTeamStillUnderOldName(t *testing.T) {
	// The ledger still carries the pre-rename display name; the update names
	// the team by its new name only.
	season := testSeason()
	ApplyRename(season, Rename{NewName: "Polar Bears", OldName: "Bears", OldAbbrev: "BRS"}, discard)

	assert.Equal(t, "Polar Bears", season.Teams[1].Name)
	m := BuildMap(season)
	got, ok := Resolve(m, "Bears")
	require.True(t, ok)
	assert.Equal(t, "T2", got)
}
