// Package store loads and saves the ledger document and locates
// league/season/week nodes. Mutating paths scaffold missing intermediate
// nodes; read-only lookups fail with a ReferenceError naming the exact
// missing segment instead of silently creating one.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/albapepper/league-ledger/internal/model"
)

// Load reads the ledger at path. A missing or empty file yields an empty
// well-formed skeleton, never an error; a file that exists but does not
// decode yields a ValidationError.
func Load(path string) (*model.Document, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}
	if len(b) == 0 {
		return model.NewDocument(), nil
	}
	var doc model.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, model.Validationf("ledger %s is not valid JSON: %v", path, err)
	}
	if doc.Leagues == nil {
		doc.Leagues = map[string]*model.League{}
	}
	return &doc, nil
}

// Save writes the document as 2-space-indented UTF-8 JSON. The write goes
// to a temp file in the target directory and is renamed into place, so a
// crash mid-write never leaves a truncated ledger behind.
func Save(path string, doc *model.Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace ledger %s: %w", path, err)
	}
	return nil
}

// Backup copies the ledger to path+".bak" and returns the backup path.
// Used by the corrective migration passes before they rewrite identifiers.
func Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	bak := path + ".bak"
	dst, err := os.Create(bak)
	if err != nil {
		return "", fmt.Errorf("create backup %s: %w", bak, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy to backup %s: %w", bak, err)
	}
	return bak, nil
}

// GetOrCreateSeason returns the season node for league/year, creating the
// league and season scaffolding if needed.
func GetOrCreateSeason(doc *model.Document, leagueID string, year int) *model.Season {
	league, ok := doc.Leagues[leagueID]
	if !ok {
		league = &model.League{LeagueID: leagueID, Seasons: map[string]*model.Season{}}
		doc.Leagues[leagueID] = league
	}
	if league.Seasons == nil {
		league.Seasons = map[string]*model.Season{}
	}
	sid := model.SeasonID(leagueID, year)
	season, ok := league.Seasons[sid]
	if !ok {
		season = &model.Season{SeasonID: sid, Year: year}
		league.Seasons[sid] = season
	}
	return season
}

// GetOrCreateWeek returns the week bucket, creating any missing nodes.
// The bucket's date is kept in sync with whatever was passed on this call.
func GetOrCreateWeek(doc *model.Document, leagueID string, year, week int, date string) *model.Week {
	season := GetOrCreateSeason(doc, leagueID, year)
	if season.Weeks == nil {
		season.Weeks = map[string]*model.Week{}
	}
	key := strconv.Itoa(week)
	wk, ok := season.Weeks[key]
	if !ok {
		wk = &model.Week{Games: []*model.Game{}}
		season.Weeks[key] = wk
	}
	wk.Date = date
	return wk
}

// Season is the read-only season lookup.
func Season(doc *model.Document, leagueID string, year int) (*model.Season, error) {
	league, ok := doc.Leagues[leagueID]
	if !ok {
		return nil, model.Referencef(leagueID, "league %q not found in ledger", leagueID)
	}
	sid := model.SeasonID(leagueID, year)
	season, ok := league.Seasons[sid]
	if !ok {
		return nil, model.Referencef(sid, "season %q not found in league %s", sid, leagueID)
	}
	return season, nil
}

// Week is the read-only week lookup within a season.
func Week(season *model.Season, week int) (*model.Week, error) {
	wk, ok := season.Weeks[strconv.Itoa(week)]
	if !ok {
		return nil, model.Referencef(fmt.Sprintf("week %d", week), "week %d not found for season %s", week, season.SeasonID)
	}
	return wk, nil
}
