package ingest

import (
	"log/slog"

	"github.com/albapepper/league-ledger/internal/alias"
	"github.com/albapepper/league-ledger/internal/model"
	"github.com/albapepper/league-ledger/internal/store"
)

// BackfillResult reports a team-ID backfill pass.
type BackfillResult struct {
	Updated int
	Skipped int
}

// BackfillTeamIDs fills the missing team_id cross-reference on every
// transaction in a season, resolving team_name through the alias map.
// Unresolvable names are skipped with a warning.
func BackfillTeamIDs(doc *model.Document, leagueID string, year int, logger *slog.Logger) (*BackfillResult, error) {
	season, err := store.Season(doc, leagueID, year)
	if err != nil {
		return nil, err
	}

	aliases := alias.BuildMap(season)
	res := &BackfillResult{}
	for _, tx := range season.Transactions {
		if tx.TeamID != "" {
			continue
		}
		if tx.TeamName == "" {
			res.Skipped++
			continue
		}
		if id, ok := alias.Resolve(aliases, tx.TeamName); ok {
			tx.TeamID = id
			res.Updated++
		} else {
			logger.Warn("could not resolve team for transaction",
				"team", tx.TeamName, "date", tx.Date, "time", tx.Time, "id", tx.TransactionID)
			res.Skipped++
		}
	}
	return res, nil
}
