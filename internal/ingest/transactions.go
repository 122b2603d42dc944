package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/albapepper/league-ledger/internal/alias"
	"github.com/albapepper/league-ledger/internal/model"
	"github.com/albapepper/league-ledger/internal/store"
)

// rawBatch is the external transaction-batch document: day groups, each
// carrying the date its entries inherit.
type rawBatch struct {
	Transactions []rawDay `json:"transactions"`
}

type rawDay struct {
	Date    string            `json:"date"`
	Entries []json.RawMessage `json:"entries"`
}

// TxSummary reports a transaction batch ingest, per-item.
type TxSummary struct {
	Added             int
	SkippedDuplicates int
	SkippedInvalid    int
	Problems          []string
}

type datedTx struct {
	when time.Time
	tx   *model.Transaction
}

// AddTransactions merges a batch document into the season transaction
// log. Items are independent: a bad or duplicate item is skipped and
// reported, never fatal to the batch. On success the whole season log is
// re-sorted chronologically and reindexed T00001..Tn.
func AddTransactions(doc *model.Document, batch []byte, leagueID string, year int, logger *slog.Logger) (*TxSummary, error) {
	var parsed rawBatch
	if err := json.Unmarshal(batch, &parsed); err != nil {
		return nil, model.Validationf("transaction batch must be a JSON object with a 'transactions' list: %v", err)
	}
	if parsed.Transactions == nil {
		return nil, model.Validationf("transaction batch is missing the 'transactions' list")
	}

	season := store.GetOrCreateSeason(doc, leagueID, year)

	flat := make([]datedTx, 0, len(season.Transactions))
	for _, t := range season.Transactions {
		when, err := parseWhen(year, t.Date, t.Time)
		if err != nil {
			return nil, model.Validationf("existing transaction %s has unparseable datetime %q %q: %v",
				t.TransactionID, t.Date, t.Time, err)
		}
		flat = append(flat, datedTx{when: when, tx: t})
	}

	aliases := alias.BuildMap(season)
	summary := &TxSummary{}

	skip := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		summary.SkippedInvalid++
		summary.Problems = append(summary.Problems, msg)
		logger.Warn(msg)
	}

	for _, day := range parsed.Transactions {
		for _, rawEntry := range day.Entries {
			tx := &model.Transaction{}
			if err := json.Unmarshal(rawEntry, tx); err != nil {
				skip("skipped malformed transaction entry on %s: %v", day.Date, err)
				continue
			}
			tx.Date = day.Date

			if err := tx.Validate(); err != nil {
				skip("skipped invalid transaction on %s %s: %v", tx.Date, tx.Time, err)
				continue
			}

			when, err := parseWhen(year, tx.Date, tx.Time)
			if err != nil {
				skip("skipped transaction with unparseable datetime %q %q: %v", tx.Date, tx.Time, err)
				continue
			}

			if tx.TeamName != "" {
				if id, ok := alias.Resolve(aliases, tx.TeamName); ok {
					tx.TeamID = id
				} else {
					logger.Warn("unknown team in transaction",
						"team", tx.TeamName, "date", tx.Date, "time", tx.Time)
				}
			}

			dup := false
			for _, existing := range flat {
				if isDuplicateTx(existing.tx, tx) {
					dup = true
					break
				}
			}
			if dup {
				summary.SkippedDuplicates++
				logger.Warn("skipped duplicate transaction",
					"team", tx.TeamName, "date", tx.Date, "time", tx.Time)
				continue
			}

			flat = append(flat, datedTx{when: when, tx: tx})
			summary.Added++

			// Renames apply immediately so later items in this batch still
			// resolve the old name.
			if tx.Type == model.TxTeamUpdate {
				alias.ApplyRename(season, alias.Rename{
					NewName:   tx.NewName,
					OldName:   tx.OldName,
					OldAbbrev: tx.OldAbbrev,
				}, logger)
				aliases = alias.BuildMap(season)
			}
		}
	}

	sort.SliceStable(flat, func(i, j int) bool { return flat[i].when.Before(flat[j].when) })
	season.Transactions = make([]*model.Transaction, len(flat))
	for i, d := range flat {
		season.Transactions[i] = d.tx
	}
	ReindexTransactions(season.Transactions, leagueID, year)
	return summary, nil
}

// ReindexTransactions renumbers the list T00001..Tn in its current order.
func ReindexTransactions(txs []*model.Transaction, leagueID string, year int) {
	for i, t := range txs {
		t.TransactionID = model.TransactionID(leagueID, year, i+1)
	}
}

// parseWhen combines a season year, an MM-DD date, and a "3:04 pm" style
// clock into a sortable timestamp.
func parseWhen(year int, date, clock string) (time.Time, error) {
	s := strings.ToLower(fmt.Sprintf("%d-%s %s", year, strings.TrimSpace(date), strings.TrimSpace(clock)))
	return time.Parse("2006-01-02 3:04 pm", s)
}

// ExpandSelector turns a removal selector into an explicit ID list. A
// selector is one ID, a comma-separated list, or an A-B range whose
// endpoints share a season prefix.
func ExpandSelector(selector string) ([]string, error) {
	s := strings.TrimSpace(selector)
	switch {
	case strings.Contains(s, ","):
		var ids []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				ids = append(ids, p)
			}
		}
		if len(ids) == 0 {
			return nil, model.Validationf("empty transaction selector")
		}
		return ids, nil
	case strings.Contains(s, "-"):
		bounds := strings.SplitN(s, "-", 2)
		start, err := model.ParseID(bounds[0])
		if err != nil || start.Kind != model.KindTransaction {
			return nil, model.Validationf("invalid range start %q (expected IDs like L001S2025T00001-L001S2025T00005)", bounds[0])
		}
		end, err := model.ParseID(bounds[1])
		if err != nil || end.Kind != model.KindTransaction {
			return nil, model.Validationf("invalid range end %q (expected IDs like L001S2025T00001-L001S2025T00005)", bounds[1])
		}
		if start.SeasonID() != end.SeasonID() {
			return nil, model.Validationf("range endpoints must share a season prefix")
		}
		if end.Seq < start.Seq {
			return nil, model.Validationf("invalid range (end before start)")
		}
		ids := make([]string, 0, end.Seq-start.Seq+1)
		for n := start.Seq; n <= end.Seq; n++ {
			ids = append(ids, model.TransactionID(start.League, start.Year, n))
		}
		return ids, nil
	case s == "":
		return nil, model.Validationf("empty transaction selector")
	default:
		return []string{s}, nil
	}
}

// RemoveTransactions deletes the selected transactions from their season
// and renumbers the remainder by current order. Every ID is validated for
// format and presence before anything is deleted (all-or-nothing).
func RemoveTransactions(doc *model.Document, selector string) (int, error) {
	ids, err := ExpandSelector(selector)
	if err != nil {
		return 0, err
	}

	first, err := model.ParseID(ids[0])
	if err != nil {
		return 0, err
	}
	if first.Kind != model.KindTransaction {
		return 0, model.Validationf("%q is not a transaction identifier", ids[0])
	}

	season, err := store.Season(doc, first.League, first.Year)
	if err != nil {
		return 0, err
	}
	if len(season.Transactions) == 0 {
		return 0, model.Referencef(first.SeasonID(), "no transactions found for season %s", first.SeasonID())
	}

	indexByID := make(map[string]int, len(season.Transactions))
	for i, t := range season.Transactions {
		indexByID[t.TransactionID] = i
	}

	var badFormat, missing []string
	indices := make([]int, 0, len(ids))
	for _, id := range ids {
		parsed, err := model.ParseID(id)
		if err != nil || parsed.Kind != model.KindTransaction {
			badFormat = append(badFormat, id)
			continue
		}
		idx, ok := indexByID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		indices = append(indices, idx)
	}
	if len(badFormat) > 0 {
		return 0, model.Validationf("invalid transaction_id format: %s (expected L001S2025T00001 style)", strings.Join(badFormat, ", "))
	}
	if len(missing) > 0 {
		return 0, model.Referencef(missing[0], "transaction_id(s) not found: %s", strings.Join(missing, ", "))
	}

	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		season.Transactions = append(season.Transactions[:idx], season.Transactions[idx+1:]...)
	}

	// Order is stable from the prior chronological sort; renumber only.
	ReindexTransactions(season.Transactions, first.League, first.Year)
	return len(indices), nil
}
