package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pable/courtvision/internal/model"
)

// WindowRow is the stored, flattened form of one play window.
type WindowRow struct {
	Game         string  `json:"game"`
	Quarter      int     `json:"quarter"`
	PlayIndex    int     `json:"play_index"`
	SecLeftFrom  float64 `json:"sec_left_from"`
	SecLeftUntil float64 `json:"sec_left_until"`
	Outcome      string  `json:"outcome"`
	Weight       int     `json:"weight"`
	Passes       int     `json:"passes"`
	ChainLen     int     `json:"chain_len"`
	Chain        string  `json:"chain"` // "A > B > C", empty without a merged chain
	Filtered     bool    `json:"filtered"`
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// GameExists returns true if game is stored with the given source hash.
func (db *DB) GameExists(game, sourceHash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM games WHERE game = ? AND source_hash = ?", game, sourceHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertGame inserts a game record. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertGame(s model.GameSummary) error {
	return insertGame(db.conn, s)
}

func insertGame(ex execer, s model.GameSummary) error {
	_, err := ex.Exec(`
		INSERT OR REPLACE INTO games(game, source_hash, run_id, processed_at,
			quarters, frames, malformed, passes, windows, combined, unresolvable, filtered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Game, s.SourceHash, s.RunID, s.ProcessedAt,
		s.Quarters, s.Frames, s.Malformed, s.Passes, s.Windows,
		s.Combined, s.Unresolvable, s.Filtered,
	)
	return err
}

// SaveGame stores a processed game in one transaction: its summary row, its
// windows and its player stats. Either all of them are written or none, so a
// stored summary always comes with its windows.
func (db *DB) SaveGame(s model.GameSummary, windows, filtered []model.PlayWindow, stats []model.PlayerPassStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertGame(tx, s); err != nil {
		return fmt.Errorf("insert game %s: %w", s.Game, err)
	}
	if err := replacePlayWindows(tx, s.Game, windows, filtered); err != nil {
		return err
	}
	if err := replacePlayerPassStats(tx, s.Game, stats); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertPlayWindows replaces the stored windows of game in a transaction.
// Windows present in filtered are flagged.
func (db *DB) InsertPlayWindows(game string, windows, filtered []model.PlayWindow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replacePlayWindows(tx, game, windows, filtered); err != nil {
		return err
	}
	return tx.Commit()
}

func replacePlayWindows(tx *sql.Tx, game string, windows, filtered []model.PlayWindow) error {
	type key struct{ quarter, index int }
	kept := make(map[key]struct{}, len(filtered))
	for _, w := range filtered {
		kept[key{w.Quarter, w.PlayIndex}] = struct{}{}
	}

	if _, err := tx.Exec("DELETE FROM play_windows WHERE game = ?", game); err != nil {
		return fmt.Errorf("clear play_windows for %s: %w", game, err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO play_windows(
			game, quarter, play_index, sec_left_from, sec_left_until,
			outcome, weight, passes, chain_len, chain, is_filtered
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range windows {
		_, isFiltered := kept[key{w.Quarter, w.PlayIndex}]
		_, err = stmt.Exec(
			game, w.Quarter, w.PlayIndex, w.SecLeftFrom, w.SecLeftUntil,
			w.Outcome, w.Weight, len(w.Passes), len(w.CombinedPasses),
			chainString(w.CombinedPasses), boolInt(isFiltered),
		)
		if err != nil {
			return fmt.Errorf("insert play_windows q%d/%d: %w", w.Quarter, w.PlayIndex, err)
		}
	}
	return nil
}

// InsertPlayerPassStats replaces the stored player aggregates of game in a transaction.
func (db *DB) InsertPlayerPassStats(game string, stats []model.PlayerPassStats) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := replacePlayerPassStats(tx, game, stats); err != nil {
		return err
	}
	return tx.Commit()
}

func replacePlayerPassStats(tx *sql.Tx, game string, stats []model.PlayerPassStats) error {
	if _, err := tx.Exec("DELETE FROM player_pass_stats WHERE game = ?", game); err != nil {
		return fmt.Errorf("clear player_pass_stats for %s: %w", game, err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_pass_stats(
			game, player, passes_made, passes_received, chain_made, chain_received,
			plays_finished, total_distance, total_duration, total_speed
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.Exec(
			game, string(s.Player), s.PassesMade, s.PassesReceived, s.ChainMade, s.ChainReceived,
			s.PlaysFinished, s.TotalDistance, s.TotalDuration, s.TotalSpeed,
		)
		if err != nil {
			return fmt.Errorf("insert player_pass_stats for %s: %w", s.Player, err)
		}
	}
	return nil
}

// DeleteGame removes a game and, through the foreign keys, its windows and stats.
// It reports whether a row was removed.
func (db *DB) DeleteGame(game string) (bool, error) {
	res, err := db.conn.Exec("DELETE FROM games WHERE game = ?", game)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const gameColumns = `game, source_hash, run_id, processed_at,
	quarters, frames, malformed, passes, windows, combined, unresolvable, filtered`

func scanGame(sc interface{ Scan(...any) error }) (model.GameSummary, error) {
	var s model.GameSummary
	err := sc.Scan(&s.Game, &s.SourceHash, &s.RunID, &s.ProcessedAt,
		&s.Quarters, &s.Frames, &s.Malformed, &s.Passes, &s.Windows,
		&s.Combined, &s.Unresolvable, &s.Filtered)
	return s, err
}

// ListGames returns all stored games, most recently processed first.
func (db *DB) ListGames() ([]model.GameSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + gameColumns + ` FROM games ORDER BY processed_at DESC, game`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameSummary
	for rows.Next() {
		s, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetGameByPrefix finds the first game (by name) starting with the given prefix.
func (db *DB) GetGameByPrefix(prefix string) (*model.GameSummary, error) {
	row := db.conn.QueryRow(`SELECT `+gameColumns+` FROM games WHERE game LIKE ? ESCAPE '\' ORDER BY game LIMIT 1`,
		escapeLike(prefix)+"%")
	s, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPlayWindows returns the stored windows of a game in play order.
func (db *DB) GetPlayWindows(game string, filteredOnly bool) ([]WindowRow, error) {
	query := `
		SELECT quarter, play_index, sec_left_from, sec_left_until, outcome, weight,
		       passes, chain_len, chain, is_filtered
		FROM play_windows WHERE game = ?`
	if filteredOnly {
		query += " AND is_filtered = 1"
	}
	query += " ORDER BY quarter, play_index"

	rows, err := db.conn.Query(query, game)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WindowRow
	for rows.Next() {
		var w WindowRow
		var filtered int
		if err := rows.Scan(&w.Quarter, &w.PlayIndex, &w.SecLeftFrom, &w.SecLeftUntil,
			&w.Outcome, &w.Weight, &w.Passes, &w.ChainLen, &w.Chain, &filtered); err != nil {
			return nil, err
		}
		w.Game = game
		w.Filtered = filtered != 0
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetPlayerPassStats returns all player aggregates of a game, busiest passers first.
func (db *DB) GetPlayerPassStats(game string) ([]model.PlayerPassStats, error) {
	rows, err := db.conn.Query(`
		SELECT game, player, passes_made, passes_received, chain_made, chain_received,
		       plays_finished, total_distance, total_duration, total_speed
		FROM player_pass_stats WHERE game = ?
		ORDER BY passes_made DESC, player`, game)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerStats(rows)
}

// QueryRaw runs an arbitrary read query and returns column names and
// stringified rows. NULL becomes "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			case float64:
				row[i] = fmt.Sprintf("%.3f", v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// chainString renders a merged chain as its sequence of handlers.
func chainString(passes []model.Pass) string {
	if len(passes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(passes)+1)
	parts = append(parts, string(passes[0].From))
	for _, p := range passes {
		parts = append(parts, string(p.To))
	}
	return strings.Join(parts, " > ")
}

// escapeLike escapes LIKE wildcards so a prefix matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
