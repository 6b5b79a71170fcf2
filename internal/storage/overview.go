package storage

import (
	"database/sql"

	"github.com/pable/courtvision/internal/model"
)

// Overview holds aggregate counts over every stored game.
type Overview struct {
	Games         int
	EarliestGame  string // game names of the first and last calendar dates
	LatestGame    string
	UniquePlayers int
	Frames        int
	Passes        int
	Windows       int
	Combined      int
	Unresolvable  int
	Filtered      int
}

// gameDateExpr orders "MM.DD.YYYY.AWY.at.HOM" game names by calendar date.
const gameDateExpr = `substr(game, 7, 4) || substr(game, 1, 2) || substr(game, 4, 2)`

// GetOverview returns aggregate statistics about the play store.
func (db *DB) GetOverview() (Overview, error) {
	var ov Overview
	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(frames), 0), COALESCE(SUM(passes), 0), COALESCE(SUM(windows), 0),
		       COALESCE(SUM(combined), 0), COALESCE(SUM(unresolvable), 0), COALESCE(SUM(filtered), 0)
		FROM games`).Scan(
		&ov.Games, &ov.Frames, &ov.Passes, &ov.Windows,
		&ov.Combined, &ov.Unresolvable, &ov.Filtered,
	)
	if err != nil {
		return ov, err
	}
	if ov.Games == 0 {
		return ov, nil
	}
	err = db.conn.QueryRow(`SELECT game FROM games ORDER BY ` + gameDateExpr + `, game LIMIT 1`).Scan(&ov.EarliestGame)
	if err != nil {
		return ov, err
	}
	err = db.conn.QueryRow(`SELECT game FROM games ORDER BY ` + gameDateExpr + ` DESC, game DESC LIMIT 1`).Scan(&ov.LatestGame)
	if err != nil {
		return ov, err
	}
	err = db.conn.QueryRow(`SELECT COUNT(DISTINCT player) FROM player_pass_stats`).Scan(&ov.UniquePlayers)
	return ov, err
}

// PlayerTrend returns one player's per-game stats in calendar order.
func (db *DB) PlayerTrend(player string) ([]model.PlayerPassStats, error) {
	rows, err := db.conn.Query(`
		SELECT game, player, passes_made, passes_received, chain_made, chain_received,
		       plays_finished, total_distance, total_duration, total_speed
		FROM player_pass_stats
		WHERE player = ?
		ORDER BY `+gameDateExpr+`, game`, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlayerStats(rows)
}

func scanPlayerStats(rows *sql.Rows) ([]model.PlayerPassStats, error) {
	var out []model.PlayerPassStats
	for rows.Next() {
		var s model.PlayerPassStats
		var player string
		if err := rows.Scan(
			&s.Game, &player, &s.PassesMade, &s.PassesReceived, &s.ChainMade, &s.ChainReceived,
			&s.PlaysFinished, &s.TotalDistance, &s.TotalDuration, &s.TotalSpeed,
		); err != nil {
			return nil, err
		}
		s.Player = model.PlayerID(player)
		out = append(out, s)
	}
	return out, rows.Err()
}
