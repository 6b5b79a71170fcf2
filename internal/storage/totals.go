package storage

import (
	"fmt"
	"strings"

	"github.com/pable/courtvision/internal/model"
)

// PlayerTotals holds summed passing stats for one player across multiple games.
type PlayerTotals struct {
	Player         model.PlayerID `json:"player"`
	Games          int            `json:"games"`
	PassesMade     int            `json:"passes_made"`
	PassesReceived int            `json:"passes_received"`
	ChainMade      int            `json:"chain_made"`
	ChainReceived  int            `json:"chain_received"`
	PlaysFinished  int            `json:"plays_finished"`
	TotalDistance  float64        `json:"total_distance"`
	TotalDuration  float64        `json:"total_duration"`
}

// AvgDistance returns the mean distance of the passes the player made.
func (p PlayerTotals) AvgDistance() float64 {
	if p.PassesMade == 0 {
		return 0
	}
	return p.TotalDistance / float64(p.PassesMade)
}

// PlayerPassTotals returns per-player summed stats across all stored games,
// most passes made first. When players is non-empty only those are returned.
func (db *DB) PlayerPassTotals(players []string) ([]PlayerTotals, error) {
	query := `
		SELECT player, COUNT(DISTINCT game),
		       SUM(passes_made), SUM(passes_received), SUM(chain_made), SUM(chain_received),
		       SUM(plays_finished), SUM(total_distance), SUM(total_duration)
		FROM player_pass_stats`
	args := make([]interface{}, 0, len(players))
	if len(players) > 0 {
		query += fmt.Sprintf("\n\t\tWHERE player IN (%s)", placeholders(len(players)))
		for _, p := range players {
			args = append(args, p)
		}
	}
	query += `
		GROUP BY player
		ORDER BY SUM(passes_made) DESC, player`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerTotals
	for rows.Next() {
		var p PlayerTotals
		var player string
		if err := rows.Scan(
			&player, &p.Games,
			&p.PassesMade, &p.PassesReceived, &p.ChainMade, &p.ChainReceived,
			&p.PlaysFinished, &p.TotalDistance, &p.TotalDuration,
		); err != nil {
			return nil, err
		}
		p.Player = model.PlayerID(player)
		out = append(out, p)
	}
	return out, rows.Err()
}

// placeholders returns a comma-separated string of n "?" for SQL IN clauses,
// e.g. placeholders(3) → "?,?,?".
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
