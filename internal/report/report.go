package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/courtvision/internal/model"
	"github.com/pable/courtvision/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintGameSummary prints a one-line summary header for the game.
func PrintGameSummary(w io.Writer, s model.GameSummary) {
	fmt.Fprintf(w, "\nGame: %s  |  Quarters: %d  |  Frames: %d (%d without ball)  |  Passes: %d  |  Plays: %d  |  Chains: %d  |  Attributed: %d\n\n",
		s.Game, s.Quarters, s.Frames, s.Malformed, s.Passes, s.Windows, s.Combined, s.Filtered)
}

// PrintGamesTable lists stored games.
func PrintGamesTable(w io.Writer, games []model.GameSummary) {
	table := newTable(w)
	table.Header("GAME", "PROCESSED", "FRAMES", "PASSES", "PLAYS", "CHAINS", "UNRESOLVED", "ATTRIBUTED", "HASH")
	for _, g := range games {
		table.Append(
			g.Game,
			g.ProcessedAt,
			strconv.Itoa(g.Frames),
			strconv.Itoa(g.Passes),
			strconv.Itoa(g.Windows),
			strconv.Itoa(g.Combined),
			strconv.Itoa(g.Unresolvable),
			strconv.Itoa(g.Filtered),
			shortHash(g.SourceHash),
		)
	}
	table.Render()
}

// PrintPlayTable prints play windows computed in this process.
// Windows also present in filtered are marked with "*".
func PrintPlayTable(w io.Writer, windows, filtered []model.PlayWindow) {
	type key struct{ q, i int }
	kept := make(map[key]bool, len(filtered))
	for _, f := range filtered {
		kept[key{f.Quarter, f.PlayIndex}] = true
	}

	table := newTable(w)
	table.Header(" ", "Q", "#", "FROM", "UNTIL", "OUTCOME", "W", "PASSES", "CHAIN")
	for _, pw := range windows {
		marker := " "
		if kept[key{pw.Quarter, pw.PlayIndex}] {
			marker = "*"
		}
		table.Append(
			marker,
			strconv.Itoa(pw.Quarter),
			strconv.Itoa(pw.PlayIndex),
			fmt.Sprintf("%.1f", pw.SecLeftFrom),
			fmt.Sprintf("%.1f", pw.SecLeftUntil),
			pw.Outcome,
			strconv.Itoa(pw.Weight),
			strconv.Itoa(len(pw.Passes)),
			chainLabel(pw.CombinedPasses),
		)
	}
	table.Render()
}

// PrintWindowTable prints stored play windows.
func PrintWindowTable(w io.Writer, rows []storage.WindowRow) {
	table := newTable(w)
	table.Header(" ", "Q", "#", "FROM", "UNTIL", "OUTCOME", "W", "PASSES", "CHAIN")
	for _, r := range rows {
		marker := " "
		if r.Filtered {
			marker = "*"
		}
		chain := r.Chain
		if chain == "" {
			chain = "—"
		}
		table.Append(
			marker,
			strconv.Itoa(r.Quarter),
			strconv.Itoa(r.PlayIndex),
			fmt.Sprintf("%.1f", r.SecLeftFrom),
			fmt.Sprintf("%.1f", r.SecLeftUntil),
			r.Outcome,
			strconv.Itoa(r.Weight),
			strconv.Itoa(r.Passes),
			chain,
		)
	}
	table.Render()
}

// PrintPlayerTable prints per-player passing stats of one game.
// If focus is set, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, stats []model.PlayerPassStats, focus model.PlayerID) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "MADE", "RECV", "CHAIN_MADE", "CHAIN_RECV", "FINISHED", "AVG_DIST", "AVG_DUR", "AVG_SPEED")
	for _, s := range stats {
		marker := " "
		if focus != model.None && s.Player == focus {
			marker = ">"
		}
		table.Append(
			marker,
			string(s.Player),
			strconv.Itoa(s.PassesMade),
			strconv.Itoa(s.PassesReceived),
			strconv.Itoa(s.ChainMade),
			strconv.Itoa(s.ChainReceived),
			strconv.Itoa(s.PlaysFinished),
			avg(s.PassesMade, s.AvgDistance(), "%.1fft"),
			avg(s.PassesMade, s.AvgDuration(), "%.2fs"),
			avg(s.PassesMade, s.AvgSpeed(), "%.2f"),
		)
	}
	table.Render()
}

// PrintPlayerTotalsTable prints passing totals across games.
func PrintPlayerTotalsTable(w io.Writer, totals []storage.PlayerTotals) {
	table := newTable(w)
	table.Header("PLAYER", "GAMES", "MADE", "RECV", "CHAIN_MADE", "CHAIN_RECV", "FINISHED", "AVG_DIST")
	for _, p := range totals {
		table.Append(
			string(p.Player),
			strconv.Itoa(p.Games),
			strconv.Itoa(p.PassesMade),
			strconv.Itoa(p.PassesReceived),
			strconv.Itoa(p.ChainMade),
			strconv.Itoa(p.ChainReceived),
			strconv.Itoa(p.PlaysFinished),
			avg(p.PassesMade, p.AvgDistance(), "%.1fft"),
		)
	}
	table.Render()
}

func avg(n int, v float64, format string) string {
	if n == 0 {
		return "—"
	}
	return fmt.Sprintf(format, v)
}

func chainLabel(passes []model.Pass) string {
	if len(passes) == 0 {
		return "—"
	}
	s := string(passes[0].From)
	for _, p := range passes {
		s += " > " + string(p.To)
	}
	return s
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// PrintTrendTable prints one player's passing per game in calendar order.
func PrintTrendTable(w io.Writer, stats []model.PlayerPassStats) {
	table := newTable(w)
	table.Header("GAME", "MADE", "RECV", "CHAIN_MADE", "CHAIN_RECV", "FINISHED", "AVG_DIST", "AVG_SPEED")
	for _, s := range stats {
		table.Append(
			s.Game,
			strconv.Itoa(s.PassesMade),
			strconv.Itoa(s.PassesReceived),
			strconv.Itoa(s.ChainMade),
			strconv.Itoa(s.ChainReceived),
			strconv.Itoa(s.PlaysFinished),
			avg(s.PassesMade, s.AvgDistance(), "%.1fft"),
			avg(s.PassesMade, s.AvgSpeed(), "%.2f"),
		)
	}
	table.Render()
}

// PrintOverview prints aggregate counts over the play store.
func PrintOverview(w io.Writer, ov storage.Overview) {
	fmt.Fprintf(w, "\n=== Database Summary ===\n\n")
	fmt.Fprintf(w, "  Games stored  : %d\n", ov.Games)
	fmt.Fprintf(w, "  Date range    : %s → %s\n", ov.EarliestGame, ov.LatestGame)
	fmt.Fprintf(w, "  Players seen  : %d\n", ov.UniquePlayers)
	fmt.Fprintf(w, "  Frames        : %d\n", ov.Frames)
	fmt.Fprintf(w, "  Passes        : %d\n", ov.Passes)
	fmt.Fprintf(w, "  Plays         : %d\n", ov.Windows)
	fmt.Fprintf(w, "  Chains        : %d (%s of plays, %d unresolved)\n", ov.Combined, pct(ov.Combined, ov.Windows), ov.Unresolvable)
	fmt.Fprintf(w, "  Attributed    : %d (%s of chains)\n", ov.Filtered, pct(ov.Filtered, ov.Combined))
}

func pct(n, d int) string {
	if d == 0 {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(d))
}
