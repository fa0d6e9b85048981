package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/config"
	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/audit"

	_ "modernc.org/sqlite"
)

func main() {
	cfg := config.Load()

	n := flag.Int("n", 20, "number of recent rows to display")
	matchID := flag.String("match", "", "only show events for this match")
	eventType := flag.String("type", "", "only show one event type (WICKET, INNINGS COMPLETE, MATCH COMPLETE)")
	verbose := flag.Bool("v", false, "show all columns (raw schema)")
	archived := flag.Bool("archive", false, "print the archived scorecard of -match")
	dbPath := flag.String("db", cfg.AuditDBPath, "audit database path")
	flag.Parse()

	if *archived {
		if *matchID == "" {
			fmt.Fprintln(os.Stderr, "-archive needs -match")
			os.Exit(1)
		}
		printArchive(cfg.ArchiveDir, *matchID)
		return
	}

	if *verbose {
		printRaw(*dbPath, *n)
		return
	}
	printCompact(*dbPath, audit.Filter{MatchID: *matchID, EventType: *eventType, Limit: *n})
}

func printCompact(dbPath string, f audit.Filter) {
	fmt.Println("=== Match Events ===")

	store, err := audit.OpenStore(dbPath)
	if err != nil {
		fmt.Printf("  (cannot open %s: %v)\n", dbPath, err)
		return
	}
	defer store.Close()

	rows, err := store.Query(f)
	if err != nil {
		fmt.Printf("  (query error: %v)\n", err)
		return
	}
	if len(rows) == 0 {
		fmt.Println("(no data)")
		return
	}

	fmt.Printf("Showing last %d:\n", len(rows))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ts\tmatch\tevent\tinn\tbatting\tscore\tovers\tdetail\tscorer")
	fmt.Fprintln(w, strings.Repeat("----\t", 9))
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d/%d\t%s\t%s\t%s\n",
			r.Ts.Local().Format("Jan 02 15:04:05"), r.MatchID, r.EventType, r.Innings,
			fmtCell(r.BattingTeam), r.Score, r.Wickets, fmtCell(r.Overs), fmtCell(r.Detail), fmtCell(r.ScorerID))
	}
	w.Flush()
}

func printRaw(dbPath string, n int) {
	fmt.Println("=== Match Events (verbose) ===")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Printf("  (cannot open %s: %v)\n", dbPath, err)
		return
	}
	defer db.Close()

	cols, err := schemaColumns(db, "match_events")
	if err != nil {
		fmt.Printf("  (cannot read schema: %v)\n", err)
		return
	}
	fmt.Printf("Schema: %s\n\n", strings.Join(cols, ", "))

	count := 0
	if err := db.QueryRow(`SELECT COUNT(*) FROM match_events`).Scan(&count); err != nil {
		fmt.Printf("  (cannot count rows: %v)\n", err)
		return
	}
	if count == 0 {
		fmt.Println("(no data)")
		return
	}

	fmt.Printf("Rows: %d  |  Showing last %d:\n", count, min(n, count))
	printQuery(db, `SELECT * FROM match_events ORDER BY id DESC LIMIT ?`, n)
}

func printArchive(dir, matchID string) {
	a, err := audit.NewArchive(dir)
	if err != nil {
		fmt.Printf("  (cannot open archive %s: %v)\n", dir, err)
		return
	}
	rec, err := a.Read(matchID)
	if err != nil {
		fmt.Printf("  (%v)\n", err)
		return
	}

	fmt.Printf("=== %s  archived %s ===\n", matchID, rec.ArchivedAt.Local().Format("Jan 02 2006 15:04"))
	fmt.Println(rec.ResultText)
	for _, sc := range rec.Scorecards {
		fmt.Printf("\nInnings %d  RR %.2f  extras %d\n", sc.Innings, sc.RunRate, sc.Extras.Total)
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "batter\tR\tB\t4s\t6s\tSR\thow out")
		for _, b := range sc.Batters {
			how := "not out"
			switch {
			case b.Out:
				how = string(b.HowOut)
			case b.Retired:
				how = "retired"
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f\t%s\n", b.PlayerID, b.Runs, b.Balls, b.Fours, b.Sixes, b.StrikeRate, how)
		}
		fmt.Fprintln(w, "bowler\tO\tM\tR\tW\tEcon\t")
		for _, b := range sc.Bowlers {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.2f\t\n", b.PlayerID, b.Overs, b.Maidens, b.Runs, b.Wickets, b.Economy)
		}
		w.Flush()
	}
}

func printQuery(db *sql.DB, query string, n int) {
	rows, err := db.Query(query, n)
	if err != nil {
		fmt.Printf("  (query error: %v)\n", err)
		return
	}
	defer rows.Close()

	colNames, _ := rows.Columns()
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(colNames, "\t"))
	fmt.Fprintln(w, strings.Repeat("----\t", len(colNames)))

	vals := make([]any, len(colNames))
	ptrs := make([]any, len(colNames))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var rowBuf [][]string
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			fmt.Fprintf(os.Stderr, "  scan error: %v\n", err)
			continue
		}
		cells := make([]string, len(colNames))
		for i, v := range vals {
			cells[i] = fmtCell(v)
		}
		rowBuf = append(rowBuf, cells)
	}

	for i := len(rowBuf) - 1; i >= 0; i-- {
		fmt.Fprintln(w, strings.Join(rowBuf[i], "\t"))
	}
	w.Flush()
}

func schemaColumns(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name+" "+ctype)
	}
	return cols, nil
}

func fmtCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case []byte:
		return string(x)
	case int64:
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("%v", v)
	}
}
