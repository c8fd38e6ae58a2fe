package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"

	"fileutils/internal/exitcodes"
	"fileutils/internal/history"
)

func main() {
	dbPath := flag.String("db", "/var/lib/fileutils/history.db", "Path to operation history database")
	recent := flag.Int("recent", 0, "Show N most recent operations")
	stats := flag.Bool("stats", false, "Show operation statistics")
	operation := flag.String("operation", "", "Filter by operation (delete, clear_expired, copy, ...)")
	outcome := flag.String("outcome", "", "Filter by outcome (OK, ERROR)")
	pathPattern := flag.String("path", "", "Filter by path or target pattern (SQL LIKE syntax)")
	limit := flag.Int("limit", 100, "Maximum rows for filtered queries")
	days := flag.Int("days", 30, "Number of days for statistics")
	prune := flag.Int("prune", 0, "Delete entries older than N days and compact the database")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	db, err := history.Open(*dbPath)
	if err != nil {
		log.Printf("ERROR: Failed to open database %s: %v", *dbPath, err)
		os.Exit(exitcodes.InvalidConfig)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	switch {
	case *prune > 0:
		err = pruneHistory(db, *prune)
	case *stats:
		err = showStats(db, *days, *jsonOutput)
	case *recent > 0:
		err = showEntries(db.Recent(*recent))(fmt.Sprintf("Most recent %d operations", *recent), *jsonOutput)
	case *operation != "":
		err = showEntries(db.ByOperation(*operation, *limit))("Operations of type "+*operation, *jsonOutput)
	case *outcome != "":
		err = showEntries(db.ByOutcome(*outcome, *limit))("Operations with outcome "+*outcome, *jsonOutput)
	case *pathPattern != "":
		err = showEntries(db.ByPath(*pathPattern, *limit))("Operations matching "+*pathPattern, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  fileutils-history --recent 10             # Show 10 most recent operations")
		fmt.Println("  fileutils-history --stats --days 7        # Show statistics for the last week")
		fmt.Println("  fileutils-history --operation move        # Show moves")
		fmt.Println("  fileutils-history --outcome ERROR         # Show failed operations")
		fmt.Println("  fileutils-history --path '/var/tmp/%'     # Show operations under /var/tmp")
		fmt.Println("  fileutils-history --prune 90              # Drop entries older than 90 days")
		os.Exit(exitcodes.Usage)
	}

	if err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(exitcodes.RuntimeError)
	}
}

func printJSON(v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func pruneHistory(db *history.DB, days int) error {
	removed, err := db.DeleteOlderThan(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if err := db.Vacuum(); err != nil {
		return fmt.Errorf("vacuum history: %w", err)
	}
	fmt.Printf("Removed %d entries older than %d days\n", removed, days)
	return nil
}

func showStats(db *history.DB, days int, jsonOutput bool) error {
	stats, err := db.GetStats(days)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}
	if jsonOutput {
		return printJSON(stats)
	}

	fmt.Printf("Operation Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Total Operations: %d\n", stats.TotalOperations)
	fmt.Printf("Total Errors:     %d\n", stats.TotalErrors)
	fmt.Printf("Entries Removed:  %d\n", stats.EntriesRemoved)
	fmt.Printf("Bytes Copied:     %s\n\n", humanize.IBytes(uint64(stats.BytesCopied)))

	if len(stats.ByOperation) > 0 {
		ops := make([]string, 0, len(stats.ByOperation))
		for op := range stats.ByOperation {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		fmt.Println("By Operation:")
		for _, op := range ops {
			fmt.Printf("  %-18s %d\n", op, stats.ByOperation[op])
		}
	}
	return nil
}

// showEntries adapts a query result to a printer taking the heading
func showEntries(entries []history.Entry, err error) func(title string, jsonOutput bool) error {
	return func(title string, jsonOutput bool) error {
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if jsonOutput {
			return printJSON(entries)
		}
		fmt.Printf("%s\n\n", title)
		printEntries(entries)
		return nil
	}
}

func printEntries(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Println("No records found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tOperation\tOutcome\tCount\tBytes\tPath")
	_, _ = fmt.Fprintln(w, "--\t---------\t---------\t-------\t-----\t-----\t----")

	for _, e := range entries {
		path := e.Path
		if e.Target != "" {
			path = e.Path + " -> " + e.Target
		}
		if e.ErrorMessage != "" {
			path += "  (" + e.ErrorMessage + ")"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.Outcome,
			e.Count, humanize.IBytes(uint64(e.Bytes)), path)
	}
	_ = w.Flush()
}
