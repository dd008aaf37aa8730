package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/apkscout/models"
	"github.com/use-agent/apkscout/output"
	"github.com/use-agent/apkscout/resolver"
)

func newResolveCmd() *cobra.Command {
	var (
		queriesFile string
		outputFile  string
		workers     int
		maxResults  int
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [query...]",
		Short: "Resolve application names to direct download links",
		Long: `Resolve looks up every query on APKMirror, follows each listing to its
final download page, and merges the results into the output JSON file.

Queries come from the arguments, a --queries-file (JSON array or one name per
line), or both.`,
		Example: `  apkscout resolve "Life360" "Family Link"
  apkscout resolve --queries-file apps.txt --output data/direct_downloads.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())

			queries := append([]string(nil), args...)
			if queriesFile != "" {
				fromFile, err := readQueries(queriesFile)
				if err != nil {
					return err
				}
				queries = append(queries, fromFile...)
			}
			if len(queries) == 0 {
				return errors.New("no queries: pass names as arguments or use --queries-file")
			}

			if cmd.Flags().Changed("workers") {
				cfg.Resolver.Workers = workers
			}
			if cmd.Flags().Changed("max-results") {
				cfg.Resolver.MaxResults = maxResults
			}
			if cmd.Flags().Changed("output") {
				cfg.Output.File = outputFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			results, stats, runErr := a.orchestrator.ResolveAll(cmd.Context(), queries, cfg.Resolver.Workers)

			entries := collectEntries(results)
			if !dryRun && len(entries) > 0 {
				if err := output.WriteJSON(cfg.Output.File, entries); err != nil {
					return err
				}
				slog.Info("results written", "file", cfg.Output.File, "entries", len(entries))
			}

			printResults(cmd.OutOrStdout(), results, stats)
			return runErr
		},
	}

	cmd.Flags().StringVarP(&queriesFile, "queries-file", "f", "", "file of queries: JSON array or one per line")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output JSON file (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "queries resolved concurrently")
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 10, "candidates tried per query")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print results without writing the output file")

	return cmd
}

// readQueries loads a JSON array of strings, or one query per line with
// blank lines and #-comments skipped.
func readQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return parseQueries(data)
}

func parseQueries(data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var raw []string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("parse queries: %w", err)
		}
		out := make([]string, 0, len(raw))
		for _, q := range raw {
			if q = strings.TrimSpace(q); q != "" {
				out = append(out, q)
			}
		}
		return out, nil
	}

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// collectEntries returns the resolved entries once each, in query order.
func collectEntries(results []resolver.Result) []*models.ResolvedEntry {
	seen := make(map[string]bool)
	var entries []*models.ResolvedEntry
	for _, r := range results {
		if r.Entry == nil || seen[r.Entry.Title] {
			continue
		}
		seen[r.Entry.Title] = true
		entries = append(entries, r.Entry)
	}
	return entries
}

func printResults(w io.Writer, results []resolver.Result, stats resolver.RunStats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY\tSTATUS\tTITLE\tPRIMARY\tFALLBACK")
	for _, r := range results {
		status, title, primary, fallback := "absent", "-", "-", "-"
		switch {
		case r.Err != nil:
			status = strings.ToLower(models.CodeOf(r.Err))
		case r.Entry != nil:
			status = "partial"
			if r.Entry.Complete() {
				status = "complete"
			}
			title, primary = r.Entry.Title, r.Entry.DirectDownloadURL
			if r.Entry.FallbackDownloadURL != "" {
				fallback = r.Entry.FallbackDownloadURL
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Query, status, title, primary, fallback)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d queries: %d complete, %d partial, %d absent, %d failed (%s)\n",
		stats.Queries, stats.Complete, stats.Partial, stats.Absent, stats.Failed, stats.Duration.Round(time.Millisecond))
}
