package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/use-agent/apkscout/config"
	"github.com/use-agent/apkscout/models"
	"github.com/use-agent/apkscout/resolver"
)

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "json array", input: `["Life360", " Family Link ", ""]`, want: []string{"Life360", "Family Link"}},
		{name: "lines", input: "Life360\n\n# parental\nFamily Link\n", want: []string{"Life360", "Family Link"}},
		{name: "empty", input: "  \n", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQueries([]byte(tt.input))
			if err != nil {
				t.Fatalf("parseQueries: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseQueries_BadJSON(t *testing.T) {
	if _, err := parseQueries([]byte(`["unterminated`)); err == nil {
		t.Error("expected error")
	}
}

func TestCollectEntries_Dedups(t *testing.T) {
	shared := &models.ResolvedEntry{Title: "Family Link", DirectDownloadURL: "A"}
	results := []resolver.Result{
		{Query: "family link", Entry: shared},
		{Query: "google family link", Entry: shared},
		{Query: "nothing"},
		{Query: "life360", Entry: &models.ResolvedEntry{Title: "Life360", DirectDownloadURL: "L"}},
	}
	got := collectEntries(results)
	if len(got) != 2 || got[0].Title != "Family Link" || got[1].Title != "Life360" {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	results := []resolver.Result{
		{Query: "tracker", Entry: &models.ResolvedEntry{Title: "Tracker", DirectDownloadURL: "A", FallbackDownloadURL: "B"}},
		{Query: "solo", Entry: &models.ResolvedEntry{Title: "Solo", DirectDownloadURL: "S"}},
		{Query: "blocked", Err: models.NewResolveError(models.ErrCodeChallengeFailed, "blocked", errors.New("x"))},
		{Query: "nothing"},
	}
	printResults(&buf, results, resolver.RunStats{Queries: 4, Complete: 1, Partial: 1, Absent: 1, Failed: 1})

	out := buf.String()
	for _, want := range []string{"complete", "partial", "challenge_failed", "absent", "4 queries: 1 complete, 1 partial, 1 absent, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNewLogHandler(t *testing.T) {
	var buf bytes.Buffer

	if _, ok := newLogHandler(&buf, config.LogConfig{Format: "json"}).(*slog.JSONHandler); !ok {
		t.Error("json format should use slog.JSONHandler")
	}
	if _, ok := newLogHandler(&buf, config.LogConfig{Format: "text"}).(*slog.TextHandler); !ok {
		t.Error("text format should use slog.TextHandler")
	}
	if _, ok := newLogHandler(&buf, config.LogConfig{Format: "pretty"}).(*charmlog.Logger); !ok {
		t.Error("pretty format should use the charm logger")
	}
	if _, ok := newLogHandler(&buf, config.LogConfig{Format: "auto"}).(*slog.JSONHandler); !ok {
		t.Error("auto on a non-terminal should fall back to JSON")
	}
}

func TestNewLogHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, config.LogConfig{Level: "warn", Format: "json"}))

	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level filter not applied: %s", buf.String())
	}
}

func TestRootCmd_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("APKSCOUT_MAX_RESULTS", "0")
	root := newRootCmd()
	root.SetArgs([]string{"resolve", "anything"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Error("expected validation error")
	}
}

func TestResolveCmd_RequiresQueries(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"resolve", "--log-format", "json"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "no queries") {
		t.Errorf("expected missing-queries error, got %v", err)
	}
}
