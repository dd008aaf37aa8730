package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/use-agent/apkscout/models"
)

func entryFor(title string) *models.ResolvedEntry {
	return models.NewResolvedEntry(models.Candidate{Title: title, URL: "https://example.com/" + title}, models.SourceAPKMirror)
}

func TestRegistryMergeSequence(t *testing.T) {
	r := NewRegistry()

	if got := r.MergeOrInsert("tracker", entryFor("Tracker 1.2"), "https://dl/a"); got != Inserted {
		t.Fatalf("first merge: got %s, want inserted", got)
	}
	if r.IsComplete("tracker") {
		t.Fatal("entry should not be complete after one link")
	}

	if got := r.MergeOrInsert("tracker", entryFor("Tracker 2.0"), "https://dl/b"); got != Completed {
		t.Fatalf("second merge: got %s, want complete", got)
	}

	e, ok := r.Get("tracker")
	if !ok {
		t.Fatal("entry missing")
	}
	if e.DirectDownloadURL != "https://dl/a" || e.FallbackDownloadURL != "https://dl/b" {
		t.Errorf("unexpected links: primary=%s fallback=%s", e.DirectDownloadURL, e.FallbackDownloadURL)
	}
	if e.Title != "Tracker 1.2" {
		t.Errorf("first candidate should own the entry, got title %q", e.Title)
	}

	if got := r.MergeOrInsert("tracker", entryFor("Tracker 3.0"), "https://dl/c"); got != Duplicate {
		t.Fatalf("third merge: got %s, want duplicate", got)
	}
	after, _ := r.Get("tracker")
	if *after != *e {
		t.Errorf("duplicate merge mutated the entry: %+v -> %+v", e, after)
	}
}

func TestRegistryCopiesEntries(t *testing.T) {
	r := NewRegistry()
	in := entryFor("Foo")
	r.MergeOrInsert("foo", in, "https://dl/1")

	in.Title = "changed"
	got, _ := r.Get("foo")
	if got.Title != "Foo" {
		t.Errorf("registry should copy on insert, got %q", got.Title)
	}

	got.DirectDownloadURL = "mutated"
	again, _ := r.Get("foo")
	if again.DirectDownloadURL != "https://dl/1" {
		t.Errorf("Get should return a copy, got %q", again.DirectDownloadURL)
	}
}

func TestRegistryEntriesOrder(t *testing.T) {
	r := NewRegistry()
	for _, k := range []string{"c", "a", "b"} {
		r.MergeOrInsert(k, entryFor(k), "https://dl/"+k)
	}
	r.MergeOrInsert("a", entryFor("a"), "https://dl/a2")

	entries := r.Entries()
	if len(entries) != 3 || r.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"c", "a", "b"} {
		if entries[i].Title != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Title, want)
		}
	}
	if entries[1].FallbackDownloadURL != "https://dl/a2" {
		t.Errorf("expected fallback on a, got %q", entries[1].FallbackDownloadURL)
	}
}

func TestRegistryConcurrentCompletion(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes <- r.MergeOrInsert("same", entryFor("Same"), fmt.Sprintf("https://dl/%d", i))
		}(i)
	}
	wg.Wait()
	close(outcomes)

	counts := map[Outcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	if counts[Inserted] != 1 || counts[Completed] != 1 || counts[Duplicate] != 18 {
		t.Errorf("unexpected outcome counts: %v", counts)
	}
}
