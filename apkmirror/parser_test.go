package apkmirror

import (
	"strings"
	"testing"

	"github.com/use-agent/apkscout/models"
)

const siteBase = "https://www.apkmirror.com"

const listingHTML = `<html><body>
<div class="appRow">
  <h5 class="appRowTitle"><a href="/apk/acme/tracker/tracker-1-2-release/">Tracker 1.2</a></h5>
  <a class="byDeveloper" href="/apk/acme/">Acme Inc</a>
</div>
<div class="appRow">
  <h5 class="appRowTitle">No link here</h5>
</div>
<div class="appRow">
  <div>missing title</div>
</div>
<div class="appRow">
  <h5 class="appRowTitle"><a href="https://www.apkmirror.com/apk/acme/tracker/tracker-2-0-release/">Tracker   Pro</a></h5>
</div>
<div class="appRow">
  <h5 class="appRowTitle"><a href="/apk/other/app/">Beyond Limit 3.0</a></h5>
</div>
</body></html>`

func mustPage(t *testing.T, rawHTML, pageURL string) *Page {
	t.Helper()
	p, err := ParsePage(rawHTML, pageURL, siteBase)
	if err != nil {
		t.Fatalf("ParsePage: %v", err)
	}
	return p
}

func TestCandidates(t *testing.T) {
	p := mustPage(t, listingHTML, siteBase+"/?s=tracker")

	got := p.Candidates(4)
	want := []models.Candidate{
		{Title: "Tracker 1.2", URL: siteBase + "/apk/acme/tracker/tracker-1-2-release/", Developer: "Acme Inc", Version: "1.2"},
		{Title: "Tracker Pro", URL: siteBase + "/apk/acme/tracker/tracker-2-0-release/"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCandidates_NoLimit(t *testing.T) {
	p := mustPage(t, listingHTML, siteBase)
	if got := p.Candidates(0); len(got) != 3 {
		t.Errorf("expected 3 candidates without a limit, got %d", len(got))
	}
}

func TestCandidates_EmptyListing(t *testing.T) {
	p := mustPage(t, "<html><body><p>No results</p></body></html>", siteBase)
	if got := p.Candidates(10); len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestVariantLink(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			name: "icon inside accent anchor",
			html: `<a class="accent_color" href="/apk/acme/tracker/v/arm64/"><svg class="tag-icon"></svg>arm64</a>`,
			want: siteBase + "/apk/acme/tracker/v/arm64/",
		},
		{
			name: "first in document order",
			html: `<a class="foo accent_color" href="/first/"><svg class="tag-icon"></svg></a>
			       <a class="accent_color" href="/second/"><svg class="tag-icon"></svg></a>`,
			want: siteBase + "/first/",
		},
		{
			name:    "icon nested deeper",
			html:    `<a class="accent_color" href="/x/"><span><svg class="tag-icon"></svg></span></a>`,
			wantErr: true,
		},
		{
			name:    "parent is not an anchor",
			html:    `<div class="accent_color"><svg class="tag-icon"></svg></div>`,
			wantErr: true,
		},
		{
			name:    "anchor without class",
			html:    `<a href="/x/"><svg class="tag-icon"></svg></a>`,
			wantErr: true,
		},
		{
			name: "skips bad candidate",
			html: `<span><svg class="tag-icon"></svg></span>
			       <a class="accent_color" href="/ok/"><svg class="tag-icon"></svg></a>`,
			want: siteBase + "/ok/",
		},
		{
			name:    "accent anchor without icon",
			html:    `<a class="accent_color" href="/x/">text</a>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPage(t, "<html><body>"+tt.html+"</body></html>", siteBase+"/apk/acme/tracker/")
			got, err := p.VariantLink()
			if tt.wantErr {
				if !models.IsParseMiss(err) {
					t.Fatalf("expected parse miss, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VariantLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetailButton(t *testing.T) {
	pageURL := siteBase + "/apk/acme/tracker/tracker-1-2-release/"

	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			name: "download page link",
			html: `<a class="downloadButton" href="/apk/acme/tracker/tracker-1-2-release/tracker-1-2-android-apk-download/">Download</a>`,
			want: siteBase + "/apk/acme/tracker/tracker-1-2-release/tracker-1-2-android-apk-download/",
		},
		{
			name:    "in-page jump",
			html:    `<a class="downloadButton" href="#downloads">See available downloads</a>`,
			wantErr: true,
		},
		{
			name:    "same page downloads anchor",
			html:    `<a class="downloadButton" href="/apk/acme/tracker/tracker-1-2-release/#downloads">See available downloads</a>`,
			wantErr: true,
		},
		{
			name:    "other page downloads anchor",
			html:    `<a class="downloadButton" href="https://www.apkmirror.com/apk/acme/tracker/tracker-2-0-release/#downloads">Older release</a>`,
			wantErr: true,
		},
		{
			name: "other page anchor then real button",
			html: `<a class="downloadButton" href="/apk/acme/tracker/tracker-2-0-release/#downloads">jump</a>
			       <a class="downloadButton" href="/apk/acme/tracker/dl/">Download</a>`,
			want: siteBase + "/apk/acme/tracker/dl/",
		},
		{
			name:    "outside apk tree",
			html:    `<a class="downloadButton" href="/premium/">Go premium</a>`,
			wantErr: true,
		},
		{
			name:    "no href",
			html:    `<a class="downloadButton">Download</a>`,
			wantErr: true,
		},
		{
			name: "jump first then real button",
			html: `<a class="downloadButton" href="#downloads">jump</a>
			       <a class="downloadButton" href="/apk/acme/tracker/dl/">Download</a>`,
			want: siteBase + "/apk/acme/tracker/dl/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPage(t, "<html><body>"+tt.html+"</body></html>", pageURL)
			got, err := p.DetailButton()
			if tt.wantErr {
				if !models.IsParseMiss(err) {
					t.Fatalf("expected parse miss, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetailButton: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadButton(t *testing.T) {
	p := mustPage(t, `<html><body><a class="downloadButton" href="/apk/acme/tracker/dl/?key=1">Download APK</a></body></html>`, siteBase+"/apk/v/")
	got, err := p.DownloadButton()
	if err != nil {
		t.Fatalf("DownloadButton: %v", err)
	}
	if got != siteBase+"/apk/acme/tracker/dl/?key=1" {
		t.Errorf("got %q", got)
	}

	p = mustPage(t, `<html><body><a class="button" href="/apk/x/">Download</a></body></html>`, siteBase+"/apk/v/")
	if _, err := p.DownloadButton(); !models.IsParseMiss(err) {
		t.Errorf("expected parse miss, got %v", err)
	}
}

func TestTerminalLink(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		want    string
		wantErr bool
	}{
		{
			name: "direct link",
			html: `<a rel="nofollow" data-google-interstitial="false" href="/wp-content/themes/APKMirror/download.php?id=42&key=abc">here</a>`,
			want: siteBase + "/wp-content/themes/APKMirror/download.php?id=42&key=abc",
		},
		{
			name:    "interstitial flag true",
			html:    `<a rel="nofollow" data-google-interstitial="true" href="/wp-content/themes/APKMirror/download.php?id=42">here</a>`,
			wantErr: true,
		},
		{
			name:    "other href",
			html:    `<a rel="nofollow" data-google-interstitial="false" href="/apk/acme/">here</a>`,
			wantErr: true,
		},
		{
			name:    "missing rel",
			html:    `<a data-google-interstitial="false" href="/wp-content/themes/APKMirror/download.php?id=1">here</a>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPage(t, "<html><body>"+tt.html+"</body></html>", siteBase+"/apk/dl/")
			got, err := p.TerminalLink()
			if tt.wantErr {
				if !models.IsParseMiss(err) {
					t.Fatalf("expected parse miss, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TerminalLink: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescription_Notes(t *testing.T) {
	p := mustPage(t, `<html><body><div id="description"><div class="notes"><p>Keep your <b>family</b> safe.</p></div></div></body></html>`, siteBase+"/apk/x/")
	got := p.Description()
	if got != "Keep your **family** safe." {
		t.Errorf("Description = %q", got)
	}
}

func TestDescription_Missing(t *testing.T) {
	p := mustPage(t, `<html><body></body></html>`, siteBase+"/apk/x/")
	if got := p.Description(); got != "" {
		t.Errorf("expected empty description, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", maxDescription+10)
	got := truncate(long)
	if len([]rune(got)) != maxDescription+1 {
		t.Errorf("truncated length = %d", len([]rune(got)))
	}
	if truncate("short") != "short" {
		t.Error("short text must be unchanged")
	}
}

func TestSearchURL(t *testing.T) {
	got := SearchURL(siteBase+"/", "kids tracker & more")
	want := siteBase + "/?post_type=app_release&searchtype=apk&s=kids+tracker+%26+more"
	if got != want {
		t.Errorf("SearchURL = %q, want %q", got, want)
	}
}
