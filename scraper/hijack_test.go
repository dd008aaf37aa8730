package scraper

import (
	"net/http"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestIsAdDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"pagead2.googlesyndication.com", true},
		{"SECURE.ADNXS.COM", true},
		{"www.apkmirror.com", false},
		{"downloadr2.apkmirror.com", false},
		{"net", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isAdDomain(tt.host); got != tt.want {
			t.Errorf("isAdDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestToHTTPCookies(t *testing.T) {
	in := []*proto.NetworkCookie{
		{Name: "cf_clearance", Value: "abc", Domain: ".apkmirror.com", Path: "/", Expires: 1893456000, Secure: true, HTTPOnly: true},
		{Name: "session", Value: "x", Domain: "www.apkmirror.com", Path: "/"},
	}

	out := toHTTPCookies(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(out))
	}

	want := &http.Cookie{Name: "cf_clearance", Value: "abc", Domain: ".apkmirror.com", Path: "/", Secure: true, HttpOnly: true}
	got := out[0]
	if got.Name != want.Name || got.Value != want.Value || got.Domain != want.Domain || !got.Secure || !got.HttpOnly {
		t.Errorf("unexpected cookie: %+v", got)
	}
	if got.Expires.Unix() != 1893456000 {
		t.Errorf("expires = %v", got.Expires)
	}
	if !out[1].Expires.IsZero() {
		t.Errorf("session cookie should not expire, got %v", out[1].Expires)
	}
}
