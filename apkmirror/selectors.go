package apkmirror

import "github.com/andybalholm/cascadia"

// Markup contract of the listing site. Compiled once; cascadia selectors are
// safe for concurrent use.
var (
	selAppRow      = cascadia.MustCompile("div.appRow")
	selRowTitle    = cascadia.MustCompile("h5.appRowTitle")
	selAnchor      = cascadia.MustCompile("a")
	selDeveloper   = cascadia.MustCompile("a.byDeveloper")
	selTagIcon     = cascadia.MustCompile("svg.tag-icon")
	selDownloadBtn = cascadia.MustCompile("a.downloadButton")
	selTerminal    = cascadia.MustCompile(`a[rel="nofollow"][data-google-interstitial="false"]`)
	selDescription = cascadia.MustCompile("#description .notes")
)

const (
	// terminalPath marks the final redirector that serves the package.
	terminalPath = "/wp-content/themes/APKMirror/download.php"

	// variantClass is the class of the anchor wrapping a variant tag icon.
	variantClass = "accent_color"

	// downloadsAnchor is the in-page jump some detail-page buttons point at.
	downloadsAnchor = "downloads"

	searchPath = "/?post_type=app_release&searchtype=apk&s="
)
