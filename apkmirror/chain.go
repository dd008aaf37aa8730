package apkmirror

import (
	"context"
	"errors"
	"log/slog"

	"github.com/use-agent/apkscout/engine"
	"github.com/use-agent/apkscout/models"
)

// State is a position in the page walk from a detail page to a direct link.
type State int

const (
	AtDetail State = iota
	AtVariant
	AtDownloadPage
	AtFinalPage
	Resolved
	Unresolved
)

func (s State) String() string {
	switch s {
	case AtDetail:
		return "detail"
	case AtVariant:
		return "variant"
	case AtDownloadPage:
		return "download_page"
	case AtFinalPage:
		return "final_page"
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Limiter blocks until the next outbound request may be sent.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ChainResult records where a walk ended and the pages it visited.
type ChainResult struct {
	State       State
	URL         string
	Description string
	Hops        []string
}

// Chain walks detail → (variant) → download page → final page for one
// candidate. Every fetch waits on the limiter first.
type Chain struct {
	fetch   engine.Fetcher
	limiter Limiter
	baseURL string
}

// NewChain creates a Chain. Relative links resolve against baseURL.
func NewChain(fetch engine.Fetcher, limiter Limiter, baseURL string) *Chain {
	return &Chain{fetch: fetch, limiter: limiter, baseURL: baseURL}
}

// Run walks the chain starting at detailURL.
//
// The result is never nil. A page that lacks the expected element ends the
// walk as Unresolved with a nil error. Fetch failures also end it as
// Unresolved and are returned as the error so the caller can tell a dead
// page from a blocked session.
func (c *Chain) Run(ctx context.Context, detailURL string) (*ChainResult, error) {
	res := &ChainResult{State: AtDetail}
	next := detailURL

	for {
		if err := ctx.Err(); err != nil {
			res.State = Unresolved
			return res, models.NewResolveError(models.ErrCodeCanceled, "chain canceled", err)
		}

		switch res.State {
		case AtDetail:
			page, err := c.visit(ctx, res, next)
			if err != nil {
				return c.fail(res, err)
			}
			res.Description = page.Description()
			if btn, err := page.DetailButton(); err == nil {
				res.State, next = AtDownloadPage, btn
				continue
			}
			variant, err := page.VariantLink()
			if err != nil {
				return c.miss(res, err)
			}
			res.State, next = AtVariant, variant

		case AtVariant:
			page, err := c.visit(ctx, res, next)
			if err != nil {
				return c.fail(res, err)
			}
			btn, err := page.DownloadButton()
			if err != nil {
				return c.miss(res, err)
			}
			res.State, next = AtDownloadPage, btn

		case AtDownloadPage:
			page, err := c.visit(ctx, res, next)
			if err != nil {
				return c.fail(res, err)
			}
			res.State = AtFinalPage
			link, err := page.TerminalLink()
			if err != nil {
				return c.miss(res, err)
			}
			res.State, res.URL = Resolved, link
			return res, nil

		default:
			return res, nil
		}
	}
}

// visit rate-limits, fetches and parses one page.
func (c *Chain) visit(ctx context.Context, res *ChainResult, pageURL string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewResolveError(models.ErrCodeCanceled, "rate limiter wait aborted", err)
	}
	res.Hops = append(res.Hops, pageURL)

	fr, err := c.fetch.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	served := fr.FinalURL
	if served == "" {
		served = pageURL
	}
	page, err := ParsePage(fr.HTML, served, c.baseURL)
	if err != nil {
		return nil, models.NewResolveError(models.ErrCodeTransport, "unparseable page", err)
	}
	return page, nil
}

func (c *Chain) fail(res *ChainResult, err error) (*ChainResult, error) {
	at := res.State
	res.State = Unresolved
	var re *models.ResolveError
	if !errors.As(err, &re) {
		err = models.NewResolveError(models.ErrCodeTransport, "fetch failed", err)
	}
	slog.Warn("chain fetch failed", "state", at.String(), "hops", len(res.Hops), "error", err)
	return res, err
}

func (c *Chain) miss(res *ChainResult, err error) (*ChainResult, error) {
	slog.Info("chain unresolved", "state", res.State.String(), "reason", err)
	res.State = Unresolved
	return res, nil
}
