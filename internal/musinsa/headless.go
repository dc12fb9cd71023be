package musinsa

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/minsu-lab/mstrack/internal/models"
)

// HeadlessBrowserStrategy drives a real Chromium through rod. It is the
// only strategy that can crawl category listings, which render through
// JS and paginate by infinite scroll, and it doubles as the fallback for
// detail pages the static fetch cannot read.
type HeadlessBrowserStrategy struct {
	launcherURL string // optional remote launcher URL
	userAgent   string
	listing     ListingOptions
	navTimeout  time.Duration
}

func NewHeadlessBrowserStrategy(userAgent string, listing ListingOptions) *HeadlessBrowserStrategy {
	return &HeadlessBrowserStrategy{
		userAgent:  userAgent,
		listing:    listing,
		navTimeout: 60 * time.Second,
	}
}

func (h *HeadlessBrowserStrategy) Name() string { return "headless" }

func (h *HeadlessBrowserStrategy) Execute(ctx context.Context, req Request) (*Result, error) {
	switch req.Type {
	case ProductDetailRequest:
		return h.productDetail(ctx, req)
	case CategoryListingRequest:
		return h.categoryListing(ctx, req)
	default:
		return nil, fmt.Errorf("headless strategy does not support request type %d", req.Type)
	}
}

func (h *HeadlessBrowserStrategy) productDetail(ctx context.Context, req Request) (*Result, error) {
	page, cleanup, err := h.openPage(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Wait for page to stabilize
	timedPage := page.Context(ctx).Timeout(h.navTimeout)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	scripts, err := inlineScripts(page)
	if err != nil {
		return nil, fmt.Errorf("collect inline scripts: %w", err)
	}

	snap, err := snapshotFromScripts(req.URL, scripts, time.Now())
	if err != nil {
		return nil, err
	}
	snap.Strategy = h.Name()

	return &Result{
		Products: []models.ProductSnapshot{*snap},
		Strategy: h.Name(),
	}, nil
}

func (h *HeadlessBrowserStrategy) categoryListing(ctx context.Context, req Request) (*Result, error) {
	page, cleanup, err := h.openPage(ctx, CategoryURL(req.CategoryCode))
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts := h.listing
	if req.Target > 0 {
		opts.Target = req.Target
	}

	products, outcome, err := collectListing(ctx, &rodListingPage{page: page}, req.CategoryCode, req.CategoryName, opts, time.Now)
	if err != nil {
		return nil, err
	}

	return &Result{
		Products: products,
		Outcome:  outcome,
		Strategy: h.Name(),
	}, nil
}

// RenderedHTML navigates to a page, lets the JS settle and returns the
// final serialized DOM.
func (h *HeadlessBrowserStrategy) RenderedHTML(ctx context.Context, pageURL string) (string, error) {
	page, cleanup, err := h.openPage(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer cleanup()

	timedPage := page.Context(ctx).Timeout(h.navTimeout)
	if err := timedPage.WaitStable(time.Second); err == nil {
		_ = timedPage.WaitDOMStable(2*time.Second, 0.1)
	}

	return page.HTML()
}

func (h *HeadlessBrowserStrategy) openPage(ctx context.Context, pageURL string) (*rod.Page, func(), error) {
	var l *launcher.Launcher
	if h.launcherURL != "" {
		l = launcher.MustNewManaged(h.launcherURL)
	} else {
		l = launcher.New().Headless(true).Logger(io.Discard)
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("open page: %w", err)
	}

	if h.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: h.userAgent}); err != nil {
			browser.Close()
			return nil, nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	// Set viewport to desktop size
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	})
	if err != nil {
		browser.Close()
		return nil, nil, fmt.Errorf("set viewport: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}

	return page, cleanup, nil
}

// inlineScripts returns the text of every inline <script> on the page.
func inlineScripts(page *rod.Page) ([]string, error) {
	result, err := page.Eval(`() => {
		const out = [];
		for (const s of document.querySelectorAll('script')) {
			if (!s.src && s.textContent) out.push(s.textContent);
		}
		return out;
	}`)
	if err != nil {
		return nil, err
	}

	var scripts []string
	for _, v := range result.Value.Arr() {
		scripts = append(scripts, v.Str())
	}
	return scripts, nil
}

// rodListingPage adapts a rod page to the ListingPage interface.
type rodListingPage struct {
	page *rod.Page
}

func (p *rodListingPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := p.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (p *rodListingPage) Elements(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodListingPage) ScrollToBottom() error {
	_, err := p.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (p *rodListingPage) Settle(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Attribute(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *rodElement) Text() string {
	t, err := e.el.Text()
	if err != nil {
		return ""
	}
	return t
}

func (e *rodElement) Elements(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}
