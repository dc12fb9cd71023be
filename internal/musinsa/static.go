package musinsa

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minsu-lab/mstrack/internal/httputil"
	"github.com/minsu-lab/mstrack/internal/models"
	"golang.org/x/net/html"
)

// StaticPageStrategy fetches raw HTML and reads the product state the
// server embeds in an inline script. Musinsa renders the state blob
// server-side, so most detail pages never need a browser.
type StaticPageStrategy struct {
	client *http.Client
}

func NewStaticPageStrategy(client *http.Client) *StaticPageStrategy {
	return &StaticPageStrategy{client: client}
}

func (s *StaticPageStrategy) Name() string { return "static" }

func (s *StaticPageStrategy) Execute(ctx context.Context, req Request) (*Result, error) {
	switch req.Type {
	case ProductDetailRequest:
		return s.productDetail(ctx, req)
	default:
		return nil, fmt.Errorf("static strategy does not support request type %d", req.Type)
	}
}

func (s *StaticPageStrategy) productDetail(ctx context.Context, req Request) (*Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", req.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range httputil.BrowserHeaders() {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Referer", httputil.PageReferer(req.CategoryCode))

	resp, err := httputil.DoWithRetry(s.client, httpReq, 2)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product page returned %d", resp.StatusCode)
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	scripts, err := collectInlineScripts(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse product page: %w", err)
	}

	snap, err := snapshotFromScripts(req.URL, scripts, time.Now())
	if err != nil {
		return nil, err
	}
	snap.Strategy = s.Name()

	return &Result{
		Products: []models.ProductSnapshot{*snap},
		Strategy: s.Name(),
	}, nil
}

// collectInlineScripts walks the HTML tree and returns the body of every
// inline <script> tag.
func collectInlineScripts(htmlContent string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var scripts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			external := false
			for _, attr := range n.Attr {
				if attr.Key == "src" && attr.Val != "" {
					external = true
				}
			}
			if !external && n.FirstChild != nil {
				scripts = append(scripts, n.FirstChild.Data)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return scripts, nil
}
