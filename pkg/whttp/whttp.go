// Package whttp fetches job application pages over HTTP.
package whttp

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jobease/jobfill/pkg/dom"
	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

// maxBody caps how much of a page is read.
const maxBody = 10 << 20

type Header struct {
	Name  string
	Value string
}

type Req struct {
	URL     string
	Method  string
	Headers []Header
}

type Res struct {
	StatusCode int
	// FinalURL is the URL after redirects; the page hostname comes from it.
	FinalURL string
	Title    string
	Body     string
}

// NewClient returns a retrying client that keeps quiet and optionally goes
// through proxy.
func NewClient(proxy string, retries int, timeout time.Duration) (*retryablehttp.Client, error) {
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = retries
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		client.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

// Send performs req and reads the whole body.
func Send(ctx context.Context, wReq *Req, client *retryablehttp.Client) (*Res, error) {
	method := wReq.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	res := &Res{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Body:       string(body),
	}
	if title, ok := htmlTitle(res.Body); ok {
		res.Title = strings.ToValidUTF8(strings.Join(strings.Fields(title), " "), "")
	}
	return res, nil
}

// FetchPage downloads pageURL and parses it into a page whose URL is the
// final URL after redirects.
func FetchPage(ctx context.Context, pageURL string, client *retryablehttp.Client) (*dom.Page, error) {
	res, err := Send(ctx, &Req{URL: pageURL}, client)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, res.StatusCode)
	}
	return dom.Parse(strings.NewReader(res.Body), res.FinalURL)
}

func htmlTitle(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title, ok := findTitle(c); ok {
			return title, ok
		}
	}
	return "", false
}
