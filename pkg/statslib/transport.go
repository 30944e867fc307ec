package statslib

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
)

// freshnessTransport rewrites the caching headers of successful upstream
// responses so the cache above it keeps them for ttl. 304s are stamped too:
// httpcache copies their headers onto the entry it revalidated.
type freshnessTransport struct {
	base http.RoundTripper
	ttl  time.Duration
}

func (t *freshnessTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if (resp.StatusCode < 200 || resp.StatusCode > 299) && resp.StatusCode != http.StatusNotModified {
		return resp, nil
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(t.ttl.Seconds())))
	resp.Header.Del("Expires")
	if resp.Header.Get("Date") == "" {
		resp.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}
	return resp, nil
}

// cacheTransport reads every body to EOF so httpcache stores it even when the
// caller stops reading once it has decoded a JSON value.
type cacheTransport struct {
	cache *httpcache.Transport
}

func newCacheTransport(base http.RoundTripper, cache httpcache.Cache, ttl time.Duration) *cacheTransport {
	return &cacheTransport{
		cache: &httpcache.Transport{
			Transport:           &freshnessTransport{base: base, ttl: ttl},
			Cache:               cache,
			MarkCachedResponses: true,
		},
	}
}

func (t *cacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cache.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func fromCache(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(httpcache.XFromCache) == "1"
}
