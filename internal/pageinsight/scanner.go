package pageinsight

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	maxResources     = 200
	maxResourceBytes = 10 << 20 // 10 MB
)

// Sample is the aggregate cost of downloading a page's subresources.
type Sample struct {
	Requests int
	Bytes    int64
}

// ResourceSampler downloads subresources with a reusable HTTP client.
type ResourceSampler struct {
	client      *http.Client
	concurrency int
}

// NewResourceSampler returns a ResourceSampler with a 10s per-resource timeout
// that blocks connections to private/reserved IP ranges. The concurrency
// parameter controls the worker pool size.
func NewResourceSampler(concurrency int) *ResourceSampler {
	return newResourceSampler(concurrency, safeTransport(concurrency))
}

func newResourceSampler(concurrency int, transport http.RoundTripper) *ResourceSampler {
	return &ResourceSampler{
		concurrency: concurrency,
		client: &http.Client{
			Timeout:       10 * time.Second,
			Transport:     transport,
			CheckRedirect: safeRedirectPolicy,
		},
	}
}

// fetchResource downloads one resource and returns the number of body bytes
// received. A failed request counts as zero bytes.
func (s *ResourceSampler) fetchResource(ctx context.Context, link string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0
	}
	defer func() { _ = resp.Body.Close() }()

	n, _ := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResourceBytes))
	return n
}

// Sample downloads the given resources concurrently using a pool of worker
// goroutines sized by the configured concurrency. At most 200 resources are
// requested; every attempted request counts, failed or not.
func (s *ResourceSampler) Sample(ctx context.Context, links []string) Sample {
	limit := min(len(links), maxResources)
	links = links[:limit]

	if limit == 0 {
		return Sample{}
	}

	jobs := make(chan string, limit)
	results := make(chan int64, limit)

	numWorkers := min(limit, s.concurrency)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for link := range jobs {
				results <- s.fetchResource(ctx, link)
			}
		})
	}

	for _, link := range links {
		jobs <- link
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var out Sample
	for n := range results {
		out.Requests++
		out.Bytes += n
	}

	return out
}
