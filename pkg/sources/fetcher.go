package sources

import (
	"fmt"
	"strings"
	"sync"
)

// fetcherRegistry implements FetcherRegistry keyed by source kind.
type fetcherRegistry struct {
	mu     sync.RWMutex
	byKind map[string]Fetcher
}

// NewFetcherRegistry builds a registry from the given fetchers.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{byKind: make(map[string]Fetcher)}
	for _, f := range fetchers {
		reg.register(f)
	}
	return reg
}

func (r *fetcherRegistry) register(f Fetcher) {
	if f == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(f.Kind()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.byKind[key] = f
	r.mu.Unlock()
}

// FetcherFor selects the fetcher for the source kind.
func (r *fetcherRegistry) FetcherFor(src Source) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(src.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.byKind[strings.ToLower(strings.TrimSpace(src.Kind))]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for source %q (kind %q)", src.ID, src.Kind)
}

// DefaultFetcherRegistry wires the album and image fetchers onto one client.
func DefaultFetcherRegistry(api ImgurAPI) FetcherRegistry {
	return NewFetcherRegistry(NewAlbumFetcher(api), NewImageFetcher(api))
}
