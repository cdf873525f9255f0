package charts

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

// catalogIndexItem is the well-known item path of the airport chart index.
const catalogIndexItem = "charts.json"

// URLResolver resolves a provider item path to a short-lived signed URL.
// Resolution requires a live access token; HasToken reports whether one is
// currently held.
type URLResolver interface {
	HasToken() bool
	ResolveSignedURL(ctx context.Context, icao, item string) (string, error)
}

// Catalog fetches and normalises an airport's chart index. It holds no
// state of its own; both the index and individual images go through the
// resolver's signed-URL capability.
type Catalog struct {
	resolver   URLResolver
	httpClient *http.Client
}

// CatalogOption modifies a Catalog instance.
type CatalogOption func(*Catalog)

// WithCatalogHTTPClient sets the client used to fetch pre-signed URLs.
func WithCatalogHTTPClient(client *http.Client) CatalogOption {
	return func(c *Catalog) {
		c.httpClient = client
	}
}

func NewCatalog(resolver URLResolver, options ...CatalogOption) *Catalog {
	catalog := &Catalog{
		resolver:   resolver,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(catalog)
	}
	return catalog
}

// Fetch returns the airport's charts partitioned into the four buckets.
// Chart access is a convenience feature: an unauthenticated session or any
// fetch failure yields empty buckets rather than an error. Without a token
// no network call is made at all.
func (c *Catalog) Fetch(ctx context.Context, icao string) AirportCharts {
	if !c.resolver.HasToken() {
		return AirportCharts{}
	}

	ac, err := c.fetch(ctx, icao)
	if err != nil {
		log.Debug().Err(err).Str("icao", icao).Msg("catalog fetch failed")
		return AirportCharts{}
	}

	log.Debug().Str("icao", icao).Int("charts", ac.Total()).Msg("catalog fetched")
	return ac
}

func (c *Catalog) fetch(ctx context.Context, icao string) (AirportCharts, error) {
	indexURL, err := c.resolver.ResolveSignedURL(ctx, icao, catalogIndexItem)
	if err != nil {
		return AirportCharts{}, errors.Wrapf(err, "[Catalog.fetch] resolve index")
	}

	// The index URL is pre-signed: no Authorization header.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return AirportCharts{}, errors.Wrapf(err, "[Catalog.fetch] build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AirportCharts{}, errors.Wrapf(err, "[Catalog.fetch] fetch index")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AirportCharts{}, errors.Wrapf(errors.ErrUnexpectedStatus, "[Catalog.fetch] index status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AirportCharts{}, errors.Wrapf(err, "[Catalog.fetch] read index")
	}

	records, err := DecodeCatalog(body)
	if err != nil {
		return AirportCharts{}, errors.Wrapf(err, "[Catalog.fetch] decode index")
	}

	return Partition(records), nil
}
