// Package pubchem implements the PUG REST client used as the primary
// compound identity source.
package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
	"github.com/synthbench/reagent/pkg/errors"
)

// rateLimiter is a token-channel limiter refilled on a fixed interval.  PUG
// REST allows at most 5 requests per second per source.
type rateLimiter struct {
	tokens chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func newRateLimiter(rps int) *rateLimiter {
	if rps <= 0 {
		rps = 5
	}
	rl := &rateLimiter{
		tokens: make(chan struct{}, rps),
		stop:   make(chan struct{}),
	}
	for i := 0; i < rps; i++ {
		rl.tokens <- struct{}{}
	}
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(rps))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case rl.tokens <- struct{}{}:
				default:
				}
			case <-rl.stop:
				return
			}
		}
	}()
	return rl
}

func (rl *rateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *rateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// Client talks to the PUG REST and PUG View endpoints.  All lookups run
// under the configured per-request timeout; a name with no match is reported
// as CodeCompoundNotFound so callers can distinguish a definitive miss from a
// transport failure.
type Client struct {
	baseURL    string
	viewURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rateLimiter
	logger     logging.Logger
	metrics    *metrics.Metrics
}

// NewClient builds a Client from configuration.  logger and m may be nil.
func NewClient(cfg config.PubChemConfig, logger logging.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = config.DefaultPubChemBaseURL
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.DefaultPubChemTimeout
	}
	return &Client{
		baseURL:    base,
		viewURL:    strings.TrimSuffix(base, "/pug") + "/pug_view",
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		limiter:    newRateLimiter(cfg.RequestsPerSec),
		logger:     logger.Named("pubchem"),
		metrics:    m,
	}
}

// Close stops the rate limiter's refill goroutine.
func (c *Client) Close() {
	c.limiter.Close()
}

// FindCompound resolves a single name or CAS number to a full identity
// record.  The lookup chain is cids, then properties, then synonyms; a name
// containing hyphens that returns no hit is retried once with the hyphens
// removed.  Synonym and detail enrichment are best-effort and never fail the
// lookup.
func (c *Client) FindCompound(ctx context.Context, name string) (*reaction.Compound, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeInvalidParam, "empty compound name")
	}

	cid, err := c.findCID(ctx, name)
	if errors.IsCode(err, errors.CodeCompoundNotFound) && strings.Contains(name, "-") && !isCASNumber(name) {
		// Hyphenation differences are the most common miss cause.
		retry := strings.ReplaceAll(name, "-", " ")
		c.logger.Debug("retrying lookup without hyphens",
			logging.String("name", name), logging.String("retry", retry))
		cid, err = c.findCID(ctx, retry)
	}
	if err != nil {
		c.observe(err)
		return nil, err
	}

	compound, err := c.fetchProperties(ctx, cid)
	if err != nil {
		c.observe(err)
		return nil, err
	}

	if synonyms, serr := c.fetchSynonyms(ctx, cid); serr == nil {
		compound.Synonyms = synonyms
		compound.CASNumber = firstCAS(synonyms)
	} else {
		c.logger.Debug("synonym fetch failed", logging.Int("cid", cid), logging.Err(serr))
	}
	c.enrichFromView(ctx, compound)

	c.observe(nil)
	c.logger.Debug("compound resolved",
		logging.String("name", name),
		logging.Int("cid", compound.CID),
		logging.Float64("molar_mass", compound.MolarMass))
	return compound, nil
}

func (c *Client) observe(err error) {
	if c.metrics == nil {
		return
	}
	switch {
	case err == nil:
		c.metrics.CompoundLookups.WithLabelValues(metrics.OutcomeHit).Inc()
	case errors.IsNotFound(err):
		c.metrics.CompoundLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
	default:
		c.metrics.CompoundLookups.WithLabelValues(metrics.OutcomeError).Inc()
	}
}

type cidResponse struct {
	IdentifierList struct {
		CID []int `json:"CID"`
	} `json:"IdentifierList"`
}

func (c *Client) findCID(ctx context.Context, name string) (int, error) {
	endpoint := fmt.Sprintf("%s/compound/name/%s/cids/JSON", c.baseURL, url.PathEscape(name))
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	if body == nil {
		return 0, errors.Newf(errors.CodeCompoundNotFound, "no compound found for %q", name)
	}
	var resp cidResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errors.Wrap(err, errors.CodeDataSourceParseError, "decoding cid response")
	}
	if len(resp.IdentifierList.CID) == 0 {
		return 0, errors.Newf(errors.CodeCompoundNotFound, "no compound found for %q", name)
	}
	return resp.IdentifierList.CID[0], nil
}

// flexFloat tolerates PUG REST returning numeric properties as either JSON
// numbers or strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type propertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int       `json:"CID"`
			MolecularFormula string    `json:"MolecularFormula"`
			MolecularWeight  flexFloat `json:"MolecularWeight"`
			IUPACName        string    `json:"IUPACName"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

func (c *Client) fetchProperties(ctx context.Context, cid int) (*reaction.Compound, error) {
	endpoint := fmt.Sprintf("%s/compound/cid/%d/property/MolecularFormula,MolecularWeight,IUPACName/JSON", c.baseURL, cid)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.Newf(errors.CodeCompoundNotFound, "no properties for CID %d", cid)
	}
	var resp propertyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.CodeDataSourceParseError, "decoding property response")
	}
	if len(resp.PropertyTable.Properties) == 0 {
		return nil, errors.Newf(errors.CodeCompoundNotFound, "no properties for CID %d", cid)
	}
	p := resp.PropertyTable.Properties[0]
	return &reaction.Compound{
		CID:           p.CID,
		CanonicalName: p.IUPACName,
		Formula:       p.MolecularFormula,
		MolarMass:     float64(p.MolecularWeight),
	}, nil
}

type synonymResponse struct {
	InformationList struct {
		Information []struct {
			Synonym []string `json:"Synonym"`
		} `json:"Information"`
	} `json:"InformationList"`
}

const maxSynonyms = 20

func (c *Client) fetchSynonyms(ctx context.Context, cid int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/compound/cid/%d/synonyms/JSON", c.baseURL, cid)
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var resp synonymResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.CodeDataSourceParseError, "decoding synonym response")
	}
	if len(resp.InformationList.Information) == 0 {
		return nil, nil
	}
	synonyms := resp.InformationList.Information[0].Synonym
	if len(synonyms) > maxSynonyms {
		synonyms = synonyms[:maxSynonyms]
	}
	return synonyms, nil
}

var casPattern = regexp.MustCompile(`^\d{2,7}-\d{2}-\d$`)

func isCASNumber(s string) bool {
	return casPattern.MatchString(strings.TrimSpace(s))
}

func firstCAS(synonyms []string) string {
	for _, s := range synonyms {
		if isCASNumber(s) {
			return s
		}
	}
	return ""
}

// get issues one rate-limited request with the per-call timeout applied.  A
// 404 returns (nil, nil): PUG REST uses it for "no such compound", which is
// an answer, not a failure.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CodeTimeout, "waiting for rate limiter")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(err, errors.CodeTimeout, "compound database request timed out")
		}
		return nil, errors.Wrap(err, errors.CodeDataSourceUnavailable, "compound database unreachable")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, errors.Newf(errors.CodeDataSourceRateLimited, "compound database throttled (status %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Newf(errors.CodeDataSourceUnavailable, "compound database returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDataSourceUnavailable, "reading response body")
	}
	return body, nil
}
