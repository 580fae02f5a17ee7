package pubchem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/pkg/errors"
)

const (
	cidBody = `{"IdentifierList":{"CID":[702]}}`
	// MolecularWeight arrives as a string in current PUG REST responses.
	propertyBody = `{"PropertyTable":{"Properties":[{"CID":702,"MolecularFormula":"C2H6O","MolecularWeight":"46.07","IUPACName":"ethanol"}]}}`
	synonymBody  = `{"InformationList":{"Information":[{"CID":702,"Synonym":["ethanol","ethyl alcohol","64-17-5"]}]}}`
	densityBody  = `{"Record":{"Section":[{"TOCHeading":"Density","Information":[{"Value":{"StringWithMarkup":[{"String":"0.7893 g/cm3 at 20 °C"}]}}]}]}}`
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.PubChemConfig{
		BaseURL:        srv.URL + "/rest/pug",
		RequestTimeout: 2 * time.Second,
		RequestsPerSec: 100,
	}, nil, nil)
	t.Cleanup(c.Close)
	return c
}

func TestFindCompound_FullChain(t *testing.T) {
	var requests []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		switch {
		case strings.Contains(r.URL.Path, "/compound/name/ethanol/cids/"):
			w.Write([]byte(cidBody))
		case strings.Contains(r.URL.Path, "/property/"):
			w.Write([]byte(propertyBody))
		case strings.Contains(r.URL.Path, "/synonyms/"):
			w.Write([]byte(synonymBody))
		case strings.Contains(r.URL.Path, "/pug_view/"):
			if r.URL.Query().Get("heading") == "Density" {
				w.Write([]byte(densityBody))
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	compound, err := c.FindCompound(context.Background(), "ethanol")
	require.NoError(t, err)

	assert.Equal(t, 702, compound.CID)
	assert.Equal(t, "ethanol", compound.CanonicalName)
	assert.Equal(t, "C2H6O", compound.Formula)
	assert.InDelta(t, 46.07, compound.MolarMass, 1e-9)
	assert.Equal(t, "64-17-5", compound.CASNumber)
	assert.Contains(t, compound.Synonyms, "ethyl alcohol")
	require.NotNil(t, compound.Density)
	assert.InDelta(t, 0.7893, *compound.Density, 1e-9)
}

func TestFindCompound_NotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.FindCompound(context.Background(), "xyzzy")
	require.Error(t, err)
	assert.Equal(t, errors.CodeCompoundNotFound, errors.GetCode(err))
	assert.True(t, errors.IsNotFound(err))
}

func TestFindCompound_HyphenRetry(t *testing.T) {
	var names []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		switch {
		case strings.Contains(r.URL.Path, "/cids/"):
			name := parts[len(parts)-3]
			names = append(names, name)
			if name == "4 ethyl phenol" {
				w.Write([]byte(cidBody))
				return
			}
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "/property/"):
			w.Write([]byte(propertyBody))
		default:
			http.NotFound(w, r)
		}
	}))

	_, err := c.FindCompound(context.Background(), "4-ethyl-phenol")
	require.NoError(t, err)
	assert.Equal(t, []string{"4-ethyl-phenol", "4 ethyl phenol"}, names)
}

func TestFindCompound_NoHyphenRetryForCAS(t *testing.T) {
	var count int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/cids/") {
			count++
		}
		http.NotFound(w, r)
	}))

	_, err := c.FindCompound(context.Background(), "64-17-5")
	require.Error(t, err)
	assert.Equal(t, 1, count)
}

func TestFindCompound_SynonymFailureIsNotFatal(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/cids/"):
			w.Write([]byte(cidBody))
		case strings.Contains(r.URL.Path, "/property/"):
			w.Write([]byte(propertyBody))
		case strings.Contains(r.URL.Path, "/synonyms/"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))

	compound, err := c.FindCompound(context.Background(), "ethanol")
	require.NoError(t, err)
	assert.Empty(t, compound.Synonyms)
	assert.Empty(t, compound.CASNumber)
}

func TestFindCompound_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.FindCompound(context.Background(), "ethanol")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataSourceUnavailable, errors.GetCode(err))
	assert.True(t, errors.IsTransient(err))
}

func TestFindCompound_Throttled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.FindCompound(context.Background(), "ethanol")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataSourceRateLimited, errors.GetCode(err))
}

func TestFindCompound_MalformedJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"IdentifierList":`))
	}))

	_, err := c.FindCompound(context.Background(), "ethanol")
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataSourceParseError, errors.GetCode(err))
}

func TestFindCompound_EmptyName(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.FindCompound(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestRateLimiterRespectsContext(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	require.NoError(t, rl.Acquire(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Acquire(ctx), context.DeadlineExceeded)
}
