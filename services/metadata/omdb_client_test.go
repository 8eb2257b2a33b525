package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/time/rate"
)

// newTestOMDBClient points a client at a fake OMDb server with no rate limit.
func newTestOMDBClient(t *testing.T, handler http.HandlerFunc, cache *fileCache) *omdbClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := newOMDBClient("test-key", srv.Client(), cache)
	c.baseURL = srv.URL + "/"
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestLookupExact_Match(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Inception", r.URL.Query().Get("t"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(`{"Response":"True","Title":"Inception","Year":"2010","Director":"Christopher Nolan","Poster":"https://img/inception.jpg","imdbRating":"8.8"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "Inception", 0)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Inception", meta.Title)
	assert.Equal(t, "Christopher Nolan", meta.Director)
	assert.Equal(t, 2010, meta.Year)
	assert.Equal(t, "https://img/inception.jpg", meta.PosterURL)
	assert.InDelta(t, 8.8, meta.Rating, 1e-9)
}

func TestLookupExact_TitleMismatchIsNotFound(t *testing.T) {
	// The provider happily returns a substring match; an exact-name miss must
	// not be accepted even though Response is "True".
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Title":"Inception: The Cobol Job","Year":"2010","Director":"Ian Kirby"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "Inception", 0)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLookupExact_CaseInsensitiveMatch(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Title":"Inception","Year":"2010"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "inception", 0)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Inception", meta.Title)
}

func TestLookupExact_YearFilterSent(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2021", r.URL.Query().Get("y"))
		w.Write([]byte(`{"Response":"True","Title":"Dune","Year":"2021","Director":"Denis Villeneuve"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "Dune", 2021)
	require.NoError(t, err)
	require.NotNil(t, meta)
}

func TestLookupExact_DefensiveParsing(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Title":"Obscurity","Year":"N/A","Director":"N/A","Poster":"N/A","imdbRating":"N/A"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "Obscurity", 0)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 0, meta.Year)
	assert.Equal(t, 0.0, meta.Rating)
	assert.Equal(t, PlaceholderPosterURL, meta.PosterURL)
	// The director sentinel is the caller's to substitute.
	assert.Equal(t, "N/A", meta.Director)
}

func TestLookupExact_ProviderErrorSurfaces(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	_, err := c.lookupExact(context.Background(), "Anything", 0)
	assert.Error(t, err)
}

func TestLookupExact_NotFoundResponse(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}, nil)

	meta, err := c.lookupExact(context.Background(), "No Such Film", 0)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLookupExact_UsesCache(t *testing.T) {
	calls := 0
	cache := newFileCache(t.TempDir(), time.Hour)
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"Response":"True","Title":"Heat","Year":"1995","Director":"Michael Mann"}`))
	}, cache)

	for i := 0; i < 2; i++ {
		meta, err := c.lookupExact(context.Background(), "Heat", 0)
		require.NoError(t, err)
		require.NotNil(t, meta)
	}
	assert.Equal(t, 1, calls, "second lookup should come from cache")
}

func TestLookupByID(t *testing.T) {
	var gotID string
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("i")
		w.Write([]byte(`{"Response":"True","Title":"Heat","Year":"1995","Director":"Michael Mann","imdbRating":"8.3","Poster":"N/A"}`))
	}, nil)

	meta, err := c.lookupByID(context.Background(), "tt0113277")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "tt0113277", gotID)
	assert.Equal(t, "Heat", meta.Title)
	assert.Equal(t, 1995, meta.Year)
	assert.Equal(t, PlaceholderPosterURL, meta.PosterURL)
}

func TestLookupByID_UnknownID(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}, nil)

	meta, err := c.lookupByID(context.Background(), "tt9999999")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLookupByID_UsesCache(t *testing.T) {
	calls := 0
	cache := newFileCache(t.TempDir(), time.Hour)
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"Response":"True","Title":"Heat","Year":"1995","Director":"Michael Mann"}`))
	}, cache)

	for i := 0; i < 2; i++ {
		meta, err := c.lookupByID(context.Background(), "tt0113277")
		require.NoError(t, err)
		require.NotNil(t, meta)
	}
	assert.Equal(t, 1, calls, "second lookup should come from cache")
}

func TestSearch_PadsShortQueries(t *testing.T) {
	var gotQuery string
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("s")
		w.Write([]byte(`{"Response":"True","Search":[{"Title":"Up"},{"Title":"Up in the Air"}]}`))
	}, nil)

	titles, err := c.search(context.Background(), "Up")
	require.NoError(t, err)
	assert.Equal(t, "Up  ", gotQuery)
	assert.Equal(t, []string{"Up", "Up in the Air"}, titles)
}

func TestSearch_PadsCountsRunesNotBytes(t *testing.T) {
	var gotQuery string
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("s")
		w.Write([]byte(`{"Response":"True","Search":[{"Title":"Crouching Tiger, Hidden Dragon"}]}`))
	}, nil)

	// Two runes but six bytes; still short enough to need padding.
	_, err := c.search(context.Background(), "武侠")
	require.NoError(t, err)
	assert.Equal(t, "武侠  ", gotQuery)

	// Three runes stay unpadded.
	_, err = c.search(context.Background(), "七人の")
	require.NoError(t, err)
	assert.Equal(t, "七人の", gotQuery)
}

func TestSearch_CapsAtFiveTitles(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"True","Search":[{"Title":"A"},{"Title":"B"},{"Title":"C"},{"Title":"D"},{"Title":"E"},{"Title":"F"},{"Title":"G"}]}`))
	}, nil)

	titles, err := c.search(context.Background(), "letters")
	require.NoError(t, err)
	assert.Len(t, titles, 5)
}

func TestSearch_NoResults(t *testing.T) {
	c := newTestOMDBClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}, nil)

	titles, err := c.search(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestUnconfiguredClientIsInert(t *testing.T) {
	c := newOMDBClient("", nil, nil)

	meta, err := c.lookupExact(context.Background(), "Inception", 0)
	require.NoError(t, err)
	assert.Nil(t, meta)

	titles, err := c.search(context.Background(), "Inception")
	require.NoError(t, err)
	assert.Empty(t, titles)
}
