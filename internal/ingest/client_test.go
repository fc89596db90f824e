package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"termcal/internal/model"
)

func parserStub(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/api/parse", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.NotEmpty(t, r.MultipartForm.File["files"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.TermPayload{
			Courses: []model.Course{{ID: "c1", Name: "Algorithms"}},
		})
	}))
}

func TestParseAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := parserStub(t, &hits)
	defer srv.Close()

	c := NewClient(srv.URL, t.TempDir())
	uploads := []Upload{{Filename: "syllabus.pdf", Data: []byte("fake pdf bytes")}}

	res, err := c.Parse(context.Background(), uploads)
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Len(t, res.Payload.Courses, 1)
	require.Equal(t, "c1", res.Payload.Courses[0].ID)

	// Same content: served from the disk cache, no second upstream call.
	res, err = c.Parse(context.Background(), uploads)
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, int32(1), hits.Load())

	// Different content misses the cache.
	_, err = c.Parse(context.Background(), []Upload{{Filename: "other.pdf", Data: []byte("different")}})
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestParseUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "parser exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, t.TempDir())
	_, err := c.Parse(context.Background(), []Upload{{Filename: "a.pdf", Data: []byte("x")}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parser exploded")
}

func TestParsePreconditions(t *testing.T) {
	c := NewClient("", t.TempDir())
	_, err := c.Parse(context.Background(), []Upload{{Filename: "a.pdf", Data: []byte("x")}})
	require.Error(t, err)

	c = NewClient("http://localhost:1", t.TempDir())
	_, err = c.Parse(context.Background(), nil)
	require.Error(t, err)
}

func TestParseToleratesSparseRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Courses without ids or names, blocks without weekday sets: the
		// payload decodes as-is, the engine copes downstream.
		_, _ = w.Write([]byte(`{"courses":[{"meeting_blocks":[{"start_local":"10:00"}],"assessments":[]}],"study_tasks":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, t.TempDir())
	res, err := c.Parse(context.Background(), []Upload{{Filename: "a.pdf", Data: []byte("x")}})
	require.NoError(t, err)
	require.Len(t, res.Payload.Courses, 1)
	require.Empty(t, res.Payload.Courses[0].ID)
}
