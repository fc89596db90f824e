package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"termcal/internal/model"
)

func payload() model.TermPayload {
	return model.TermPayload{
		Courses: []model.Course{{ID: "c1", Name: "Algorithms"}},
	}
}

func TestPutAndGet(t *testing.T) {
	s := New(time.Hour)

	a := s.Put(payload(), model.DefaultFilters())
	b := s.Put(payload(), model.DefaultFilters())
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, s.Len())

	got, ok := s.Get(a.ID)
	require.True(t, ok)
	require.Equal(t, "c1", got.Payload.Courses[0].ID)

	_, ok = s.Get("nope")
	require.False(t, ok)
}

func TestGetNeverReturnsExpired(t *testing.T) {
	s := New(-time.Second)
	term := s.Put(payload(), model.DefaultFilters())

	_, ok := s.Get(term.ID)
	require.False(t, ok)
	// Still counted until the sweeper runs.
	require.Equal(t, 1, s.Len())
}

func TestSweep(t *testing.T) {
	s := New(-time.Second)
	s.Put(payload(), model.DefaultFilters())
	s.Put(payload(), model.DefaultFilters())

	removed := s.Sweep(time.Now())
	require.Equal(t, 2, removed)
	require.Equal(t, 0, s.Len())

	s = New(time.Hour)
	s.Put(payload(), model.DefaultFilters())
	require.Equal(t, 0, s.Sweep(time.Now()))
	require.Equal(t, 1, s.Len())
}
