package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/vidcat/internal/domain"
)

func openStores(t *testing.T) map[string]*HistoryDB {
	t.Helper()
	mem, err := NewHistoryDB("", "")
	require.NoError(t, err)
	disk, err := NewHistoryDB(t.TempDir(), "https://api.example.com/")
	require.NoError(t, err)
	t.Cleanup(func() {
		mem.Close()
		disk.Close()
	})
	return map[string]*HistoryDB{"memory": mem, "bolt": disk}
}

func TestRecordAndRecentPlays(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.RecordPlay(domain.PlayRecord{Key: "a", Name: "A.mp4", PlayedAt: base}))
			require.NoError(t, s.RecordPlay(domain.PlayRecord{Key: "b", Name: "B.mkv", PlayedAt: base.Add(time.Minute)}))
			require.NoError(t, s.RecordPlay(domain.PlayRecord{Key: "a", Name: "A.mp4", Prefix: "Movies/", PlayedAt: base.Add(2 * time.Minute)}))

			recs, err := s.RecentPlays(10)
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "a", recs[0].Key)
			assert.Equal(t, "Movies/", recs[0].Prefix)
			assert.Equal(t, "b", recs[1].Key)

			recs, err = s.RecentPlays(1)
			require.NoError(t, err)
			assert.Len(t, recs, 1)

			require.NoError(t, s.ClearHistory())
			recs, err = s.RecentPlays(10)
			require.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestRecordPlayTrimsOldest(t *testing.T) {
	s, err := NewHistoryDB("", "")
	require.NoError(t, err)
	s.maxRecords = 3

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordPlay(domain.PlayRecord{Key: fmt.Sprintf("k%d", i), PlayedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	recs, err := s.RecentPlays(0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "k4", recs[0].Key)
	assert.Equal(t, "k2", recs[2].Key)
}

func TestLocation(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := s.LastLocation()
			assert.False(t, ok)

			trail := []domain.Breadcrumb{{Label: "Movies", Prefix: "Movies/"}, {Label: "2024", Prefix: "Movies/2024/"}}
			require.NoError(t, s.SaveLocation(trail))
			got, ok := s.LastLocation()
			require.True(t, ok)
			assert.Equal(t, trail, got)

			require.NoError(t, s.SaveLocation(nil))
			got, ok = s.LastLocation()
			require.True(t, ok)
			assert.Empty(t, got)
		})
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewHistoryDB(dir, "https://api.example.com/")
	require.NoError(t, err)
	require.NoError(t, s.RecordPlay(domain.PlayRecord{Key: "a", Name: "A.mp4", PlayedAt: time.Now()}))
	require.NoError(t, s.SaveLocation([]domain.Breadcrumb{{Label: "Shows", Prefix: "Shows/"}}))
	require.NoError(t, s.Close())

	s, err = NewHistoryDB(dir, "https://API.example.com")
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.RecentPlays(10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "A.mp4", recs[0].Name)

	trail, ok := s.LastLocation()
	require.True(t, ok)
	assert.Equal(t, "Shows/", trail[0].Prefix)
}

func TestHashCatalogURLNormalises(t *testing.T) {
	assert.Equal(t, hashCatalogURL("https://api.example.com/"), hashCatalogURL("HTTPS://api.example.com"))
	assert.Len(t, hashCatalogURL("x"), 12)
}
