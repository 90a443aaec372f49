package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestCareersCachesFirstLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nba_careers.json")
	writeDataset(t, path, `[{"player_id": 2544, "player_name": "LeBron James", "seasons": [{"season": "2003-04", "team": "CLE", "gp": 79, "min": 39.5, "pts": 20.9, "reb": 5.5, "ast": 5.9, "stl": 1.6, "blk": 0.7, "fg_pct": 0.417, "fg3_pct": 0.290}], "bio": {"height": "6-9", "weight": 250, "school": "St. Vincent-St. Mary HS (OH)", "exp": 21, "draft_year": 2003}}]`)

	dc := newDatasetCache(dir)

	careers, err := dc.Careers("NBA")
	require.NoError(t, err)
	require.Len(t, careers, 1)
	assert.Equal(t, "LeBron James", careers[0].PlayerName)
	assert.Equal(t, "CLE", careers[0].Seasons[0].Team)
	assert.Equal(t, 2003, careers[0].Bio.DraftYear)

	// Deleting the file must not matter once the pool is cached.
	require.NoError(t, os.Remove(path))

	careers, err = dc.Careers("nba")
	require.NoError(t, err)
	assert.Len(t, careers, 1)
}

func TestCareersRetriesFailedLoad(t *testing.T) {
	dir := t.TempDir()
	dc := newDatasetCache(dir)

	_, err := dc.Careers("nba")
	require.Error(t, err)

	writeDataset(t, filepath.Join(dir, "nba_careers.json"), `[{"player_id": 1, "player_name": "Test Player", "seasons": [], "bio": {}}]`)

	careers, err := dc.Careers("nba")
	require.NoError(t, err)
	assert.Len(t, careers, 1)
}

func TestCareersRejectsEmptyPool(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, filepath.Join(dir, "nba_careers.json"), `[]`)

	_, err := newDatasetCache(dir).Careers("nba")
	assert.ErrorContains(t, err, "empty")
}

func TestRosterKeying(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, filepath.Join(dir, "rosters", "LAL_2009-10.json"),
		`{"team": "LAL", "season": "2009-10", "players": [{"id": 977, "name": "Kobe Bryant", "position": "G"}]}`)

	dc := newDatasetCache(dir)

	roster, err := dc.Roster("lal", "2009-10")
	require.NoError(t, err)
	require.Len(t, roster.Players, 1)
	assert.Equal(t, "Kobe Bryant", roster.Players[0].Name)

	_, err = dc.Roster("LAL", "2010-11")
	assert.Error(t, err)
}

func TestLineupPool(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, filepath.Join(dir, "nba_lineup_pool.json"),
		`[{"id": 893, "name": "Michael Jordan", "position": "G"}, {"id": 76375, "name": "Larry Bird", "position": "F"}]`)

	pool, err := newDatasetCache(dir).LineupPool("nba")
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "G", pool[0].Position)
}
