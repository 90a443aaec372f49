// Static dataset pools, generated offline and loaded from --data-dir:
// career stat lines, team-season rosters, and the lineup player pool.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type CareerSeason struct {
	Season string  `json:"season"`
	Team   string  `json:"team"`
	GP     int     `json:"gp"`
	Min    float64 `json:"min"`
	Pts    float64 `json:"pts"`
	Reb    float64 `json:"reb"`
	Ast    float64 `json:"ast"`
	Stl    float64 `json:"stl"`
	Blk    float64 `json:"blk"`
	FGPct  float64 `json:"fg_pct"`
	FG3Pct float64 `json:"fg3_pct"`
}

type CareerBio struct {
	Height    string `json:"height"`
	Weight    int    `json:"weight"`
	School    string `json:"school"`
	Exp       int    `json:"exp"`
	DraftYear int    `json:"draft_year"`
}

type Career struct {
	PlayerID   int            `json:"player_id"`
	PlayerName string         `json:"player_name"`
	Seasons    []CareerSeason `json:"seasons"`
	Bio        CareerBio      `json:"bio"`
}

type RosterPlayer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type Roster struct {
	Team    string         `json:"team"`
	Season  string         `json:"season"`
	Players []RosterPlayer `json:"players"`
}

type PoolPlayer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// datasetCache loads each pool at most once and shares it across all
// sessions of all game modes. A failed load is not cached: the next
// request retries, so a pool dropped into --data-dir while the server is
// running becomes available without a restart.
type datasetCache struct {
	dir string

	mu      sync.Mutex
	careers map[string][]Career
	rosters map[string]*Roster
	pools   map[string][]PoolPlayer
}

func newDatasetCache(dir string) *datasetCache {
	return &datasetCache{
		dir:     dir,
		careers: make(map[string][]Career),
		rosters: make(map[string]*Roster),
		pools:   make(map[string][]PoolPlayer),
	}
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Careers returns the career pool for a league ("nba", "nfl").
func (dc *datasetCache) Careers(league string) ([]Career, error) {
	league = strings.ToLower(league)

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if cached, ok := dc.careers[league]; ok {
		return cached, nil
	}

	var careers []Career
	if err := loadJSON(filepath.Join(dc.dir, league+"_careers.json"), &careers); err != nil {
		return nil, err
	}
	if len(careers) == 0 {
		return nil, fmt.Errorf("career pool for %q is empty", league)
	}

	dc.careers[league] = careers
	return careers, nil
}

// Roster returns one team-season roster, e.g. Roster("LAL", "2009-10").
// File names use historical abbreviations, matching the generator output.
func (dc *datasetCache) Roster(team, season string) (*Roster, error) {
	key := strings.ToUpper(team) + "_" + season

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if cached, ok := dc.rosters[key]; ok {
		return cached, nil
	}

	roster := &Roster{}
	if err := loadJSON(filepath.Join(dc.dir, "rosters", key+".json"), roster); err != nil {
		return nil, err
	}
	if len(roster.Players) == 0 {
		return nil, fmt.Errorf("roster %s is empty", key)
	}

	dc.rosters[key] = roster
	return roster, nil
}

// LineupPool returns the slot-eligible player pool for a league.
func (dc *datasetCache) LineupPool(league string) ([]PoolPlayer, error) {
	league = strings.ToLower(league)

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if cached, ok := dc.pools[league]; ok {
		return cached, nil
	}

	var pool []PoolPlayer
	if err := loadJSON(filepath.Join(dc.dir, league+"_lineup_pool.json"), &pool); err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("lineup pool for %q is empty", league)
	}

	dc.pools[league] = pool
	return pool, nil
}
