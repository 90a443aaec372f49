// Ball Knowledge Career
//
// A hidden player's career stat lines are revealed season by season. The
// first player to guess who it is scores; earlier guesses (fewer rows on
// the board) are worth more. Guesses are accepted through the fuzzy name
// matcher, so "Lebron Jame" and "T.J. Watt" spellings land.
//
// Rounds are started by the moderator; rows then reveal themselves on a
// timer (--reveal-interval) or when the moderator advances manually.

package main

import (
	"sort"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/ballknowledge/server/pkg/fuzzy"
)

// CareerStateMessage shows the board: the revealed season rows of the
// hidden player, never the name while the round is open.
type CareerStateMessage struct {
	Type     string         `json:"type"` // "career_state"
	Round    int            `json:"round"`
	Open     bool           `json:"open"`
	Revealed []CareerSeason `json:"revealed"`
	Total    int            `json:"total"` // total seasons in the career
	Answer   string         `json:"answer,omitempty"`
	Bio      *CareerBio     `json:"bio,omitempty"`
	Winner   string         `json:"winner,omitempty"`
	Points   int            `json:"points,omitempty"`
}

// GuessResultMessage informs everyone about a guess outcome.
type GuessResultMessage struct {
	Type    string `json:"type"` // "guess_result"
	Correct bool   `json:"correct"`
	Guesser string `json:"guesser"`
	Guess   string `json:"guess"`
}

type ScoreEntry struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
}

type ScoreboardMessage struct {
	Type   string       `json:"type"` // "scoreboard"
	Scores []ScoreEntry `json:"scores"`
}

type careerHub struct {
	lobby
	cfg      *Config
	datasets *datasetCache

	league   string
	round    int
	career   *Career
	revealed int
	open     bool
	winner   string
	won      int // points awarded this round

	scores map[string]int // playerID -> points
}

func newCareerHub(cfg *Config, datasets *datasetCache, gameID string) *careerHub {
	return &careerHub{
		lobby:    newLobby(gameID),
		cfg:      cfg,
		datasets: datasets,
		league:   "nba",
		scores:   make(map[string]int),
	}
}

func (h *careerHub) attach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, h.attachLocked(c))
	if h.career != nil {
		h.sendLocked(c, h.stateMessageLocked())
	}
	h.sendLocked(c, h.scoreboardLocked())
	h.broadcastPlayerListLocked()
}

func (h *careerHub) detach(c *client) {
	h.mu.Lock()
	h.touchLocked()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *careerHub) handle(c *client, msg clientMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "guess":
		h.handleGuess(c, msg)
	case "start_round", "reveal_row", "set_league", "lock_lobby", "kick":
		h.handleModCommand(c, msg)
	default:
	}
}

func (h *careerHub) handleJoin(c *client, msg clientMessage) {
	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.joinLocked(c, msg.Username) {
		return
	}

	logf(h.cfg, "GAMES: Player %q joined career/%s", msg.Username, h.id)
	h.broadcastPlayerListLocked()
}

func (h *careerHub) handleGuess(c *client, msg clientMessage) {
	guess := strings.TrimSpace(msg.Text)
	if guess == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	name, joined := h.names[c.playerID]
	if !joined || !h.open || h.career == nil {
		return
	}

	correct := fuzzy.SimilarNames(guess, h.career.PlayerName)

	h.broadcastLocked(GuessResultMessage{
		Type:    "guess_result",
		Correct: correct,
		Guesser: name,
		Guess:   guess,
	})

	if !correct {
		return
	}

	points := 10 - h.revealed
	if points < 1 {
		points = 1
	}

	h.open = false
	h.winner = name
	h.won = points
	h.scores[c.playerID] += points
	h.revealed = len(h.career.Seasons)

	logf(h.cfg, "GAMES: %q guessed %q for %d points in career/%s",
		name, h.career.PlayerName, points, h.id)

	h.broadcastLocked(h.stateMessageLocked())
	h.broadcastLocked(h.scoreboardLocked())
}

func (h *careerHub) handleModCommand(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	if !h.isModeratorLocked(c.playerID) {
		return
	}

	switch msg.Type {
	case "set_league":
		league := strings.ToLower(strings.TrimSpace(msg.Text))
		if league != "" {
			h.league = league
		}

	case "start_round":
		careers, err := h.datasets.Careers(h.league)
		if err != nil {
			logf(h.cfg, "GAMES: Career pool unavailable for career/%s: %v", h.id, err)
			h.sendLocked(c, SimpleMessage{
				Type:    "dataset_unavailable",
				Message: "No career pool is available for league " + h.league + ".",
			})
			return
		}

		pick := careers[randIntn(len(careers))]
		h.round++
		h.career = &pick
		h.revealed = 1
		h.open = true
		h.winner = ""
		h.won = 0

		logf(h.cfg, "GAMES: Round %d of career/%s started", h.round, h.id)
		h.broadcastLocked(h.stateMessageLocked())

		go h.revealLoop(h.round)

	case "reveal_row":
		h.revealRowLocked(h.round)

	case "lock_lobby":
		h.locked = msg.Lock != nil && *msg.Lock
		h.broadcastLocked(LobbyStateMessage{Type: "lobby_state", Locked: h.locked})

	case "kick":
		if msg.TargetUsername == "" {
			return
		}
		if kicked := h.kickLocked(msg.TargetUsername); kicked != "" {
			delete(h.scores, kicked)
			h.broadcastPlayerListLocked()
			h.broadcastLocked(h.scoreboardLocked())
		}
	}
}

// revealLoop advances the board on a timer until the round closes or a
// newer round replaces it.
func (h *careerHub) revealLoop(round int) {
	ticker := time.NewTicker(h.cfg.revealInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		if h.round != round || !h.open {
			h.mu.Unlock()
			return
		}
		h.revealRowLocked(round)
		h.mu.Unlock()
	}
}

// revealRowLocked reveals the next season row. Running out of rows closes
// the round unwon.
func (h *careerHub) revealRowLocked(round int) {
	if h.round != round || !h.open || h.career == nil {
		return
	}

	if h.revealed < len(h.career.Seasons) {
		h.revealed++
		h.broadcastLocked(h.stateMessageLocked())
		return
	}

	h.open = false
	logf(h.cfg, "GAMES: Round %d of career/%s ended unguessed (%q)",
		h.round, h.id, h.career.PlayerName)
	h.broadcastLocked(h.stateMessageLocked())
}

func (h *careerHub) stateMessageLocked() CareerStateMessage {
	msg := CareerStateMessage{
		Type:     "career_state",
		Round:    h.round,
		Open:     h.open,
		Revealed: h.career.Seasons[:h.revealed],
		Total:    len(h.career.Seasons),
	}

	if !h.open {
		msg.Answer = h.career.PlayerName
		msg.Bio = &h.career.Bio
		msg.Winner = h.winner
		msg.Points = h.won
	}

	return msg
}

func (h *careerHub) scoreboardLocked() ScoreboardMessage {
	scores := make([]ScoreEntry, 0, len(h.scores))
	for pid, points := range h.scores {
		if name, ok := h.names[pid]; ok {
			scores = append(scores, ScoreEntry{Username: name, Points: points})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].Username < scores[j].Username
	})
	return ScoreboardMessage{Type: "scoreboard", Scores: scores}
}

func registerCareerGame(cfg *Config, datasets *datasetCache, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout, func(gameID string) gameHub {
		return newCareerHub(cfg, datasets, gameID)
	})

	registerGameRoutes(cfg, path, "career", mux, gm)
}
