// Ball Knowledge Scramble
//
// A player name drawn from the career pool is letter-scrambled and shown
// to everyone; first correct unscramble wins the round. Spaces stay where
// word boundaries are so "heanotj smsaj" reads as two words. Guesses go
// through the fuzzy matcher, so near-misses on spelling still count.

package main

import (
	"crypto/rand"
	"sort"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/ballknowledge/server/pkg/fuzzy"
)

// ScrambleStateMessage shows the current puzzle.
type ScrambleStateMessage struct {
	Type      string `json:"type"` // "scramble_state"
	Round     int    `json:"round"`
	Open      bool   `json:"open"`
	Scrambled string `json:"scrambled"`
	Answer    string `json:"answer,omitempty"`
	Winner    string `json:"winner,omitempty"`
}

type scrambleHub struct {
	lobby
	cfg      *Config
	datasets *datasetCache

	league    string
	round     int
	answer    string
	scrambled string
	open      bool
	winner    string

	scores map[string]int // playerID -> rounds won
}

func newScrambleHub(cfg *Config, datasets *datasetCache, gameID string) *scrambleHub {
	return &scrambleHub{
		lobby:    newLobby(gameID),
		cfg:      cfg,
		datasets: datasets,
		league:   "nba",
		scores:   make(map[string]int),
	}
}

// scrambleName shuffles the letters of each word with crypto/rand
// Fisher-Yates, keeping word boundaries. Re-shuffles up to a few times if
// the result matches the input, which short words like "Yao" can produce.
func scrambleName(name string) string {
	words := strings.Fields(name)

	for attempt := 0; attempt < 5; attempt++ {
		out := make([]string, len(words))
		for i, word := range words {
			letters := []rune(word)
			for j := len(letters) - 1; j > 0; j-- {
				var b [1]byte
				if _, err := rand.Read(b[:]); err != nil {
					continue
				}
				k := int(b[0]) % (j + 1)
				letters[j], letters[k] = letters[k], letters[j]
			}
			out[i] = string(letters)
		}
		scrambled := strings.Join(out, " ")
		if !strings.EqualFold(scrambled, name) {
			return strings.ToLower(scrambled)
		}
	}

	return strings.ToLower(strings.Join(words, " "))
}

func (h *scrambleHub) attach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, h.attachLocked(c))
	if h.round > 0 {
		h.sendLocked(c, h.stateMessageLocked())
	}
	h.sendLocked(c, h.scoreboardLocked())
	h.broadcastPlayerListLocked()
}

func (h *scrambleHub) detach(c *client) {
	h.mu.Lock()
	h.touchLocked()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *scrambleHub) handle(c *client, msg clientMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "guess":
		h.handleGuess(c, msg)
	case "start_round", "set_league", "lock_lobby", "kick":
		h.handleModCommand(c, msg)
	default:
	}
}

func (h *scrambleHub) handleJoin(c *client, msg clientMessage) {
	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.joinLocked(c, msg.Username) {
		return
	}

	logf(h.cfg, "GAMES: Player %q joined scramble/%s", msg.Username, h.id)
	h.broadcastPlayerListLocked()
}

func (h *scrambleHub) handleGuess(c *client, msg clientMessage) {
	guess := strings.TrimSpace(msg.Text)
	if guess == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	name, joined := h.names[c.playerID]
	if !joined || !h.open {
		return
	}

	correct := fuzzy.SimilarNames(guess, h.answer)

	h.broadcastLocked(GuessResultMessage{
		Type:    "guess_result",
		Correct: correct,
		Guesser: name,
		Guess:   guess,
	})

	if !correct {
		return
	}

	h.open = false
	h.winner = name
	h.scores[c.playerID]++

	logf(h.cfg, "GAMES: %q unscrambled %q in scramble/%s", name, h.answer, h.id)

	h.broadcastLocked(h.stateMessageLocked())
	h.broadcastLocked(h.scoreboardLocked())
}

func (h *scrambleHub) handleModCommand(c *client, msg clientMessage) {
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
			logf(h.cfg, "GAMES: Career pool unavailable for scramble/%s: %v", h.id, err)
			h.sendLocked(c, SimpleMessage{
				Type:    "dataset_unavailable",
				Message: "No name pool is available for league " + h.league + ".",
			})
			return
		}

		h.round++
		h.answer = careers[randIntn(len(careers))].PlayerName
		h.scrambled = scrambleName(h.answer)
		h.open = true
		h.winner = ""

		logf(h.cfg, "GAMES: Round %d of scramble/%s started", h.round, h.id)
		h.broadcastLocked(h.stateMessageLocked())

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

func (h *scrambleHub) stateMessageLocked() ScrambleStateMessage {
	msg := ScrambleStateMessage{
		Type:      "scramble_state",
		Round:     h.round,
		Open:      h.open,
		Scrambled: h.scrambled,
	}
	if !h.open {
		msg.Answer = h.answer
		msg.Winner = h.winner
	}
	return msg
}

func (h *scrambleHub) scoreboardLocked() ScoreboardMessage {
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

func registerScrambleGame(cfg *Config, datasets *datasetCache, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout, func(gameID string) gameHub {
		return newScrambleHub(cfg, datasets, gameID)
	})

	registerGameRoutes(cfg, path, "scramble", mux, gm)
}
