// Ball Knowledge Roster Recall
//
// The moderator picks a team and season; players then collectively try to
// name everyone on that roster. Each hit reveals the player on the board
// and credits whoever named them first. The round ends when the roster is
// exhausted or the moderator calls it, at which point the misses are shown.

package main

import (
	"sort"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/ballknowledge/server/pkg/fuzzy"
)

type RosterSlot struct {
	Name     string `json:"name,omitempty"` // hidden while the round is open and unfound
	Position string `json:"position,omitempty"`
	FoundBy  string `json:"found_by,omitempty"`
}

// RosterStateMessage is the recall board: found players by name, the rest
// as blanks until the round closes.
type RosterStateMessage struct {
	Type      string       `json:"type"` // "roster_state"
	Round     int          `json:"round"`
	Open      bool         `json:"open"`
	Team      string       `json:"team"`
	Season    string       `json:"season"`
	Slots     []RosterSlot `json:"slots"`
	Found     int          `json:"found"`
	Total     int          `json:"total"`
	RecallPct int          `json:"recall_pct"`
}

type rosterHub struct {
	lobby
	cfg      *Config
	datasets *datasetCache

	round  int
	roster *Roster
	found  map[int]string // roster player ID -> playerID of finder
	open   bool

	scores map[string]int // playerID -> players named across rounds
}

func newRosterHub(cfg *Config, datasets *datasetCache, gameID string) *rosterHub {
	return &rosterHub{
		lobby:    newLobby(gameID),
		cfg:      cfg,
		datasets: datasets,
		scores:   make(map[string]int),
	}
}

func (h *rosterHub) attach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, h.attachLocked(c))
	if h.roster != nil {
		h.sendLocked(c, h.stateMessageLocked())
	}
	h.sendLocked(c, h.scoreboardLocked())
	h.broadcastPlayerListLocked()
}

func (h *rosterHub) detach(c *client) {
	h.mu.Lock()
	h.touchLocked()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *rosterHub) handle(c *client, msg clientMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "guess":
		h.handleGuess(c, msg)
	case "start_round", "end_round", "lock_lobby", "kick":
		h.handleModCommand(c, msg)
	default:
	}
}

func (h *rosterHub) handleJoin(c *client, msg clientMessage) {
	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.joinLocked(c, msg.Username) {
		return
	}

	logf(h.cfg, "GAMES: Player %q joined roster/%s", msg.Username, h.id)
	h.broadcastPlayerListLocked()
}

func (h *rosterHub) handleGuess(c *client, msg clientMessage) {
	guess := strings.TrimSpace(msg.Text)
	if guess == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	name, joined := h.names[c.playerID]
	if !joined || !h.open || h.roster == nil {
		return
	}

	// Match against unnamed roster players only; an already-found player
	// is not re-creditable.
	for _, p := range h.roster.Players {
		if !fuzzy.SimilarNames(guess, p.Name) {
			continue
		}

		if _, taken := h.found[p.ID]; taken {
			h.sendLocked(c, SimpleMessage{
				Type:    "already_named",
				Message: p.Name + " has already been named.",
			})
			return
		}

		h.found[p.ID] = c.playerID
		h.scores[c.playerID]++

		logf(h.cfg, "GAMES: %q named %q in roster/%s", name, p.Name, h.id)

		h.broadcastLocked(GuessResultMessage{
			Type:    "guess_result",
			Correct: true,
			Guesser: name,
			Guess:   guess,
		})

		if len(h.found) == len(h.roster.Players) {
			h.open = false
			logf(h.cfg, "GAMES: Roster %s_%s fully recalled in roster/%s",
				h.roster.Team, h.roster.Season, h.id)
		}

		h.broadcastLocked(h.stateMessageLocked())
		h.broadcastLocked(h.scoreboardLocked())
		return
	}

	h.broadcastLocked(GuessResultMessage{
		Type:    "guess_result",
		Correct: false,
		Guesser: name,
		Guess:   guess,
	})
}

func (h *rosterHub) handleModCommand(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	if !h.isModeratorLocked(c.playerID) {
		return
	}

	switch msg.Type {
	case "start_round":
		team := strings.TrimSpace(msg.Team)
		season := strings.TrimSpace(msg.Season)
		if team == "" || season == "" {
			return
		}

		roster, err := h.datasets.Roster(team, season)
		if err != nil {
			logf(h.cfg, "GAMES: Roster %s_%s unavailable for roster/%s: %v", team, season, h.id, err)
			h.sendLocked(c, SimpleMessage{
				Type:    "dataset_unavailable",
				Message: "No roster is available for " + team + " " + season + ".",
			})
			return
		}

		h.round++
		h.roster = roster
		h.found = make(map[int]string)
		h.open = true

		logf(h.cfg, "GAMES: Round %d of roster/%s started (%s %s)", h.round, h.id, team, season)
		h.broadcastLocked(h.stateMessageLocked())

	case "end_round":
		if !h.open || h.roster == nil {
			return
		}
		h.open = false
		logf(h.cfg, "GAMES: Round %d of roster/%s ended with %d/%d recalled",
			h.round, h.id, len(h.found), len(h.roster.Players))
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

func (h *rosterHub) stateMessageLocked() RosterStateMessage {
	total := len(h.roster.Players)

	slots := make([]RosterSlot, 0, total)
	for _, p := range h.roster.Players {
		slot := RosterSlot{Position: p.Position}
		if finder, ok := h.found[p.ID]; ok {
			slot.Name = p.Name
			slot.FoundBy = h.names[finder]
		} else if !h.open {
			slot.Name = p.Name
		}
		slots = append(slots, slot)
	}

	pct := 0
	if total > 0 {
		pct = len(h.found) * 100 / total
	}

	return RosterStateMessage{
		Type:      "roster_state",
		Round:     h.round,
		Open:      h.open,
		Team:      h.roster.Team,
		Season:    h.roster.Season,
		Slots:     slots,
		Found:     len(h.found),
		Total:     total,
		RecallPct: pct,
	}
}

func (h *rosterHub) scoreboardLocked() ScoreboardMessage {
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

func registerRosterGame(cfg *Config, datasets *datasetCache, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout, func(gameID string) gameHub {
		return newRosterHub(cfg, datasets, gameID)
	})

	registerGameRoutes(cfg, path, "roster", mux, gm)
}
