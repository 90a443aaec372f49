// Ball Knowledge Lineup
//
// Players take turns filling the five lineup slots (PG/SG/SF/PF/C) from a
// curated player pool. Picks are typed free-text and resolved against the
// pool with the fuzzy matcher; a pick must name a pool player eligible for
// the chosen slot who isn't already in the lineup. The round closes when
// the fifth slot fills.

package main

import (
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/ballknowledge/server/pkg/fuzzy"
)

var lineupSlots = []string{"PG", "SG", "SF", "PF", "C"}

type LineupSlotView struct {
	Slot     string `json:"slot"`
	Name     string `json:"name,omitempty"`
	PickedBy string `json:"picked_by,omitempty"`
}

// LineupStateMessage is the lineup board plus whose turn it is.
type LineupStateMessage struct {
	Type        string           `json:"type"` // "lineup_state"
	Round       int              `json:"round"`
	Open        bool             `json:"open"`
	Slots       []LineupSlotView `json:"slots"`
	CurrentTurn string           `json:"current_turn,omitempty"`
	TurnOrder   []string         `json:"turn_order,omitempty"`
}

type lineupPick struct {
	player   PoolPlayer
	pickedBy string // playerID
}

type lineupHub struct {
	lobby
	cfg      *Config
	datasets *datasetCache

	league string
	round  int
	open   bool
	pool   []PoolPlayer
	picks  map[string]lineupPick // slot -> pick

	turnOrder   []string // playerIDs, frozen at round start
	currentTurn int
}

func newLineupHub(cfg *Config, datasets *datasetCache, gameID string) *lineupHub {
	return &lineupHub{
		lobby:    newLobby(gameID),
		cfg:      cfg,
		datasets: datasets,
		league:   "nba",
	}
}

// eligibleForSlot reports whether a pool position string ("G", "F-C",
// "PG") covers a lineup slot. Combined positions split on the separator.
func eligibleForSlot(position, slot string) bool {
	for _, token := range strings.FieldsFunc(position, func(r rune) bool {
		return r == '-' || r == '/'
	}) {
		switch strings.ToUpper(strings.TrimSpace(token)) {
		case slot:
			return true
		case "G":
			if slot == "PG" || slot == "SG" {
				return true
			}
		case "F":
			if slot == "SF" || slot == "PF" {
				return true
			}
		}
	}
	return false
}

func (h *lineupHub) attach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sendLocked(c, h.attachLocked(c))
	if h.round > 0 {
		h.sendLocked(c, h.stateMessageLocked())
	}
	h.broadcastPlayerListLocked()
}

func (h *lineupHub) detach(c *client) {
	h.mu.Lock()
	h.touchLocked()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *lineupHub) handle(c *client, msg clientMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "pick":
		h.handlePick(c, msg)
	case "start_round", "set_league", "lock_lobby", "kick":
		h.handleModCommand(c, msg)
	default:
	}
}

func (h *lineupHub) handleJoin(c *client, msg clientMessage) {
	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.joinLocked(c, msg.Username) {
		return
	}

	logf(h.cfg, "GAMES: Player %q joined lineup/%s", msg.Username, h.id)
	h.broadcastPlayerListLocked()
}

func (h *lineupHub) handlePick(c *client, msg clientMessage) {
	slot := strings.ToUpper(strings.TrimSpace(msg.Slot))
	text := strings.TrimSpace(msg.Text)
	if slot == "" || text == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	if !h.open || len(h.turnOrder) == 0 {
		return
	}
	if h.turnOrder[h.currentTurn] != c.playerID {
		h.sendLocked(c, SimpleMessage{
			Type:    "not_your_turn",
			Message: "It is not your turn to pick.",
		})
		return
	}

	if _, filled := h.picks[slot]; filled {
		h.sendLocked(c, SimpleMessage{
			Type:    "pick_error",
			Message: "The " + slot + " slot is already filled.",
		})
		return
	}
	validSlot := false
	for _, s := range lineupSlots {
		if s == slot {
			validSlot = true
			break
		}
	}
	if !validSlot {
		h.sendLocked(c, SimpleMessage{
			Type:    "pick_error",
			Message: slot + " is not a lineup slot.",
		})
		return
	}

	player, ok := h.resolvePickLocked(text)
	if !ok {
		h.sendLocked(c, SimpleMessage{
			Type:    "pick_error",
			Message: "No available pool player matches " + text + ".",
		})
		return
	}
	if !eligibleForSlot(player.Position, slot) {
		h.sendLocked(c, SimpleMessage{
			Type:    "pick_error",
			Message: player.Name + " is not eligible at " + slot + ".",
		})
		return
	}

	h.picks[slot] = lineupPick{player: player, pickedBy: c.playerID}
	logf(h.cfg, "GAMES: %q picked %q at %s in lineup/%s",
		h.names[c.playerID], player.Name, slot, h.id)

	if len(h.picks) == len(lineupSlots) {
		h.open = false
		logf(h.cfg, "GAMES: Lineup completed in lineup/%s", h.id)
	} else {
		h.advanceTurnLocked()
	}

	h.broadcastLocked(h.stateMessageLocked())
}

// resolvePickLocked matches free text against pool players not already in
// the lineup.
func (h *lineupHub) resolvePickLocked(text string) (PoolPlayer, bool) {
	inLineup := make(map[int]bool, len(h.picks))
	for _, p := range h.picks {
		inLineup[p.player.ID] = true
	}

	for _, p := range h.pool {
		if inLineup[p.ID] {
			continue
		}
		if fuzzy.SimilarNames(text, p.Name) {
			return p, true
		}
	}
	return PoolPlayer{}, false
}

func (h *lineupHub) advanceTurnLocked() {
	if len(h.turnOrder) == 0 {
		return
	}
	h.currentTurn = (h.currentTurn + 1) % len(h.turnOrder)
}

func (h *lineupHub) handleModCommand(c *client, msg clientMessage) {
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
		if len(h.order) == 0 {
			h.sendLocked(c, SimpleMessage{
				Type:    "no_players",
				Message: "At least one player must join before starting.",
			})
			return
		}

		pool, err := h.datasets.LineupPool(h.league)
		if err != nil {
			logf(h.cfg, "GAMES: Lineup pool unavailable for lineup/%s: %v", h.id, err)
			h.sendLocked(c, SimpleMessage{
				Type:    "dataset_unavailable",
				Message: "No lineup pool is available for league " + h.league + ".",
			})
			return
		}

		h.round++
		h.open = true
		h.pool = pool
		h.picks = make(map[string]lineupPick, len(lineupSlots))
		h.turnOrder = append([]string(nil), h.order...)
		h.currentTurn = 0

		logf(h.cfg, "GAMES: Round %d of lineup/%s started", h.round, h.id)
		h.broadcastLocked(h.stateMessageLocked())

	case "lock_lobby":
		h.locked = msg.Lock != nil && *msg.Lock
		h.broadcastLocked(LobbyStateMessage{Type: "lobby_state", Locked: h.locked})

	case "kick":
		if msg.TargetUsername == "" {
			return
		}
		if kicked := h.kickLocked(msg.TargetUsername); kicked != "" {
			h.removeFromTurnOrderLocked(kicked)
			h.broadcastPlayerListLocked()
			h.broadcastLocked(h.stateMessageLocked())
		}
	}
}

func (h *lineupHub) removeFromTurnOrderLocked(playerID string) {
	for i, pid := range h.turnOrder {
		if pid != playerID {
			continue
		}
		h.turnOrder = append(h.turnOrder[:i], h.turnOrder[i+1:]...)
		if len(h.turnOrder) == 0 {
			h.currentTurn = 0
		} else if h.currentTurn >= len(h.turnOrder) {
			h.currentTurn = 0
		}
		return
	}
}

func (h *lineupHub) stateMessageLocked() LineupStateMessage {
	slots := make([]LineupSlotView, 0, len(lineupSlots))
	for _, s := range lineupSlots {
		view := LineupSlotView{Slot: s}
		if pick, ok := h.picks[s]; ok {
			view.Name = pick.player.Name
			view.PickedBy = h.names[pick.pickedBy]
		}
		slots = append(slots, view)
	}

	msg := LineupStateMessage{
		Type:  "lineup_state",
		Round: h.round,
		Open:  h.open,
		Slots: slots,
	}

	for _, pid := range h.turnOrder {
		if name, ok := h.names[pid]; ok {
			msg.TurnOrder = append(msg.TurnOrder, name)
		}
	}
	if h.open && len(h.turnOrder) > 0 {
		msg.CurrentTurn = h.names[h.turnOrder[h.currentTurn]]
	}

	return msg
}

func registerLineupGame(cfg *Config, datasets *datasetCache, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout, func(gameID string) gameHub {
		return newLineupHub(cfg, datasets, gameID)
	})

	registerGameRoutes(cfg, path, "lineup", mux, gm)
}
