// Ball Knowledge Roll Call
//
// The moderator sets a prompt (e.g. "2008 Celtics") and players type in
// every player name they can remember. Submissions land in a live feed
// grouped by who has been named and by how many people. Because the same
// player arrives spelled a dozen ways ("Shaq", "Shaquille O'Neal",
// "shaquile oneal"), the server continuously offers the moderator fuzzy
// merge suggestions; confirming one collapses the variants into a single
// feed row, dismissing one keeps them apart. A resolved suggestion never
// comes back unless a new submission grows its cluster.
//
// Features:
// - WebSockets per game ID: /rollcall/:gameid and /rollcall/:gameid/ws
// - First connection to a game becomes moderator
// - Moderator can lock/unlock lobby and kick players
// - Players identified by cookie (playerID)
// - Suggestions visible to the moderator only; the grouped feed to everyone
// - Games auto-reaped after configurable idle timeout
// - In-browser QR button to share the current session

package main

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/ballknowledge/server/pkg/fuzzy"
)

// PromptMessage announces the moderator-set prompt.
type PromptMessage struct {
	Type   string `json:"type"` // "prompt"
	Prompt string `json:"prompt"`
}

type FeedVariant struct {
	Text      string `json:"text"`
	Submitter string `json:"submitter"`
}

type FeedGroup struct {
	Canonical  string        `json:"canonical"`
	Variants   []FeedVariant `json:"variants"`
	Submitters int           `json:"submitters"`
}

// FeedMessage is the grouped live feed, broadcast to everyone after every
// entry or merge-decision change. Groups arrive pre-sorted (most
// corroborated first) and clients render them in order.
type FeedMessage struct {
	Type    string      `json:"type"` // "feed"
	Prompt  string      `json:"prompt,omitempty"`
	Entries int         `json:"entries"`
	Groups  []FeedGroup `json:"groups"`
}

type SuggestionMember struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Submitter string `json:"submitter"`
}

type SuggestionView struct {
	Key       string             `json:"key"`
	Canonical string             `json:"canonical"`
	Members   []SuggestionMember `json:"members"`
}

// SuggestionsMessage carries the open merge suggestions, moderator only.
type SuggestionsMessage struct {
	Type        string           `json:"type"` // "merge_suggestions"
	Suggestions []SuggestionView `json:"suggestions"`
}

type rollCallHub struct {
	lobby
	cfg *Config

	prompt  string
	entries []fuzzy.Entry

	// Decision state, keyed by suggestion key. Confirmed groups keep the
	// member IDs so the feed can be rebuilt from scratch on every pass.
	confirmedKeys   map[string]struct{}
	dismissedKeys   map[string]struct{}
	confirmedGroups [][]string

	// Suggestions currently offered to the moderator, by key.
	offered map[string]fuzzy.Suggestion
}

func newRollCallHub(cfg *Config, gameID string) *rollCallHub {
	return &rollCallHub{
		lobby:         newLobby(gameID),
		cfg:           cfg,
		confirmedKeys: make(map[string]struct{}),
		dismissedKeys: make(map[string]struct{}),
		offered:       make(map[string]fuzzy.Suggestion),
	}
}

func (h *rollCallHub) attach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	info := h.attachLocked(c)
	h.sendLocked(c, info)

	if h.prompt != "" {
		h.sendLocked(c, PromptMessage{Type: "prompt", Prompt: h.prompt})
	}
	h.sendLocked(c, h.feedMessageLocked())
	if info.IsModerator {
		h.sendSuggestionsLocked()
	}
	h.broadcastPlayerListLocked()
}

func (h *rollCallHub) detach(c *client) {
	h.mu.Lock()
	h.touchLocked()
	h.dropLocked(c)
	playerID := c.playerID
	isModerator := h.isModeratorLocked(playerID)
	h.mu.Unlock()

	// The moderator leaving doesn't free their role; entries always stay.
	if playerID != "" && !isModerator {
		go h.scheduleRemoval(playerID, h.cfg.playerTimeout)
	}
}

// scheduleRemoval waits for d, and if no client with this playerID has
// reconnected, frees the username. Submitted entries are kept: they are
// the game content, and removing them would invalidate merge decisions.
func (h *rollCallHub) scheduleRemoval(playerID string, d time.Duration) {
	time.Sleep(d)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connectedLocked(playerID) {
		return
	}
	if _, ok := h.names[playerID]; !ok {
		return
	}

	h.removePlayerLocked(playerID)
	h.touchLocked()
	h.broadcastPlayerListLocked()
}

func (h *rollCallHub) handle(c *client, msg clientMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, msg)
	case "submit":
		h.handleSubmit(c, msg)
	case "confirm_merge", "dismiss_merge":
		h.handleDecision(c, msg)
	case "set_prompt", "lock_lobby", "kick":
		h.handleModCommand(c, msg)
	default:
		// ignore unknown types
	}
}

func (h *rollCallHub) handleJoin(c *client, msg clientMessage) {
	if msg.Username == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.joinLocked(c, msg.Username) {
		return
	}

	logf(h.cfg, "GAMES: Player %q joined rollcall/%s", msg.Username, h.id)
	h.broadcastPlayerListLocked()
}

func (h *rollCallHub) handleSubmit(c *client, msg clientMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" || c.playerID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	name, joined := h.names[c.playerID]
	if !joined {
		h.sendLocked(c, SimpleMessage{
			Type:    "not_joined",
			Message: "Join with a username before submitting names.",
		})
		return
	}

	h.entries = append(h.entries, fuzzy.Entry{
		ID:            uuid.NewString(),
		Text:          text,
		SubmitterID:   c.playerID,
		SubmitterName: name,
		SubmittedAt:   time.Now(),
	})

	h.recomputeLocked()
}

// handleDecision processes moderator confirm/dismiss of an offered
// suggestion. Decisions on keys that are no longer offered (already
// resolved, or stale after the cluster grew) are ignored, which makes a
// duplicate confirm or dismiss of the same key a no-op.
func (h *rollCallHub) handleDecision(c *client, msg clientMessage) {
	if msg.Key == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	if !h.isModeratorLocked(c.playerID) {
		return
	}

	s, ok := h.offered[msg.Key]
	if !ok {
		return
	}

	switch msg.Type {
	case "confirm_merge":
		ids := make([]string, len(s.Members))
		for i, m := range s.Members {
			ids[i] = m.ID
		}
		h.confirmedGroups = append(h.confirmedGroups, ids)
		h.confirmedKeys[msg.Key] = struct{}{}
		logf(h.cfg, "GAMES: Merge %q confirmed in rollcall/%s", s.Canonical, h.id)
	case "dismiss_merge":
		h.dismissedKeys[msg.Key] = struct{}{}
		logf(h.cfg, "GAMES: Merge %q dismissed in rollcall/%s", s.Canonical, h.id)
	}

	h.recomputeLocked()
}

func (h *rollCallHub) handleModCommand(c *client, msg clientMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.touchLocked()

	if !h.isModeratorLocked(c.playerID) {
		return
	}

	switch msg.Type {
	case "set_prompt":
		h.prompt = strings.TrimSpace(msg.Text)
		h.broadcastLocked(PromptMessage{Type: "prompt", Prompt: h.prompt})

	case "lock_lobby":
		h.locked = msg.Lock != nil && *msg.Lock
		h.broadcastLocked(LobbyStateMessage{Type: "lobby_state", Locked: h.locked})

	case "kick":
		if msg.TargetUsername == "" {
			return
		}
		if kicked := h.kickLocked(msg.TargetUsername); kicked != "" {
			h.broadcastPlayerListLocked()
		}
	}
}

// recomputeLocked rebuilds suggestions and the grouped feed from scratch,
// then pushes both out. Suggestions and groups carry no state between
// passes; only entries and decisions do.
func (h *rollCallHub) recomputeLocked() {
	suggestions := fuzzy.FindSuggestions(h.entries, h.confirmedKeys, h.dismissedKeys)

	h.offered = make(map[string]fuzzy.Suggestion, len(suggestions))
	for _, s := range suggestions {
		h.offered[s.Key] = s
	}

	h.sendSuggestionsLocked()
	h.broadcastLocked(h.feedMessageLocked())
}

func (h *rollCallHub) feedMessageLocked() FeedMessage {
	groups := fuzzy.ApplyMerges(h.entries, h.confirmedGroups)

	out := make([]FeedGroup, 0, len(groups))
	for _, g := range groups {
		fg := FeedGroup{
			Canonical:  g.Canonical,
			Variants:   make([]FeedVariant, 0, len(g.Variants)),
			Submitters: g.Submitters,
		}
		for _, v := range g.Variants {
			fg.Variants = append(fg.Variants, FeedVariant{
				Text:      v.Text,
				Submitter: v.SubmitterName,
			})
		}
		out = append(out, fg)
	}

	return FeedMessage{
		Type:    "feed",
		Prompt:  h.prompt,
		Entries: len(h.entries),
		Groups:  out,
	}
}

// sendSuggestionsLocked pushes the open suggestions to the moderator's
// connected clients only.
func (h *rollCallHub) sendSuggestionsLocked() {
	if h.moderatorID == "" {
		return
	}

	// FindSuggestions makes no ordering promise; sort by key so the
	// moderator's list doesn't jump around between pushes.
	keys := make([]string, 0, len(h.offered))
	for k := range h.offered {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	views := make([]SuggestionView, 0, len(keys))
	for _, key := range keys {
		s := h.offered[key]
		view := SuggestionView{
			Key:       s.Key,
			Canonical: s.Canonical,
			Members:   make([]SuggestionMember, 0, len(s.Members)),
		}
		for _, m := range s.Members {
			view.Members = append(view.Members, SuggestionMember{
				ID:        m.ID,
				Text:      m.Text,
				Submitter: m.SubmitterName,
			})
		}
		views = append(views, view)
	}

	msg := SuggestionsMessage{Type: "merge_suggestions", Suggestions: views}

	for c := range h.clients {
		if c.playerID == h.moderatorID {
			h.sendLocked(c, msg)
		}
	}
}

func registerRollCallGame(cfg *Config, path string, mux *httprouter.Router) {
	gm := newGameManager(cfg.sessionTimeout, func(gameID string) gameHub {
		return newRollCallHub(cfg, gameID)
	})

	registerGameRoutes(cfg, path, "rollcall", mux, gm)
}
