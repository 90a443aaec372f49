// Shared session plumbing for all game modes: websocket clients, cookie
// player identity, per-game lobbies, and the manager that keys hubs by
// game ID and reaps idle ones.

package main

import (
	"crypto/rand"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

// clientMessage is the single inbound wire format shared by every game
// mode; unused fields stay empty.
type clientMessage struct {
	Type           string `json:"type"`
	Username       string `json:"username,omitempty"`
	Text           string `json:"text,omitempty"`
	Key            string `json:"key,omitempty"`
	Lock           *bool  `json:"lock,omitempty"`
	TargetUsername string `json:"target_username,omitempty"`
	Team           string `json:"team,omitempty"`
	Season         string `json:"season,omitempty"`
	Slot           string `json:"slot,omitempty"`
}

// SimpleMessage is for generic notifications ("kicked", "lobby_locked", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SessionInfoMessage is sent immediately on connect so the client knows
// whether the lobby is locked and what role this cookie has.
type SessionInfoMessage struct {
	Type        string `json:"type"` // "session_info"
	LobbyLocked bool   `json:"lobby_locked"`
	IsExisting  bool   `json:"is_existing"`
	IsModerator bool   `json:"is_moderator"`
	Username    string `json:"username,omitempty"`
}

// LobbyStateMessage informs clients about lock/unlock changes.
type LobbyStateMessage struct {
	Type   string `json:"type"` // "lobby_state"
	Locked bool   `json:"locked"`
}

// PlayerListMessage carries the current usernames, in join order.
type PlayerListMessage struct {
	Type    string   `json:"type"` // "player_list"
	Players []string `json:"players"`
}

// gameHub is what the manager and the websocket handler need from a game
// mode. Each mode file owns one implementation.
type gameHub interface {
	attach(c *client)
	detach(c *client)
	handle(c *client, msg clientMessage)
	closeAll()
	lastActiveTime() time.Time
}

// lobby holds the state every game mode shares: connected clients, joined
// players in join order, the moderator cookie, and lock/activity tracking.
// Embedded by each hub; all *Locked helpers assume the caller holds mu.
type lobby struct {
	id string

	mu      sync.RWMutex
	clients map[*client]bool
	names   map[string]string // playerID -> username
	order   []string          // playerIDs in join order

	moderatorID string // cookie of moderator, never a joined player
	locked      bool

	createdAt  time.Time
	lastActive time.Time
}

func newLobby(gameID string) lobby {
	now := time.Now()
	return lobby{
		id:         gameID,
		clients:    make(map[*client]bool),
		names:      make(map[string]string),
		createdAt:  now,
		lastActive: now,
	}
}

func (l *lobby) touchLocked() {
	l.lastActive = time.Now()
}

func (l *lobby) lastActiveTime() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastActive
}

// sendLocked delivers msg to one client, dropping the client if its send
// buffer is full.
func (l *lobby) sendLocked(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		l.dropLocked(c)
	}
}

func (l *lobby) broadcastLocked(msg any) {
	for c := range l.clients {
		l.sendLocked(c, msg)
	}
}

func (l *lobby) dropLocked(c *client) {
	if l.clients[c] {
		delete(l.clients, c)
		close(c.send)
	}
}

// attachLocked adds the connection, promotes the first cookie to moderator,
// and returns the session info to send back.
func (l *lobby) attachLocked(c *client) SessionInfoMessage {
	l.touchLocked()

	if l.moderatorID == "" {
		l.moderatorID = c.playerID
	}

	l.clients[c] = true

	name, existing := l.names[c.playerID]
	return SessionInfoMessage{
		Type:        "session_info",
		LobbyLocked: l.locked,
		IsExisting:  existing,
		IsModerator: c.playerID == l.moderatorID,
		Username:    name,
	}
}

func (l *lobby) isModeratorLocked(playerID string) bool {
	return l.moderatorID != "" && playerID == l.moderatorID
}

// joinLocked records a username for this cookie. Returns false with a
// client-only message when the lobby is locked to newcomers or the name is
// taken by another cookie.
func (l *lobby) joinLocked(c *client, username string) bool {
	l.touchLocked()

	_, existing := l.names[c.playerID]

	if l.locked && !existing {
		l.sendLocked(c, SimpleMessage{
			Type:    "lobby_locked",
			Message: "The lobby is locked; no new players may join.",
		})
		return false
	}

	for pid, name := range l.names {
		if pid != c.playerID && name == username {
			l.sendLocked(c, SimpleMessage{
				Type:    "collision",
				Message: "That username is already taken. Please choose a different username.",
			})
			return false
		}
	}

	if !existing {
		l.order = append(l.order, c.playerID)
	}
	l.names[c.playerID] = username

	return true
}

// removePlayerLocked forgets a player's name and join-order slot.
func (l *lobby) removePlayerLocked(playerID string) {
	delete(l.names, playerID)
	dst := l.order[:0]
	for _, pid := range l.order {
		if pid != playerID {
			dst = append(dst, pid)
		}
	}
	l.order = dst
}

func (l *lobby) playerNamesLocked() []string {
	out := make([]string, 0, len(l.order))
	for _, pid := range l.order {
		if name, ok := l.names[pid]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (l *lobby) broadcastPlayerListLocked() {
	l.broadcastLocked(PlayerListMessage{
		Type:    "player_list",
		Players: l.playerNamesLocked(),
	})
}

// connectedLocked reports whether any client with this cookie is attached.
func (l *lobby) connectedLocked(playerID string) bool {
	for c := range l.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

// kickLocked removes the player with the given username and disconnects
// their clients. Returns the kicked playerID, or "".
func (l *lobby) kickLocked(target string) string {
	kicked := ""
	for pid, name := range l.names {
		if name == target {
			kicked = pid
			break
		}
	}
	if kicked == "" {
		return ""
	}

	l.removePlayerLocked(kicked)

	for c := range l.clients {
		if c.playerID == kicked {
			l.sendLocked(c, SimpleMessage{
				Type:    "kicked",
				Message: "You have been removed by the moderator.",
			})
			l.dropLocked(c)
		}
	}

	return kicked
}

func (l *lobby) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for c := range l.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(l.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "ballknowledge_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// gameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type gameManager struct {
	mu          sync.Mutex
	hubs        map[string]gameHub
	newHub      func(gameID string) gameHub
	idleTimeout time.Duration
}

func newGameManager(idleTimeout time.Duration, factory func(gameID string) gameHub) *gameManager {
	gm := &gameManager{
		hubs:        make(map[string]gameHub),
		newHub:      factory,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *gameManager) getHub(gameID string) gameHub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := gm.newHub(gameID)
	gm.hubs[gameID] = hub
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *gameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than
// idleTimeout.
func (gm *gameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			if hub.lastActiveTime().Before(cutoff) {
				delete(gm.hubs, id)
				go hub.closeAll()
			}
		}
		gm.mu.Unlock()
	}
}

// serveWS upgrades the connection and hands the client to the hub for
// this :gameid.
func serveWS(gm *gameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		c := &client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		hub.attach(c)

		go c.writePump()
		c.readPump(hub)
	}
}

func (c *client) readPump(h gameHub) {
	defer func() {
		h.detach(c)
		_ = c.conn.Close()
	}()

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		h.handle(c, msg)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// qrHandler generates a PNG QR code for the current game URL.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func getGameIndexHandler(cfg *Config, mode string) httprouter.Handle {
	page, err := assets.ReadFile("assets/" + mode + "/index.html")
	if err != nil {
		panic("missing embedded client for " + mode + ": " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(page)
	}
}

// redirectNewGame handles GET $path by generating a new random game ID
// (with server-side collision detection) and redirecting to $path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *gameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerGameRoutes sets up routes so that:
//   - $path            → redirects to new random game (8-char ID)
//   - $path/:gameid    → HTML client
//   - $path/:gameid/ws → WebSocket for that game
//   - $path/:gameid/qr → PNG QR code for that game URL
func registerGameRoutes(cfg *Config, path, mode string, mux *httprouter.Router, gm *gameManager) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))
	mux.GET(cfg.prefix+path+"/:gameid", getGameIndexHandler(cfg, mode))
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWS(gm))
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}

// randIntn returns a uniform-enough random index in [0, n) from
// crypto/rand. Panics if the entropy source fails, same as newGameID.
func randIntn(n int) int {
	if n <= 1 {
		return 0
	}
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	v := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return int(v % uint32(n))
}
