// Papelito
//
// A two-team word guessing game played around a single device. The browser
// only draws screens; the rules run here, one game per browser profile.
//
// Features:
// - Page at /papelito, WebSocket at /papelito/ws, JSON snapshot at /papelito/state
// - Browser profile identified by cookie (profileID); its game is saved under that scope
// - Every change is saved before it is broadcast, so a refresh or restart resumes the game
// - All actions and clock ticks of a profile are handled by one hub goroutine, in order
// - Countdown runs server-side and is cancelled whenever the turn stops
// - Validation errors are sent only to the client that caused them
// - Idle hubs are unloaded after a configurable timeout (the saved game stays)
// - In-browser QR button that shares the app link, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/papelito/games/papelito"
	"github.com/Seednode/papelito/storage"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string                     `json:"type"`                  // see handleAction
	Name       string                     `json:"name,omitempty"`        // add_player / remove_player
	Config     *papelito.Config           `json:"config,omitempty"`      // configure
	Teams      *papelito.ByTeam[[]string] `json:"teams,omitempty"`       // assign_teams
	TeamNames  papelito.ByTeam[string]    `json:"team_names"`            // assign_teams / auto_assign_teams
	Answer     string                     `json:"answer,omitempty"`      // submit_papelito
	Forbidden  []string                   `json:"forbidden,omitempty"`   // submit_papelito
	PapelitoID string                     `json:"papelito_id,omitempty"` // mark_guessed / mark_foul
}

// StateMessage carries the whole game to every client after each change.
type StateMessage struct {
	Type    string             `json:"type"` // "state"
	State   papelito.GameState `json:"state"`
	Session papelito.Session   `json:"session"`
	Outcome papelito.Outcome   `json:"outcome"`
}

// EventMessage wraps one engine event for the presentation layer.
type EventMessage struct {
	Type  string         `json:"type"` // "event"
	Event papelito.Event `json:"event"`
}

// ErrorMessage is sent to a single client when its action was refused.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id   string
	game *papelito.Game

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
	ticks    chan uint64
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	lastActive time.Time

	countdownEpoch uint64
	stopCountdown  context.CancelFunc
}

func newHub(profileID string, game *papelito.Game) *Hub {
	return &Hub{
		id:         profileID,
		game:       game,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan actionRequest),
		ticks:      make(chan uint64),
		done:       make(chan struct{}),
		lastActive: time.Now(),
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastActive
}

// stop ends the hub loop, which disconnects every client.
func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) run(cfg *Config) {
	defer h.stopClock()

	for {
		select {
		case c := <-h.register:
			h.touch()
			h.clients[c] = true

			h.sendTo(c, h.stateMessage())

		case c := <-h.unreg:
			h.touch()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case req := <-h.actions:
			h.touch()
			h.handleAction(cfg, req)

		case epoch := <-h.ticks:
			events := h.game.Tick(epoch)
			if len(events) == 0 {
				continue
			}

			h.broadcastEvents(events)
			if events[len(events)-1].Type == papelito.EventTurnTimeout {
				logf(cfg, "GAMES: Turn timed out in %s", h.id)
				h.broadcast(h.stateMessage())
			}
			h.syncClock()

		case <-h.done:
			for c := range h.clients {
				close(c.send)
				_ = c.conn.Close()
				delete(h.clients, c)
			}
			return
		}
	}
}

func (h *Hub) stateMessage() StateMessage {
	return StateMessage{
		Type:    "state",
		State:   h.game.State(),
		Session: h.game.Session(),
		Outcome: h.game.Outcome(),
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg any) {
	for client := range h.clients {
		h.sendTo(client, msg)
	}
}

func (h *Hub) broadcastEvents(events []papelito.Event) {
	for _, e := range events {
		h.broadcast(EventMessage{Type: "event", Event: e})
	}
}

// syncClock starts a countdown for a newly running clock and cancels the
// countdown of a clock that stopped or was restarted.
func (h *Hub) syncClock() {
	c := h.game.Clock()
	if c.Running && h.stopCountdown != nil && h.countdownEpoch == c.Epoch {
		return
	}

	h.stopClock()

	if !c.Running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.stopCountdown = cancel
	h.countdownEpoch = c.Epoch

	go papelito.RunCountdown(ctx, papelito.TickInterval, c.Epoch, h.ticks)
}

func (h *Hub) stopClock() {
	if h.stopCountdown != nil {
		h.stopCountdown()
		h.stopCountdown = nil
	}
}

// handleAction applies one client action to the game, then tells the
// requesting client about a refusal or everyone about the new state.
func (h *Hub) handleAction(cfg *Config, req actionRequest) {
	ctx := context.Background()
	msg := req.msg

	var (
		events []papelito.Event
		err    error
	)

	switch msg.Type {
	case "new_game":
		h.game.NewGame(ctx)
		logf(cfg, "GAMES: New game in %s", h.id)
	case "restart":
		h.game.Restart(ctx)
		logf(cfg, "GAMES: Game reset in %s", h.id)
	case "back":
		err = h.game.Back(ctx)
	case "add_player":
		err = h.game.AddPlayer(ctx, msg.Name)
	case "remove_player":
		err = h.game.RemovePlayer(ctx, msg.Name)
	case "configure":
		if msg.Config == nil {
			return
		}
		err = h.game.SubmitConfiguration(ctx, *msg.Config)
	case "assign_teams":
		if msg.Teams == nil {
			return
		}
		err = h.game.AssignTeams(ctx, *msg.Teams, msg.TeamNames)
	case "auto_assign_teams":
		err = h.game.AutoAssignTeams(ctx, msg.TeamNames)
	case "submit_papelito":
		_, err = h.game.SubmitPapelito(msg.Answer, msg.Forbidden)
	case "finish_papelitos":
		err = h.game.FinishPapelitos(ctx)
	case "start_round":
		events, err = h.game.StartRound(ctx)
	case "start_timer":
		_, events, err = h.game.StartTurnTimer()
	case "mark_guessed":
		events, err = h.game.MarkGuessed(ctx, msg.PapelitoID)
	case "mark_foul":
		events, err = h.game.MarkFoul(ctx, msg.PapelitoID)
	case "end_turn":
		err = h.game.EndTurn(ctx)
	case "advance_round":
		err = h.game.AdvanceAfterRound(ctx)
	default:
		return
	}

	if err != nil {
		logf(cfg, "GAMES: Refused %q in %s: %v", msg.Type, h.id, err)
		h.sendTo(req.client, errorMessage(err))
		return
	}

	for _, e := range events {
		switch e.Type {
		case papelito.EventRoundComplete:
			logf(cfg, "GAMES: Round %d complete in %s", e.Round, h.id)
		case papelito.EventGameComplete:
			logf(cfg, "GAMES: Game complete in %s (winner %q, draw %t)", h.id, e.Outcome.Winner, e.Outcome.Draw)
		}
	}

	h.syncClock()
	h.broadcastEvents(events)
	h.broadcast(h.stateMessage())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const profileCookieName = "papelito_profile"

func getOrSetProfileID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(profileCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     profileCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds one hub per browser profile. Hubs are created on demand
// from the saved game and unloaded again once idle.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	backend     storage.Backend
	errs        chan<- error
}

func newGameManager(ctx context.Context, backend storage.Backend, idleTimeout time.Duration, errs chan<- error) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		backend:     backend,
		errs:        errs,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop(ctx)
	}
	return gm
}

func (gm *GameManager) report(profileID string) func(error) {
	return func(err error) {
		select {
		case gm.errs <- fmt.Errorf("profile %s: %w", profileID, err):
		default:
		}
	}
}

func (gm *GameManager) getHub(cfg *Config, profileID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[profileID]; ok {
		return hub
	}

	store := papelito.NewStore(context.Background(), gm.backend.Scope(profileID), gm.report(profileID))
	hub := newHub(profileID, papelito.NewGame(store, nil))
	gm.hubs[profileID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Loaded game for %s (screen %q)", profileID, store.Get().Screen)

	return hub
}

// reaperLoop periodically unloads hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop(ctx context.Context) {
	ticker := time.NewTicker(max(gm.idleTimeout/2, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			if hub.idleSince().Before(cutoff) {
				delete(gm.hubs, id)
				hub.stop()
			}
		}
		gm.mu.Unlock()
	}
}

// closeAll stops every hub (used on shutdown).
func (gm *GameManager) closeAll() {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.stop()
	}
}

// WebSocket handler that picks the hub based on the profile cookie
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		profileID := getOrSetProfileID(w, r)
		if profileID == "" {
			http.Error(w, "unable to assign profile id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, profileID)

		// The server's read and write timeouts would otherwise close the socket.
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		// Upgrade writes only the headers it is given, so a new profile
		// cookie has to be passed along explicitly.
		var header http.Header
		if cookies := w.Header().Values("Set-Cookie"); len(cookies) > 0 {
			header = http.Header{"Set-Cookie": cookies}
		}

		conn, err := upgrader.Upgrade(w, r, header)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 32),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.actions <- actionRequest{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveState returns the saved game of the requesting profile as JSON.
func serveState(cfg *Config, gm *GameManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		profileID := getOrSetProfileID(w, r)
		if profileID == "" {
			http.Error(w, "unable to assign profile id", http.StatusInternalServerError)
			return
		}

		hub := gm.getHub(cfg, profileID)
		state := hub.game.State()

		data, err := json.Marshal(StateMessage{
			Type:    "state",
			State:   state,
			Outcome: papelito.Leader(state.Scores),
		})
		if err != nil {
			errs <- err
			http.Error(w, "unable to encode state", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: State (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// QR handler: generates a PNG QR code for the game page URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../papelito/qr; strip trailing "/qr" to get the page URL.
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

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/papelito/index.html")
		if err != nil {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetProfileID(w, r)

		_, _ = w.Write(data)
	}
}

// registerPapelitoGame sets up routes so that:
//   - $path           → HTML client
//   - $path/ws        → WebSocket for the profile's game
//   - $path/state     → JSON snapshot of the profile's game
//   - $path/qr        → PNG QR code for the page URL
func registerPapelitoGame(cfg *Config, path string, mux *httprouter.Router, gm *GameManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/state", serveState(cfg, gm, errs))

	mux.GET(cfg.prefix+path+"/qr", qrHandler)
}
