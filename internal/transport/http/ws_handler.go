package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"geocraft/internal/app"
	"geocraft/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Timers schedules the countdown and the post-answer delay.
type Timers interface {
	Every(interval time.Duration, fn func()) (func(), error)
	After(delay time.Duration, fn func()) (func(), error)
}

// ConnectionObserver is told about websocket connections opening and closing.
type ConnectionObserver interface {
	ConnectionOpened()
	ConnectionClosed()
}

type WSHandler struct {
	games    *app.GameService
	accounts *app.AccountService
	catalog  *app.CatalogService
	timers   Timers
	log      *zap.Logger
	observer ConnectionObserver
	tick     time.Duration
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService, accounts *app.AccountService, catalog *app.CatalogService, timers Timers, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		games:    games,
		accounts: accounts,
		catalog:  catalog,
		timers:   timers,
		log:      log,
		tick:     time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ObserveConnections registers o to be told about every connection.
func (h *WSHandler) ObserveConnections(o ConnectionObserver) {
	h.observer = o
}

const (
	msgRegister       = "register"
	msgLogin          = "login"
	msgChangePassword = "changePassword"
	msgStart          = "start"
	msgResume         = "resume"
	msgChoice         = "choice"
	msgHint           = "hint"
	msgFlag           = "flag"
	msgLeaderboard    = "leaderboard"
	msgStats          = "stats"
	msgContinents     = "continents"
	msgQuit           = "quit"
	msgAbandon        = "abandon"

	outRegistered      = "registered"
	outLoggedIn        = "loggedIn"
	outPasswordChanged = "passwordChanged"
	outRound           = "round"
	outChoiceResult    = "choiceResult"
	outReveal          = "reveal"
	outTick            = "tick"
	outEnded           = "ended"
	outLeaderboard     = "leaderboard"
	outStats           = "stats"
	outContinents      = "continents"
	outSuspended       = "suspended"
	outError           = "error"

	defaultLeaderboardSize = 10
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordPayload struct {
	Current string `json:"current"`
	New     string `json:"new"`
	Confirm string `json:"confirm"`
}

type startPayload struct {
	Mode      string `json:"mode"`
	Type      string `json:"type"`
	Continent string `json:"continent"`
}

type choicePayload struct {
	Text string `json:"text"`
}

type leaderboardPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type tickPayload struct {
	TimeLeft int `json:"timeLeft"`
}

type endedPayload struct {
	Summary app.Summary        `json:"summary"`
	Stats   domain.PlayerStats `json:"stats"`
}

// ServeWS upgrades HTTP requests to websockets and runs one player's connection.
// Everything a connection does, including timer callbacks, runs on a single event loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.observer != nil {
		h.observer.ConnectionOpened()
		defer h.observer.ConnectionClosed()
	}

	c := &client{
		h:      h,
		ctx:    r.Context(),
		log:    h.log.With(zap.String("remote", r.RemoteAddr)),
		send:   make(chan outboundMessage[any], 16),
		events: make(chan func(), 16),
		done:   make(chan struct{}),
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Debug("ws write error", zap.Error(err))
				for range c.send {
				}
				return
			}
		}
	}()

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-c.done:
				return
			}
		}
	}()

loop:
	for {
		select {
		case msg := <-inbound:
			c.handle(msg)
		case fn := <-c.events:
			fn()
		case <-readerDone:
			break loop
		}
	}

	close(c.done)
	c.disconnect()
	close(c.send)
	<-writerDone
}

// client is the per-connection state. Only the event loop touches it.
type client struct {
	h       *WSHandler
	ctx     context.Context
	log     *zap.Logger
	user    string
	session *app.Session

	stopCountdown func()
	stopAdvance   func()

	send   chan outboundMessage[any]
	events chan func()
	done   chan struct{}
}

func (c *client) handle(msg inboundMessage) {
	switch msg.Type {
	case msgRegister:
		var p credentialsPayload
		if c.decode(msg, &p) {
			c.register(p)
		}
	case msgLogin:
		var p credentialsPayload
		if c.decode(msg, &p) {
			c.login(p)
		}
	case msgChangePassword:
		var p changePasswordPayload
		if c.decode(msg, &p) && c.requireLogin() {
			c.changePassword(p)
		}
	case msgStart:
		var p startPayload
		if c.decode(msg, &p) && c.requireLogin() {
			c.start(p)
		}
	case msgResume:
		if c.requireLogin() {
			c.resume()
		}
	case msgChoice:
		var p choicePayload
		if c.decode(msg, &p) && c.requireSession() {
			c.choose(p.Text)
		}
	case msgHint:
		if c.requireSession() {
			c.reveal(c.h.games.RevealHint)
		}
	case msgFlag:
		if c.requireSession() {
			c.reveal(c.h.games.RevealFlag)
		}
	case msgLeaderboard:
		var p leaderboardPayload
		if c.decode(msg, &p) {
			c.leaderboard(p.Limit)
		}
	case msgStats:
		if c.requireLogin() {
			c.stats(outStats)
		}
	case msgContinents:
		c.emit(outContinents, c.h.catalog.Continents(c.ctx))
	case msgQuit:
		if c.requireSession() {
			c.suspend()
			c.emit(outSuspended, struct{}{})
		}
	case msgAbandon:
		if c.requireSession() {
			c.abandon()
		}
	default:
		c.emit(outError, errorPayload{Message: "unsupported message type"})
	}
}

func (c *client) register(p credentialsPayload) {
	res, err := c.h.accounts.Register(c.ctx, p.Username, p.Password)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(outRegistered, res)
}

func (c *client) login(p credentialsPayload) {
	if err := c.h.accounts.Authenticate(c.ctx, p.Username, p.Password); err != nil {
		c.fail(err)
		return
	}
	if c.user != p.Username {
		c.suspend()
	}
	c.user = p.Username
	c.log = c.log.With(zap.String("user", c.user))
	c.stats(outLoggedIn)
}

func (c *client) changePassword(p changePasswordPayload) {
	if err := c.h.accounts.ChangePassword(c.ctx, c.user, p.Current, p.New, p.Confirm); err != nil {
		c.fail(err)
		return
	}
	c.emit(outPasswordChanged, struct{}{})
}

func (c *client) start(p startPayload) {
	mode, err := domain.ParseMode(p.Mode)
	if err != nil {
		c.fail(err)
		return
	}
	typ, err := domain.ParsePlayType(p.Type)
	if err != nil {
		c.fail(err)
		return
	}
	c.stopTimers()
	s, round, err := c.h.games.Start(c.ctx, c.user, mode, typ, p.Continent)
	if err != nil {
		c.fail(err)
		return
	}
	c.attach(s, round)
}

func (c *client) resume() {
	c.stopTimers()
	s, round, err := c.h.games.Resume(c.ctx, c.user)
	if err != nil {
		c.fail(err)
		return
	}
	c.attach(s, round)
}

func (c *client) attach(s *app.Session, round app.Round) {
	c.session = s
	if s.Ended() {
		c.finish(s)
		return
	}
	if s.Type() == domain.Timed {
		stop, err := c.h.timers.Every(c.h.tick, func() {
			c.post(func() { c.countdown(s) })
		})
		if err != nil {
			c.log.Error("countdown not scheduled", zap.Error(err))
		} else {
			c.stopCountdown = stop
		}
	}
	c.emit(outRound, round)
}

func (c *client) choose(text string) {
	s := c.session
	res, err := c.h.games.Submit(c.ctx, s, text)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(outChoiceResult, res)
	if s.Ended() {
		c.finish(s)
		return
	}
	if res.Advance {
		stop, err := c.h.timers.After(c.h.games.Rules().AdvanceDelay, func() {
			c.post(func() { c.advance(s) })
		})
		if err != nil {
			c.log.Error("advance not scheduled", zap.Error(err))
			c.advance(s)
			return
		}
		c.stopAdvance = stop
	}
}

func (c *client) advance(s *app.Session) {
	if c.session != s {
		return
	}
	c.stopAdvance = nil
	round, err := c.h.games.Advance(c.ctx, s)
	if err != nil {
		c.fail(err)
		return
	}
	if s.Ended() {
		c.finish(s)
		return
	}
	c.emit(outRound, round)
}

func (c *client) countdown(s *app.Session) {
	if c.session != s {
		return
	}
	ended, err := c.h.games.Tick(c.ctx, s)
	if err != nil {
		c.log.Error("tick not persisted", zap.Error(err))
	}
	if ended {
		c.finish(s)
		return
	}
	c.emit(outTick, tickPayload{TimeLeft: s.Round().TimeLeft})
}

func (c *client) reveal(fn func(context.Context, *app.Session) (app.RevealResult, error)) {
	res, err := fn(c.ctx, c.session)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(outReveal, res)
}

func (c *client) abandon() {
	s := c.session
	if _, err := c.h.games.Abandon(c.ctx, c.user); err != nil {
		c.fail(err)
		return
	}
	c.finish(s)
}

func (c *client) finish(s *app.Session) {
	c.stopTimers()
	c.session = nil
	stats, err := c.h.accounts.Stats(c.ctx, c.user)
	if err != nil {
		c.log.Warn("stats unavailable", zap.Error(err))
	}
	c.emit(outEnded, endedPayload{Summary: s.Summary(), Stats: stats})
}

func (c *client) leaderboard(limit int) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	entries, err := c.h.accounts.Leaderboard(c.ctx, limit)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(outLeaderboard, entries)
}

func (c *client) stats(typ string) {
	stats, err := c.h.accounts.Stats(c.ctx, c.user)
	if err != nil {
		c.fail(err)
		return
	}
	c.emit(typ, stats)
}

// suspend detaches the live session, leaving its save string for a later resume.
func (c *client) suspend() {
	c.stopTimers()
	if c.session != nil {
		c.h.games.Quit(c.user)
		c.session = nil
	}
}

func (c *client) disconnect() {
	c.suspend()
}

func (c *client) stopTimers() {
	if c.stopCountdown != nil {
		c.stopCountdown()
		c.stopCountdown = nil
	}
	if c.stopAdvance != nil {
		c.stopAdvance()
		c.stopAdvance = nil
	}
}

// post queues fn on the event loop; it is dropped once the connection is gone.
func (c *client) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

func (c *client) emit(typ string, payload any) {
	c.send <- outboundMessage[any]{Type: typ, Payload: payload}
}

func (c *client) fail(err error) {
	if !isPlayerError(err) {
		c.log.Error("request failed", zap.Error(err))
	}
	c.emit(outError, errorPayload{Message: err.Error()})
}

func (c *client) decode(msg inboundMessage, v any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.emit(outError, errorPayload{Message: "invalid " + msg.Type + " payload"})
		return false
	}
	return true
}

func (c *client) requireLogin() bool {
	if c.user == "" {
		c.fail(domain.ErrNotLoggedIn)
		return false
	}
	return true
}

func (c *client) requireSession() bool {
	if !c.requireLogin() {
		return false
	}
	if c.session == nil {
		c.fail(domain.ErrNoActiveSession)
		return false
	}
	return true
}

var playerErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrInvalidCredentials,
	domain.ErrCredentialsFormat,
	domain.ErrPasswordMismatch,
	domain.ErrModeLocked,
	domain.ErrNoSavedSession,
	domain.ErrCorruptSave,
	domain.ErrUnknownMode,
	domain.ErrUnknownPlayType,
	domain.ErrNotEnoughCandidates,
	domain.ErrSessionEnded,
	domain.ErrRoundNotActive,
	domain.ErrRoundUnresolved,
	domain.ErrUnknownChoice,
	domain.ErrChoiceDisabled,
	domain.ErrNoActiveSession,
	domain.ErrNotLoggedIn,
}

// isPlayerError reports whether err is an expected outcome of player input rather than a fault.
func isPlayerError(err error) bool {
	for _, target := range playerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
