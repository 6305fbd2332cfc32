package lobby

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/wricardo/nim-lobby/game/clock"
	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/protocol"
)

// Defaults used when no option overrides them
const (
	DefaultAIDelay       = 1500 * time.Millisecond
	DefaultMaxNameLength = 24
	DefaultMaxChatLength = 500
)

// Manager owns the connection and game tables and routes client messages
type Manager struct {
	sched   clock.Scheduler
	rng     nim.Rand
	rules   nim.Rules
	aiDelay time.Duration
	maxName int
	maxChat int
	logger  *log.Logger
	now     func() time.Time

	conns    map[ConnID]*connection
	games    map[GameID]*Game
	lastConn ConnID
	lastGame GameID

	startedAt time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithRand sets the randomness source for pools, opening turns and AI moves
func WithRand(rng nim.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithRules sets the difficulty ranges
func WithRules(rules nim.Rules) Option {
	return func(m *Manager) { m.rules = rules }
}

// WithAIDelay sets the artificial thinking time of the AI opponent
func WithAIDelay(d time.Duration) Option {
	return func(m *Manager) { m.aiDelay = d }
}

// WithLimits caps display name and chat message lengths, in runes
func WithLimits(maxName, maxChat int) Option {
	return func(m *Manager) {
		if maxName > 0 {
			m.maxName = maxName
		}
		if maxChat > 0 {
			m.maxChat = maxChat
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithNow overrides the wall clock used for chat timestamps
func WithNow(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// NewManager creates an empty registry. sched must deliver callbacks on the
// goroutine that calls the Manager.
func NewManager(sched clock.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		sched:   sched,
		rng:     globalRand{},
		rules:   nim.DefaultRules(),
		aiDelay: DefaultAIDelay,
		maxName: DefaultMaxNameLength,
		maxChat: DefaultMaxChatLength,
		logger:  log.Default(),
		now:     time.Now,
		conns:   make(map[ConnID]*connection),
		games:   make(map[GameID]*Game),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now()
	return m
}

// Connect registers a new transport and returns its handle. Nothing is
// announced until the client joins the lobby.
func (m *Manager) Connect(conn Conn) ConnID {
	m.lastConn++
	c := newConnection(m.lastConn, conn, m.now())
	m.conns[c.id] = c

	m.logger.Printf("[LOBBY] conn=%d trace=%s connected (total: %d)", c.id, c.traceID, len(m.conns))
	return c.id
}

// Receive routes a decoded message. Lobby-level handlers take precedence;
// otherwise the sender's current game gets a chance; anything else is
// ignored.
func (m *Manager) Receive(msg protocol.Inbound, id ConnID) {
	c, ok := m.conns[id]
	if !ok || msg == nil {
		return
	}

	switch msg := msg.(type) {
	case protocol.LobbyJoin:
		m.handleLobbyJoin(c, msg)
		return
	case protocol.ChatMessage:
		m.handleChatMessage(c, msg)
		return
	case protocol.GameCreate:
		m.handleGameCreate(c, msg)
		return
	case protocol.GameJoin:
		m.handleGameJoin(c, msg)
		return
	case protocol.GameLeave:
		m.handleGameLeave(c)
		return
	}

	if g, ok := m.games[c.game]; ok && g.handle(msg, c) {
		return
	}

	if _, unknown := msg.(protocol.Unknown); unknown {
		m.logger.Printf("[LOBBY] conn=%d ignoring unknown event %q", id, msg.Event())
	}
}

// Send delivers msg to one connection. Unknown handles are ignored.
func (m *Manager) Send(msg protocol.Outbound, id ConnID) {
	c, ok := m.conns[id]
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Printf("[LOBBY] failed to marshal %s: %v", msg.OutboundEvent(), err)
		return
	}
	if err := c.conn.Send(data); err != nil {
		m.logger.Printf("[LOBBY] conn=%d send %s failed: %v", id, msg.OutboundEvent(), err)
	}
}

// Broadcast delivers msg to every registered connection
func (m *Manager) Broadcast(msg protocol.Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Printf("[LOBBY] failed to marshal broadcast %s: %v", msg.OutboundEvent(), err)
		return
	}

	for _, id := range m.connIDs() {
		if err := m.conns[id].conn.Send(data); err != nil {
			m.logger.Printf("[LOBBY] conn=%d broadcast %s failed: %v", id, msg.OutboundEvent(), err)
		}
	}
}

// Disconnect tears a connection down. It terminates and removes the
// connection's game, clears the table slot, and only then notifies the
// remaining clients. Calling it again for the same handle does nothing.
func (m *Manager) Disconnect(id ConnID) {
	c, ok := m.conns[id]
	if !ok {
		return
	}

	var closed GameID
	if g, ok := m.games[c.game]; ok {
		g.terminate(id)
		m.removeGame(g)
		closed = g.id
	}

	delete(m.conns, id)
	if err := c.conn.Close(); err != nil {
		m.logger.Printf("[LOBBY] conn=%d close: %v", id, err)
	}
	m.logger.Printf("[LOBBY] conn=%d (%s) disconnected (remaining: %d)", id, c.name, len(m.conns))

	m.systemChat(c.name + " has disconnected.")
	if closed != 0 {
		m.Broadcast(protocol.GameClosed(uint64(closed)))
	}
}

// Connected reports whether id is still registered
func (m *Manager) Connected(id ConnID) bool {
	_, ok := m.conns[id]
	return ok
}

// newGame registers a game in the lobby with creator in slot 0
func (m *Manager) newGame(difficulty nim.Difficulty, vsAI bool, creator *connection) *Game {
	m.lastGame++
	g := &Game{
		id:        m.lastGame,
		match:     nim.NewMatch(difficulty, vsAI, m.rules),
		host:      m,
		createdAt: m.now(),
	}
	g.players[0] = creator.id
	m.games[g.id] = g
	creator.game = g.id

	m.logger.Printf("[LOBBY] game=%d created by conn=%d difficulty=%s ai=%t", g.id, creator.id, difficulty, vsAI)
	return g
}

// removeGame drops g from the table and clears every back-reference to it
func (m *Manager) removeGame(g *Game) {
	delete(m.games, g.id)
	for _, pid := range g.players {
		if c, ok := m.conns[pid]; ok && c.game == g.id {
			c.game = 0
		}
	}
}

// runAIMove is the deferred AI callback. The game may be gone by now.
func (m *Manager) runAIMove(id GameID) {
	g, ok := m.games[id]
	if !ok {
		return
	}
	g.playAIMove()
}

func (m *Manager) systemChat(text string) {
	m.Broadcast(protocol.NewChat(m.now().UnixMilli(), protocol.SystemSender, text))
}

func (m *Manager) nameOf(id ConnID) string {
	if c, ok := m.conns[id]; ok {
		return c.name
	}
	return DefaultName
}

func (m *Manager) connIDs() []ConnID {
	ids := make([]ConnID, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) gameIDs() []GameID {
	ids := make([]GameID, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
