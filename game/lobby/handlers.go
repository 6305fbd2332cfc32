package lobby

import (
	"strings"
	"unicode/utf8"

	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/protocol"
)

// Reasons sent with failed acknowledgments
const (
	ReasonNameRequired   = "Please enter a display name."
	ReasonAlreadyJoined  = "You have already joined the lobby."
	ReasonCreateFields   = "Difficulty and opponent type are required."
	ReasonGameNotFound   = "That game no longer exists."
	ReasonOwnGame        = "You are already in this game."
	ReasonAIGame         = "That game is being played against the AI."
	ReasonGameStarted    = "That game has already started."
	ReasonAlreadyPlaying = "You are already playing a game."
	ReasonNotInGame      = "You are not in a game."
	ReasonNotYourTurn    = "It is not your turn."
	ReasonGameNotRunning = "The game is not in progress."
)

func (m *Manager) handleLobbyJoin(c *connection, msg protocol.LobbyJoin) {
	if c.joined {
		m.Send(protocol.Failure(protocol.EventLobbyJoin, ReasonAlreadyJoined), c.id)
		return
	}

	name := clean(msg.Username, m.maxName)
	if name == "" {
		m.Send(protocol.Failure(protocol.EventLobbyJoin, ReasonNameRequired), c.id)
		return
	}

	c.name = name
	c.joined = true
	m.logger.Printf("[LOBBY] conn=%d joined as %q", c.id, name)

	m.systemChat(name + " has connected.")
	m.Send(protocol.Success(protocol.EventLobbyJoin), c.id)

	// Everyone else already has the projection.
	for _, id := range m.gameIDs() {
		m.Send(m.games[id].status(), c.id)
	}
}

func (m *Manager) handleChatMessage(c *connection, msg protocol.ChatMessage) {
	text := clean(msg.Message, m.maxChat)
	if text == "" {
		return
	}
	m.Broadcast(protocol.NewChat(m.now().UnixMilli(), c.name, text))
}

func (m *Manager) handleGameCreate(c *connection, msg protocol.GameCreate) {
	if msg.Difficulty == nil || msg.OpponentType == nil {
		m.Send(protocol.Failure(protocol.EventGameCreate, ReasonCreateFields), c.id)
		return
	}
	if reason, ok := m.releaseGame(c); !ok {
		m.Send(protocol.Failure(protocol.EventGameCreate, reason), c.id)
		return
	}

	vsAI := *msg.OpponentType == protocol.OpponentAI
	g := m.newGame(nim.ParseDifficulty(*msg.Difficulty), vsAI, c)

	m.Broadcast(g.status())
	m.Send(protocol.Ack{Type: protocol.EventGameCreate, Success: true, GameID: uint64(g.id)}, c.id)

	if vsAI {
		if err := g.start(); err != nil {
			m.logger.Printf("[LOBBY] %v", err)
			return
		}
		m.Broadcast(g.status())
	}
}

func (m *Manager) handleGameJoin(c *connection, msg protocol.GameJoin) {
	if msg.ID == nil || *msg.ID <= 0 {
		m.Send(protocol.Failure(protocol.EventGameJoin, ReasonGameNotFound), c.id)
		return
	}

	g, ok := m.games[GameID(*msg.ID)]
	switch {
	case !ok:
		m.Send(protocol.Failure(protocol.EventGameJoin, ReasonGameNotFound), c.id)
		return
	case g.id == c.game:
		m.Send(protocol.Failure(protocol.EventGameJoin, ReasonOwnGame), c.id)
		return
	case g.match.VsAI():
		m.Send(protocol.Failure(protocol.EventGameJoin, ReasonAIGame), c.id)
		return
	case g.match.State() != nim.StateInLobby || g.players[1] != 0:
		m.Send(protocol.Failure(protocol.EventGameJoin, ReasonGameStarted), c.id)
		return
	}

	if reason, ok := m.releaseGame(c); !ok {
		m.Send(protocol.Failure(protocol.EventGameJoin, reason), c.id)
		return
	}

	g.players[1] = c.id
	c.game = g.id
	m.logger.Printf("[LOBBY] conn=%d joined game=%d", c.id, g.id)

	m.Send(protocol.Success(protocol.EventGameJoin), c.id)
	if err := g.start(); err != nil {
		m.logger.Printf("[LOBBY] %v", err)
		return
	}
	m.Broadcast(g.status())
}

func (m *Manager) handleGameLeave(c *connection) {
	g, ok := m.games[c.game]
	if !ok {
		c.game = 0
		m.Send(protocol.Failure(protocol.EventGameLeave, ReasonNotInGame), c.id)
		return
	}

	g.terminate(c.id)
	m.removeGame(g)
	m.logger.Printf("[LOBBY] conn=%d left game=%d", c.id, g.id)

	m.Send(protocol.Success(protocol.EventGameLeave), c.id)
	m.Broadcast(protocol.GameClosed(uint64(g.id)))
}

// releaseGame frees c from its current game before it creates or joins
// another. A waiting or finished game is closed silently; a game in progress
// blocks the request.
func (m *Manager) releaseGame(c *connection) (string, bool) {
	g, ok := m.games[c.game]
	if !ok {
		c.game = 0
		return "", true
	}
	if g.match.State() == nim.StateInGame {
		return ReasonAlreadyPlaying, false
	}

	g.terminate(c.id)
	m.removeGame(g)
	m.Broadcast(protocol.GameClosed(uint64(g.id)))
	return "", true
}

// clean trims s and truncates it to max runes
func clean(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && utf8.RuneCountInString(s) > max {
		s = strings.TrimSpace(string([]rune(s)[:max]))
	}
	return s
}
