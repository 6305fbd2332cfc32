package lobby

import (
	"time"

	"github.com/wricardo/nim-lobby/game/nim"
)

// GameInfo is a read-only view of one game
type GameInfo struct {
	ID         uint64         `json:"id"`
	Player1    string         `json:"player1"`
	Player2    string         `json:"player2"`
	State      nim.State      `json:"state"`
	Difficulty nim.Difficulty `json:"difficulty"`
	VsAI       bool           `json:"vsAI"`
	Marbles    int            `json:"marbles"`
	Turn       string         `json:"turn"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// PlayerInfo is a read-only view of one connection
type PlayerInfo struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	TraceID     string    `json:"traceId"`
	Joined      bool      `json:"joined"`
	GameID      uint64    `json:"gameId,omitempty"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Stats summarises the registry
type Stats struct {
	Connections  int               `json:"connections"`
	Players      int               `json:"players"`
	Games        int               `json:"games"`
	GamesByState map[nim.State]int `json:"gamesByState"`
	Uptime       string            `json:"uptime"`
}

// Games returns every game in id order
func (m *Manager) Games() []GameInfo {
	ids := m.gameIDs()
	out := make([]GameInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.games[id].info())
	}
	return out
}

// Game returns one game
func (m *Manager) Game(id GameID) (GameInfo, bool) {
	g, ok := m.games[id]
	if !ok {
		return GameInfo{}, false
	}
	return g.info(), true
}

// Players returns every connection in id order
func (m *Manager) Players() []PlayerInfo {
	ids := m.connIDs()
	out := make([]PlayerInfo, 0, len(ids))
	for _, id := range ids {
		c := m.conns[id]
		out = append(out, PlayerInfo{
			ID:          uint64(c.id),
			Name:        c.name,
			TraceID:     c.traceID,
			Joined:      c.joined,
			GameID:      uint64(c.game),
			ConnectedAt: c.connectedAt,
		})
	}
	return out
}

// Stats returns registry counters
func (m *Manager) Stats() Stats {
	s := Stats{
		Connections:  len(m.conns),
		Games:        len(m.games),
		GamesByState: make(map[nim.State]int),
		Uptime:       m.now().Sub(m.startedAt).Round(time.Second).String(),
	}
	for _, c := range m.conns {
		if c.joined {
			s.Players++
		}
	}
	for _, g := range m.games {
		s.GamesByState[g.match.State()]++
	}
	return s
}

// Rules returns the difficulty ranges in use
func (m *Manager) Rules() nim.Rules {
	return m.rules
}

func (g *Game) info() GameInfo {
	turn := g.match.Turn()
	return GameInfo{
		ID:         uint64(g.id),
		Player1:    g.host.nameOf(g.players[0]),
		Player2:    g.opponentName(),
		State:      g.match.State(),
		Difficulty: g.match.Difficulty(),
		VsAI:       g.match.VsAI(),
		Marbles:    g.match.Pool(),
		Turn:       turn.String(),
		CreatedAt:  g.createdAt,
	}
}
