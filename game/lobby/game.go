package lobby

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/protocol"
)

// GameID is the handle of a game instance. Zero means "no game".
type GameID uint64

// Game is one pending or running match and its two participants. Slot 0 is
// always a human; slot 1 is a human, empty, or the AI.
type Game struct {
	id        GameID
	match     *nim.Match
	players   [2]ConnID
	host      *Manager
	createdAt time.Time
	aiPending bool
}

// ID returns the game handle
func (g *Game) ID() GameID { return g.id }

// State returns the lifecycle state of the underlying match
func (g *Game) State() nim.State { return g.match.State() }

// slotOf returns the slot occupied by conn, or NoSlot
func (g *Game) slotOf(conn ConnID) nim.Slot {
	switch {
	case conn == 0:
		return nim.NoSlot
	case g.players[0] == conn:
		return nim.Slot0
	case g.players[1] == conn:
		return nim.Slot1
	default:
		return nim.NoSlot
	}
}

// isAI reports whether slot is played by the computer
func (g *Game) isAI(slot nim.Slot) bool {
	return slot == nim.Slot1 && g.match.VsAI()
}

// handle dispatches in-game actions. It reports false when the game has no
// handler for the message.
func (g *Game) handle(msg protocol.Inbound, from *connection) bool {
	switch msg := msg.(type) {
	case protocol.PlayTurn:
		g.handlePlayTurn(msg, from)
		return true
	default:
		return false
	}
}

func (g *Game) handlePlayTurn(msg protocol.PlayTurn, from *connection) {
	slot := g.slotOf(from.id)

	// A non-integer amount is still checked against the turn first.
	amount, ok := msg.Amount()
	if !ok {
		amount = 0
	}

	if err := g.playTurn(slot, amount); err != nil {
		g.host.Send(protocol.Failure(protocol.EventPlayTurn, g.rejectReason(err)), from.id)
	}
}

// start moves the game from the lobby into play and notifies both slots
func (g *Game) start() error {
	if err := g.match.Start(g.host.rng); err != nil {
		return fmt.Errorf("start game %d: %w", g.id, err)
	}

	g.host.logger.Printf("[GAME] game=%d started difficulty=%s marbles=%d turn=%s ai=%t",
		g.id, g.match.Difficulty(), g.match.Pool(), g.match.Turn(), g.match.VsAI())

	g.sendTurnState(protocol.EventGameStart)
	g.scheduleAIMove()
	return nil
}

// playTurn applies a move for slot and notifies both players
func (g *Game) playTurn(slot nim.Slot, amount int) error {
	res, err := g.match.Play(slot, amount)
	if err != nil {
		return err
	}

	g.host.logger.Printf("[GAME] game=%d %s took %d, %d left", g.id, slot, res.Taken, res.Pool)

	if res.Finished {
		for _, s := range []nim.Slot{nim.Slot0, nim.Slot1} {
			if id := g.players[s]; id != 0 {
				g.host.Send(protocol.GameOver{
					Type: protocol.EventGameOver,
					Win:  s == res.Winner,
					AI:   g.match.VsAI(),
				}, id)
			}
		}
		g.host.logger.Printf("[GAME] game=%d over, winner=%s", g.id, res.Winner)
		g.host.Broadcast(g.status())
		return nil
	}

	g.sendTurnState(protocol.EventGameUpdate)
	g.scheduleAIMove()
	return nil
}

// terminate ends the game early and tells the slot other than initiator.
// Removing the game from the table is left to the Manager.
func (g *Game) terminate(initiator ConnID) {
	if err := g.match.Terminate(); err != nil {
		return
	}

	other := g.slotOf(initiator).Other()
	if other == nim.NoSlot {
		return
	}
	if id := g.players[other]; id != 0 {
		g.host.Send(protocol.NewGameTerminate(), id)
	}
	g.host.logger.Printf("[GAME] game=%d terminated by conn=%d", g.id, initiator)
}

// sendTurnState sends the pool to each human slot with its own turn flag
func (g *Game) sendTurnState(event protocol.Event) {
	for _, s := range []nim.Slot{nim.Slot0, nim.Slot1} {
		id := g.players[s]
		if id == 0 {
			continue
		}
		g.host.Send(protocol.TurnState{
			Type:     event,
			Marbles:  g.match.Pool(),
			YourTurn: g.match.Turn() == s,
		}, id)
	}
}

// scheduleAIMove defers the computer's move when it holds the turn. The
// callback carries the game handle only.
func (g *Game) scheduleAIMove() {
	if g.aiPending || g.match.State() != nim.StateInGame || !g.isAI(g.match.Turn()) {
		return
	}

	g.aiPending = true
	id, host := g.id, g.host
	host.sched.AfterFunc(host.aiDelay, func() {
		host.runAIMove(id)
	})
}

// playAIMove executes the deferred computer move
func (g *Game) playAIMove() {
	g.aiPending = false
	if g.match.State() != nim.StateInGame || !g.isAI(g.match.Turn()) {
		return
	}

	amount := nim.ChooseMove(g.match.Pool(), g.host.rng)
	if err := g.playTurn(nim.Slot1, amount); err != nil {
		g.host.logger.Printf("[GAME] game=%d AI move %d rejected: %v", g.id, amount, err)
	}
}

// rejectReason maps a rules error to the text shown to the player
func (g *Game) rejectReason(err error) string {
	switch {
	case errors.Is(err, nim.ErrNotYourTurn):
		return ReasonNotYourTurn
	case errors.Is(err, nim.ErrInvalidAmount):
		return fmt.Sprintf("You must remove between 1 and %d marbles.", nim.MaxTake(g.match.Pool()))
	default:
		return ReasonGameNotRunning
	}
}

// status projects the game into its lobby entry
func (g *Game) status() protocol.GameStatus {
	return protocol.GameStatus{
		Type:      protocol.EventGameStatusUpdate,
		GameID:    uint64(g.id),
		Player1:   g.host.nameOf(g.players[0]),
		Player2:   g.opponentName(),
		GameState: string(g.match.State()),
	}
}

func (g *Game) opponentName() string {
	switch {
	case g.match.VsAI():
		return protocol.PlayerAI
	case g.players[1] == 0:
		return protocol.PlayerNobody
	default:
		return g.host.nameOf(g.players[1])
	}
}
