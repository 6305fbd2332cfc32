package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingEvent = errors.New("message has no event")
	ErrMalformed    = errors.New("malformed message")
)

// Event is the message discriminator
type Event string

const (
	EventHeartbeat        Event = "heartbeat"
	EventBeat             Event = "beat"
	EventLobbyJoin        Event = "lobby-join"
	EventChatMessage      Event = "chat-message"
	EventGameCreate       Event = "game-create"
	EventGameJoin         Event = "game-join"
	EventGameLeave        Event = "game-leave"
	EventPlayTurn         Event = "play-turn"
	EventGameStatusUpdate Event = "game-status-update"
	EventGameStart        Event = "game-start"
	EventGameUpdate       Event = "game-update"
	EventGameOver         Event = "game-over"
	EventGameTerminate    Event = "game-terminate"
)

// Opponent types accepted by game-create
const (
	OpponentAI    = "ai"
	OpponentHuman = "human"
)

// Inbound is a decoded client message. The set of implementations is closed.
type Inbound interface {
	Event() Event
	inbound()
}

// Beat acknowledges a heartbeat probe
type Beat struct{}

// LobbyJoin declares the sender's display name
type LobbyJoin struct {
	Username string `json:"username"`
}

// ChatMessage posts text to the lobby chat
type ChatMessage struct {
	Message string `json:"message"`
}

// GameCreate opens a new game. Both fields are required.
type GameCreate struct {
	Difficulty   *string `json:"difficulty"`
	OpponentType *string `json:"opponentType"`
}

// GameJoin takes the second seat of a waiting game
type GameJoin struct {
	ID *int64 `json:"id"`
}

// GameLeave abandons the sender's current game
type GameLeave struct{}

// PlayTurn removes marbles from the pool. Marbles is kept raw so any value
// reaches the game and gets a reply, not only numbers.
type PlayTurn struct {
	Marbles json.RawMessage `json:"marbles"`
}

// Unknown carries a discriminator this server does not handle
type Unknown struct {
	Name Event
}

func (Beat) Event() Event        { return EventBeat }
func (LobbyJoin) Event() Event   { return EventLobbyJoin }
func (ChatMessage) Event() Event { return EventChatMessage }
func (GameCreate) Event() Event  { return EventGameCreate }
func (GameJoin) Event() Event    { return EventGameJoin }
func (GameLeave) Event() Event   { return EventGameLeave }
func (PlayTurn) Event() Event    { return EventPlayTurn }
func (u Unknown) Event() Event   { return u.Name }

func (Beat) inbound()        {}
func (LobbyJoin) inbound()   {}
func (ChatMessage) inbound() {}
func (GameCreate) inbound()  {}
func (GameJoin) inbound()    {}
func (GameLeave) inbound()   {}
func (PlayTurn) inbound()    {}
func (Unknown) inbound()     {}

// Amount returns the requested marble count when it is a whole number. A
// quoted number is accepted as well.
func (p PlayTurn) Amount() (int, bool) {
	text := string(bytes.TrimSpace(p.Marbles))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(p.Marbles, &s); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(s)
	}
	if text == "" || text == "null" {
		return 0, false
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Decode parses a raw client frame
func Decode(data []byte) (Inbound, error) {
	var envelope struct {
		Event Event `json:"event"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if envelope.Event == "" {
		return nil, ErrMissingEvent
	}

	var msg Inbound
	switch envelope.Event {
	case EventBeat:
		return Beat{}, nil
	case EventGameLeave:
		return GameLeave{}, nil
	case EventLobbyJoin:
		var m LobbyJoin
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Event, err)
		}
		msg = m
	case EventChatMessage:
		var m ChatMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Event, err)
		}
		msg = m
	case EventGameCreate:
		var m GameCreate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Event, err)
		}
		msg = m
	case EventGameJoin:
		var m GameJoin
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Event, err)
		}
		msg = m
	case EventPlayTurn:
		var m PlayTurn
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, envelope.Event, err)
		}
		msg = m
	default:
		msg = Unknown{Name: envelope.Event}
	}
	return msg, nil
}
