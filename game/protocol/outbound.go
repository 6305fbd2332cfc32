package protocol

// Outbound is a server message
type Outbound interface {
	OutboundEvent() Event
}

// SystemSender is the chat author used for server notices
const SystemSender = "SYSTEM"

// Player 2 placeholders in the lobby projection
const (
	PlayerAI     = "AI"
	PlayerNobody = "Nobody"
)

// Heartbeat probes the client
type Heartbeat struct {
	Type Event `json:"event"`
}

// Ack answers a client request, optionally with a reason or the new game id
type Ack struct {
	Type    Event  `json:"event"`
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	GameID  uint64 `json:"gameId,omitempty"`
}

// ChatEntry is a single chat line
type ChatEntry struct {
	Time    int64  `json:"time"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// Chat delivers a chat line
type Chat struct {
	Type    Event     `json:"event"`
	Message ChatEntry `json:"message"`
}

// GameStatus is one entry of the lobby projection, or its removal
type GameStatus struct {
	Type       Event  `json:"event"`
	GameID     uint64 `json:"gameId"`
	Player1    string `json:"player1,omitempty"`
	Player2    string `json:"player2,omitempty"`
	GameState  string `json:"gameState,omitempty"`
	GameClosed bool   `json:"gameClosed,omitempty"`
}

// TurnState is sent on game-start and game-update, tagged per recipient
type TurnState struct {
	Type     Event `json:"event"`
	Marbles  int   `json:"marbles"`
	YourTurn bool  `json:"yourTurn"`
}

// GameOver reports the outcome to one player
type GameOver struct {
	Type Event `json:"event"`
	Win  bool  `json:"win"`
	AI   bool  `json:"ai"`
}

// GameTerminate tells the surviving player the opponent is gone
type GameTerminate struct {
	Type Event `json:"event"`
}

func (m Heartbeat) OutboundEvent() Event     { return m.Type }
func (m Ack) OutboundEvent() Event           { return m.Type }
func (m Chat) OutboundEvent() Event          { return m.Type }
func (m GameStatus) OutboundEvent() Event    { return m.Type }
func (m TurnState) OutboundEvent() Event     { return m.Type }
func (m GameOver) OutboundEvent() Event      { return m.Type }
func (m GameTerminate) OutboundEvent() Event { return m.Type }

// NewHeartbeat builds a liveness probe
func NewHeartbeat() Heartbeat {
	return Heartbeat{Type: EventHeartbeat}
}

// Success acknowledges event
func Success(event Event) Ack {
	return Ack{Type: event, Success: true}
}

// Failure rejects event with a human-readable reason
func Failure(event Event, reason string) Ack {
	return Ack{Type: event, Success: false, Reason: reason}
}

// NewChat builds a chat line stamped with unix milliseconds
func NewChat(timeMillis int64, from, message string) Chat {
	return Chat{
		Type:    EventChatMessage,
		Message: ChatEntry{Time: timeMillis, From: from, Message: message},
	}
}

// GameClosed announces the removal of a game from the lobby
func GameClosed(gameID uint64) GameStatus {
	return GameStatus{Type: EventGameStatusUpdate, GameID: gameID, GameClosed: true}
}

// NewGameTerminate builds the opponent-left notice
func NewGameTerminate() GameTerminate {
	return GameTerminate{Type: EventGameTerminate}
}
