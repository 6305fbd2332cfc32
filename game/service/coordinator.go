package service

import (
	"log"

	"github.com/wricardo/nim-lobby/game/clock"
	"github.com/wricardo/nim-lobby/game/config"
	"github.com/wricardo/nim-lobby/game/liveness"
	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
	"github.com/wricardo/nim-lobby/game/protocol"
)

// Coordinator routes transport events through the liveness monitor into
// the session registry
type Coordinator struct {
	manager *lobby.Manager
	monitor *liveness.Monitor
	logger  *log.Logger
}

// NewCoordinator builds the registry and monitor from settings. Extra lobby
// options are applied after the ones derived from settings.
func NewCoordinator(sched clock.Scheduler, settings *config.Settings, logger *log.Logger, opts ...lobby.Option) *Coordinator {
	if settings == nil {
		settings = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}

	base := []lobby.Option{
		lobby.WithRules(settings.Rules()),
		lobby.WithAIDelay(settings.AIDelay),
		lobby.WithLimits(settings.MaxNameLength, settings.MaxChatLength),
		lobby.WithLogger(logger),
	}
	manager := lobby.NewManager(sched, append(base, opts...)...)

	return &Coordinator{
		manager: manager,
		monitor: liveness.NewMonitor(sched, manager, settings.HeartbeatInterval, settings.HeartbeatTimeout, logger),
		logger:  logger,
	}
}

// Connect registers a transport and starts probing it
func (c *Coordinator) Connect(conn lobby.Conn) lobby.ConnID {
	id := c.manager.Connect(conn)
	c.monitor.Watch(id)
	return id
}

// Receive decodes one client frame and routes it. Malformed frames are
// logged and dropped; the connection stays open.
func (c *Coordinator) Receive(id lobby.ConnID, data []byte) {
	if !c.manager.Connected(id) {
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		c.logger.Printf("[LOBBY] conn=%d dropped message: %v", id, err)
		return
	}

	if _, ok := msg.(protocol.Beat); ok {
		c.monitor.Ack(id)
		return
	}
	c.manager.Receive(msg, id)
}

// Close handles a transport that went away
func (c *Coordinator) Close(id lobby.ConnID) {
	c.monitor.Forget(id)
	c.manager.Disconnect(id)
}

// Games returns the lobby snapshot
func (c *Coordinator) Games() []lobby.GameInfo { return c.manager.Games() }

// Game returns one game
func (c *Coordinator) Game(id lobby.GameID) (lobby.GameInfo, bool) { return c.manager.Game(id) }

// Players returns the connection list
func (c *Coordinator) Players() []lobby.PlayerInfo { return c.manager.Players() }

// Stats returns registry counters
func (c *Coordinator) Stats() lobby.Stats { return c.manager.Stats() }

// Rules returns the pool ranges in use
func (c *Coordinator) Rules() nim.Rules { return c.manager.Rules() }
