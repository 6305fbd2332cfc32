package service

import (
	"context"
	"errors"

	"github.com/wricardo/nim-lobby/game/lobby"
	"github.com/wricardo/nim-lobby/game/nim"
)

var ErrGameNotFound = errors.New("game not found")

// LobbyService is the read-only view of the lobby used by HTTP and MCP
type LobbyService interface {
	ListGames(ctx context.Context) ([]lobby.GameInfo, error)
	GetGame(ctx context.Context, id uint64) (*lobby.GameInfo, error)
	ListPlayers(ctx context.Context) ([]lobby.PlayerInfo, error)
	GetStats(ctx context.Context) (*lobby.Stats, error)
	GetRules(ctx context.Context) (*nim.Rules, error)
}

// Runner executes fn on the goroutine that owns the lobby and waits for it
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Snapshotter is the read side of a Coordinator
type Snapshotter interface {
	Games() []lobby.GameInfo
	Game(id lobby.GameID) (lobby.GameInfo, bool)
	Players() []lobby.PlayerInfo
	Stats() lobby.Stats
	Rules() nim.Rules
}

// lobbyServiceImpl implements LobbyService
type lobbyServiceImpl struct {
	source Snapshotter
	runner Runner
}

// NewLobbyService creates a LobbyService reading from source on runner
func NewLobbyService(source Snapshotter, runner Runner) LobbyService {
	return &lobbyServiceImpl{source: source, runner: runner}
}

// ListGames returns every game in id order
func (s *lobbyServiceImpl) ListGames(ctx context.Context) ([]lobby.GameInfo, error) {
	var games []lobby.GameInfo
	if err := s.runner.Do(ctx, func() { games = s.source.Games() }); err != nil {
		return nil, err
	}
	return games, nil
}

// GetGame returns one game or ErrGameNotFound
func (s *lobbyServiceImpl) GetGame(ctx context.Context, id uint64) (*lobby.GameInfo, error) {
	var (
		game  lobby.GameInfo
		found bool
	)
	if err := s.runner.Do(ctx, func() { game, found = s.source.Game(lobby.GameID(id)) }); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGameNotFound
	}
	return &game, nil
}

// ListPlayers returns every connection in id order
func (s *lobbyServiceImpl) ListPlayers(ctx context.Context) ([]lobby.PlayerInfo, error) {
	var players []lobby.PlayerInfo
	if err := s.runner.Do(ctx, func() { players = s.source.Players() }); err != nil {
		return nil, err
	}
	return players, nil
}

// GetStats returns registry counters
func (s *lobbyServiceImpl) GetStats(ctx context.Context) (*lobby.Stats, error) {
	var stats lobby.Stats
	if err := s.runner.Do(ctx, func() { stats = s.source.Stats() }); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetRules returns the pool ranges in use
func (s *lobbyServiceImpl) GetRules(ctx context.Context) (*nim.Rules, error) {
	var rules nim.Rules
	if err := s.runner.Do(ctx, func() { rules = s.source.Rules() }); err != nil {
		return nil, err
	}
	return &rules, nil
}
