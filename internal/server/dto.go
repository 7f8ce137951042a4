package server

import (
	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/engine"
	"github.com/hailam/adaptiveplay/internal/profile"
)

// NewGameRequest starts a game. HumanColor is "white" or "black"; Profile
// names the human, whose stored profile seeds the style estimate.
type NewGameRequest struct {
	HumanColor string `json:"human_color"`
	Profile    string `json:"profile"`
}

// MoveRequest carries a human move in UCI or SAN notation.
type MoveRequest struct {
	Move string `json:"move"`
}

// AIMoveRequest overrides the engine's search limits for one move.
type AIMoveRequest struct {
	Depth  int   `json:"depth"`
	TimeMs int64 `json:"time_ms"`
}

// GameDTO is the public view of a game.
type GameDTO struct {
	ID         string   `json:"id"`
	FEN        string   `json:"fen"`
	ToMove     string   `json:"to_move"`
	HumanColor string   `json:"human_color"`
	LegalMoves []string `json:"legal_moves"`
	History    []string `json:"history"`
	Status     string   `json:"status"`
	InCheck    bool     `json:"in_check"`
	Opening    string   `json:"opening,omitempty"`
}

// MoveResponse reports a played move and the resulting game.
type MoveResponse struct {
	Move   string  `json:"move"`
	SAN    string  `json:"san"`
	Score  float64 `json:"score,omitempty"`
	Mate   int     `json:"mate,omitempty"`
	Depth  int     `json:"depth,omitempty"`
	Nodes  uint64  `json:"nodes,omitempty"`
	Book   bool    `json:"book,omitempty"`
	TimeMs int64   `json:"time_ms"`
	Game   GameDTO `json:"game"`
}

// InfoDTO is a search progress event.
type InfoDTO struct {
	Depth    int      `json:"depth"`
	Score    float64  `json:"score"`
	Mate     int      `json:"mate,omitempty"`
	Nodes    uint64   `json:"nodes"`
	TimeMs   int64    `json:"time_ms"`
	PV       []string `json:"pv"`
	HashFull int      `json:"hashfull"`
}

// ProfileDTO is the public view of a player profile.
type ProfileDTO struct {
	Name            string         `json:"name"`
	Aggression      float64        `json:"aggression"`
	RiskTaking      float64        `json:"risk_taking"`
	Positional      float64        `json:"positional"`
	Wins            int            `json:"wins"`
	Losses          int            `json:"losses"`
	Draws           int            `json:"draws"`
	WinRate         float64        `json:"win_rate"`
	AvgMoveTimeMs   int64          `json:"avg_move_time_ms"`
	Openings        map[string]int `json:"openings"`
	FavoriteOpening string         `json:"favorite_opening,omitempty"`
}

func movesToStrings(moves []board.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func infoToDTO(info engine.SearchInfo) InfoDTO {
	return InfoDTO{
		Depth:    info.Depth,
		Score:    info.Score,
		Mate:     info.Mate,
		Nodes:    info.Nodes,
		TimeMs:   info.Time.Milliseconds(),
		PV:       movesToStrings(info.PV),
		HashFull: info.HashFull,
	}
}

func profileToDTO(p *profile.PlayerProfile) ProfileDTO {
	openings := make(map[string]int, len(p.Openings))
	for k, v := range p.Openings {
		openings[k] = v
	}
	return ProfileDTO{
		Name:            p.Name,
		Aggression:      p.Traits.Aggression,
		RiskTaking:      p.Traits.RiskTaking,
		Positional:      p.Traits.Positional,
		Wins:            p.Wins,
		Losses:          p.Losses,
		Draws:           p.Draws,
		WinRate:         p.WinRate(),
		AvgMoveTimeMs:   p.AvgMoveTime.Milliseconds(),
		Openings:        openings,
		FavoriteOpening: p.FavoriteOpening(),
	}
}
