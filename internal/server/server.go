// Package server exposes human-versus-engine games over HTTP and streams
// search progress over websockets.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/board"
	"github.com/hailam/adaptiveplay/internal/engine"
	"github.com/hailam/adaptiveplay/internal/profile"
	"github.com/hailam/adaptiveplay/internal/storage"
)

// GuestName is the profile name of players who did not identify themselves.
// Guest profiles are never saved.
const GuestName = "guest"

// Server serves the game API.
type Server struct {
	games  *Manager
	engine *engine.Engine
	store  *storage.Storage
	log    zerolog.Logger

	// aiMu serialises engine searches and changes to the engine profile.
	aiMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithStore loads and saves profiles through s.
func WithStore(s *storage.Storage) Option {
	return func(srv *Server) { srv.store = s }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(srv *Server) { srv.log = l }
}

// New creates a server around eng. The engine's profile is the AI profile
// that adapts after every finished game.
func New(eng *engine.Engine, opts ...Option) *Server {
	s := &Server{
		games:  NewManager(),
		engine: eng,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Games returns the game table.
func (s *Server) Games() *Manager {
	return s.games
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Delete("/", s.handleDeleteGame)
			r.Post("/moves", s.handleMove)
			r.Post("/ai-move", s.handleAIMove)
			r.Get("/ws", s.handleWS)
		})
	})

	r.Get("/api/profile", s.handleProfile)
	r.Get("/api/profiles/{name}", s.handleNamedProfile)

	return r
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	color := board.White
	if req.HumanColor != "" {
		c, ok := board.ParseColor(strings.ToLower(req.HumanColor))
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "human_color must be white or black"})
			return
		}
		color = c
	}

	human, err := s.loadProfile(req.Profile)
	if err != nil {
		s.log.Error().Err(err).Str("profile", req.Profile).Msg("load human profile")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	g := s.games.NewGame(color, human)
	s.log.Info().
		Str("game", g.ID).
		Str("human", human.Name).
		Stringer("human_color", color).
		Msg("game created")

	g.mu.Lock()
	dto := s.gameDTO(g)
	g.mu.Unlock()
	writeJSON(w, http.StatusCreated, dto)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	g.mu.Lock()
	dto := s.gameDTO(g)
	g.mu.Unlock()
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status() != board.Ongoing {
		writeError(w, http.StatusConflict, ErrGameOver)
		return
	}
	if g.Board.SideToMove != g.HumanColor {
		writeError(w, http.StatusConflict, ErrNotYourTurn)
		return
	}

	m, err := g.Board.ParseMove(req.Move)
	if err != nil {
		if m, err = g.Board.ParseSAN(req.Move); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	resp := MoveResponse{Move: m.String(), SAN: g.Board.SAN(m), TimeMs: time.Since(g.turnStart).Milliseconds()}
	g.apply(m, true)
	resp.Game = s.gameDTO(g)

	g.hub.Broadcast("move", resp)
	s.finishIfOver(g)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAIMove(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	var req AIMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Search a snapshot so readers of the game are not held up.
	g.mu.Lock()
	if g.Status() != board.Ongoing {
		g.mu.Unlock()
		writeError(w, http.StatusConflict, ErrGameOver)
		return
	}
	pos := g.Board.Copy()
	ply := len(g.History)
	g.mu.Unlock()

	cfg := s.engine.Config()
	limits := engine.SearchLimits{Depth: cfg.Depth, MoveTime: cfg.MoveTime}
	if req.Depth > 0 {
		limits.Depth = min(req.Depth, engine.MaxPly)
	}
	if req.TimeMs > 0 {
		limits.MoveTime = time.Duration(req.TimeMs) * time.Millisecond
	}

	start := time.Now()
	s.aiMu.Lock()
	s.engine.OnInfo = func(info engine.SearchInfo) {
		g.hub.Broadcast("info", infoToDTO(info))
	}
	res, found := s.engine.Search(r.Context(), pos, pos.SideToMove, limits)
	s.engine.OnInfo = nil
	s.aiMu.Unlock()
	elapsed := time.Since(start)

	if !found {
		writeError(w, http.StatusConflict, ErrGameOver)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.History) != ply || !g.Board.Equal(pos) {
		writeError(w, http.StatusConflict, ErrGameChanged)
		return
	}

	resp := MoveResponse{
		Move:   res.Move.String(),
		SAN:    g.Board.SAN(res.Move),
		Score:  res.Score,
		Mate:   res.MateIn(),
		Depth:  res.Depth,
		Nodes:  res.Nodes,
		Book:   res.Book,
		TimeMs: elapsed.Milliseconds(),
	}
	g.addAITime(elapsed)
	g.apply(res.Move, false)
	resp.Game = s.gameDTO(g)

	s.log.Debug().
		Str("game", g.ID).
		Str("move", resp.SAN).
		Float64("score", res.Score).
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Bool("book", res.Book).
		Dur("elapsed", elapsed).
		Msg("ai move")

	g.hub.Broadcast("move", resp)
	s.finishIfOver(g)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	g, ok := s.game(w, r)
	if !ok {
		return
	}
	g.mu.Lock()
	initial := wsMessage{Type: "game", Payload: mustMarshal(s.gameDTO(g))}
	g.mu.Unlock()

	if err := serveWS(g.hub, initial, w, r); err != nil {
		s.log.Debug().Err(err).Str("game", g.ID).Msg("websocket")
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.aiMu.Lock()
	dto := profileToDTO(s.engine.Profile())
	s.aiMu.Unlock()
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleNamedProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.loadProfile(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToDTO(p))
}

// finishIfOver records a finished game once: the AI profile takes the
// result and adapts to the human, and both profiles are saved. The caller
// holds g.mu.
func (s *Server) finishIfOver(g *Game) {
	status := g.Status()
	if status == board.Ongoing || g.recorded {
		return
	}
	g.recorded = true

	result := profile.Draw
	if status == board.Checkmate {
		result = profile.Loss
		if g.Board.SideToMove == g.HumanColor {
			result = profile.Win
		}
	}
	opening := s.engine.Book().Classify(g.History)

	g.Human.UpdateMetrics(result.Invert(), average(g.humanTime, g.humanMoves), opening)

	s.aiMu.Lock()
	ai := s.engine.Profile()
	ai.UpdateMetrics(result, average(g.aiTime, g.aiMoves), opening)
	ai.AdaptStyle(g.Human)
	s.engine.SetProfile(ai)
	aiDTO := profileToDTO(ai)
	s.saveProfile(ai)
	s.aiMu.Unlock()

	if g.Human.Name != GuestName {
		s.saveProfile(g.Human)
	}

	s.log.Info().
		Str("game", g.ID).
		Stringer("status", status).
		Stringer("ai_result", result).
		Str("opening", opening).
		Float64("aggression", aiDTO.Aggression).
		Float64("risk_taking", aiDTO.RiskTaking).
		Msg("game over")

	g.hub.Broadcast("game_over", map[string]any{
		"status":  status.String(),
		"result":  result.String(),
		"opening": opening,
		"profile": aiDTO,
	})
}

func (s *Server) loadProfile(name string) (*profile.PlayerProfile, error) {
	if name == "" {
		name = GuestName
	}
	if s.store == nil || name == GuestName {
		return profile.New(name), nil
	}
	return s.store.LoadProfile(name)
}

func (s *Server) saveProfile(p *profile.PlayerProfile) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveProfile(p); err != nil {
		s.log.Error().Err(err).Str("profile", p.Name).Msg("save profile")
	}
}

// game resolves the {id} URL parameter, writing a 404 when it is unknown.
func (s *Server) game(w http.ResponseWriter, r *http.Request) (*Game, bool) {
	g, err := s.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return nil, false
	}
	return g, true
}

// gameDTO snapshots g. The caller holds g.mu.
func (s *Server) gameDTO(g *Game) GameDTO {
	b := g.Board
	status := b.Status()
	legal := []string{}
	if status == board.Ongoing {
		legal = movesToStrings(b.LegalMoves(b.SideToMove))
	}
	return GameDTO{
		ID:         g.ID,
		FEN:        b.FEN(),
		ToMove:     colorName(b.SideToMove),
		HumanColor: colorName(g.HumanColor),
		LegalMoves: legal,
		History:    movesToStrings(g.History),
		Status:     status.String(),
		InCheck:    b.InCheck(b.SideToMove),
		Opening:    s.engine.Book().Classify(g.History),
	}
}

func colorName(c board.Color) string {
	return strings.ToLower(c.String())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrNotYourTurn), errors.Is(err, ErrGameChanged):
		return http.StatusConflict
	case errors.Is(err, board.ErrIllegalMove):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeJSON decodes an optional JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestLogger logs one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", time.Since(start)).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
