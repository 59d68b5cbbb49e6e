package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/cache"
	"github.com/radieske/bet-ledger/internal/ledger/producer"
	"github.com/radieske/bet-ledger/internal/ledger/repo"
	"github.com/radieske/bet-ledger/internal/ledger/ws"
	"github.com/radieske/bet-ledger/internal/shared/metrics"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// Server expõe a API REST do ledger.
// O repositório é a fonte da verdade; cache e eventos são best effort.
type Server struct {
	log   *zap.Logger
	store repo.Store
	cache cache.Cache
	publ  producer.Publisher
	hub   *ws.Hub
}

// NewServer aceita cache, publisher e hub nulos (modo sem Redis/Kafka)
func NewServer(log *zap.Logger, s repo.Store, c cache.Cache, p producer.Publisher, hub *ws.Hub) *Server {
	if c == nil {
		c = cache.Nop{}
	}
	if p == nil {
		p = producer.Nop{}
	}
	return &Server{log: log, store: s, cache: c, publ: p, hub: hub}
}

// Router retorna o roteador HTTP com os endpoints REST
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Instrument)

	r.Get("/users", s.handle(s.getUser))
	r.Post("/users", s.handle(s.createUser))

	r.Get("/bets", s.handle(s.listBets))
	r.Post("/bets", s.handle(s.createBet))
	r.Put("/bets", s.handle(s.updateBet))
	r.Delete("/bets", s.handle(s.deleteBet))

	r.Get("/settings", s.handle(s.getSettings))
	r.Put("/settings", s.handle(s.putSettings))

	r.Get("/bankrolls", s.handle(s.listBankrolls))
	r.Post("/bankrolls", s.handle(s.createBankroll))

	r.Get("/stats", s.handle(s.stats))

	r.Get("/backup", s.handle(s.exportBackup))
	r.Post("/backup", s.handle(s.importBackup))

	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// publish avisa o sync-worker; falhas são apenas logadas
func (s *Server) publish(ctx context.Context, typ, userID, betID string) {
	email := ""
	if u, err := s.store.GetUserByID(ctx, userID); err == nil {
		email = u.Email
		_ = s.cache.SetUser(ctx, u)
	}
	err := s.publ.Publish(ctx, events.LedgerEvent{Type: typ, UserID: userID, Email: email, BetID: betID})
	if err != nil {
		s.log.Warn("publish ledger event failed", zap.String("type", typ), zap.String("user_id", userID), zap.Error(err))
	}
}

// refresh descarta o cache do usuário após uma mutação e o repopula,
// deixando a origem do sync em modo cache em dia
func (s *Server) refresh(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if _, err := s.loadBets(ctx, userID); err != nil {
		s.log.Warn("cache reload failed", zap.String("user_id", userID), zap.Error(err))
	}
	if _, err := s.primarySettings(ctx, userID); err != nil {
		s.log.Warn("cache reload failed", zap.String("user_id", userID), zap.Error(err))
	}
}
