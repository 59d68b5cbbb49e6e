package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/accounting"
	"github.com/radieske/bet-ledger/internal/ledger/dto"
	"github.com/radieske/bet-ledger/internal/ledger/model"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// limite do documento de backup aceito no POST /backup
const maxBackupBytes = 32 << 20

// ---------- usuários ----------

// getUser busca por email ou id (GET /users?email= | ?id=)
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()

	var (
		u   model.User
		err error
	)
	switch {
	case q.Get("email") != "":
		u, err = s.store.GetUserByEmail(r.Context(), q.Get("email"))
	case q.Get("id") != "":
		u, err = s.store.GetUserByID(r.Context(), q.Get("id"))
	default:
		return model.Invalid("email", "email or id is required")
	}
	if err != nil {
		return err
	}

	if err := s.cache.SetUser(r.Context(), u); err != nil {
		s.log.Warn("cache set user failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, u)
	return nil
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) error {
	var req dto.CreateUserRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	req.Email = model.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := dto.Validate(req); err != nil {
		return err
	}

	u, err := s.store.CreateUser(r.Context(), req.Email, req.Name)
	if err != nil {
		return err
	}

	if err := s.cache.SetUser(r.Context(), u); err != nil {
		s.log.Warn("cache set user failed", zap.Error(err))
	}
	s.log.Info("user created", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusCreated, u)
	return nil
}

// ---------- apostas ----------

// loadBets lê as apostas do usuário pelo cache e, na falta, pelo repositório
func (s *Server) loadBets(ctx context.Context, userID string) ([]model.Bet, error) {
	if bets, ok, err := s.cache.GetBets(ctx, userID); err == nil && ok {
		return bets, nil
	} else if err != nil {
		s.log.Warn("cache get bets failed", zap.String("user_id", userID), zap.Error(err))
	}

	bets, err := s.store.GetBetsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetBets(ctx, userID, bets); err != nil {
		s.log.Warn("cache set bets failed", zap.String("user_id", userID), zap.Error(err))
	}
	return bets, nil
}

func filterFrom(r *http.Request) accounting.Filter {
	q := r.URL.Query()
	return accounting.Filter{
		Sport:      q.Get("sport"),
		Result:     model.Result(strings.ToLower(q.Get("result"))),
		BankrollID: q.Get("bankrollId"),
	}
}

// listBets: GET /bets?userId=[&sport=&result=&bankrollId=]
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) error {
	userID, err := required(r, "userId")
	if err != nil {
		return err
	}

	f := filterFrom(r)
	var bets []model.Bet
	if f.BankrollID != "" {
		bets, err = s.store.GetBetsByBankrollID(r.Context(), userID, f.BankrollID)
	} else {
		bets, err = s.loadBets(r.Context(), userID)
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, f.Apply(bets))
	return nil
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) error {
	var req dto.BetRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	b := req.ToModel()
	id, err := s.store.CreateBet(r.Context(), &b)
	if err != nil {
		return err
	}

	s.refresh(r.Context(), b.UserID)
	s.publish(r.Context(), events.BetCreated, b.UserID, id)
	writeJSON(w, http.StatusCreated, dto.CreatedResponse{ID: id, Message: "Bet created successfully"})
	return nil
}

func (s *Server) updateBet(w http.ResponseWriter, r *http.Request) error {
	var req dto.BetRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.ID) == "" {
		return model.Invalid("id", "is required")
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	b := req.ToModel()
	if err := s.store.UpdateBet(r.Context(), &b); err != nil {
		return err
	}

	s.refresh(r.Context(), b.UserID)
	s.publish(r.Context(), events.BetUpdated, b.UserID, b.ID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Bet updated successfully"})
	return nil
}

// deleteBet: DELETE /bets?betId=&userId=
func (s *Server) deleteBet(w http.ResponseWriter, r *http.Request) error {
	betID, err := required(r, "betId")
	if err != nil {
		return err
	}
	userID, err := required(r, "userId")
	if err != nil {
		return err
	}

	if err := s.store.DeleteBet(r.Context(), betID, userID); err != nil {
		return err
	}

	s.refresh(r.Context(), userID)
	s.publish(r.Context(), events.BetDeleted, userID, betID)
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Bet deleted successfully"})
	return nil
}

// ---------- bancas ----------

// primarySettings devolve a banca principal; sem banca, os padrões (0, "Main Bankroll")
func (s *Server) primarySettings(ctx context.Context, userID string) (model.BankrollSettings, error) {
	if bs, ok, err := s.cache.GetSettings(ctx, userID); err == nil && ok {
		return bs, nil
	}

	bs, err := s.store.GetUserSettings(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return model.BankrollSettings{UserID: userID, BankrollName: model.DefaultBankrollName, InitialBankroll: decimal.Zero}, nil
	}
	if err != nil {
		return model.BankrollSettings{}, err
	}
	if err := s.cache.SetSettings(ctx, userID, bs); err != nil {
		s.log.Warn("cache set settings failed", zap.String("user_id", userID), zap.Error(err))
	}
	return bs, nil
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) error {
	userID, err := required(r, "userId")
	if err != nil {
		return err
	}

	bs, err := s.primarySettings(r.Context(), userID)
	if err != nil {
		return err
	}
	premium, err := s.store.IsPremium(r.Context(), userID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, dto.SettingsResponse{
		BankrollID:      bs.ID,
		InitialBankroll: bs.InitialBankroll,
		BankrollName:    bs.BankrollName,
		IsPremium:       premium,
	})
	return nil
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) error {
	var req dto.SettingsRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	if err := s.store.CreateOrUpdateUserSettings(r.Context(), req.UserID, *req.InitialBankroll, req.BankrollName); err != nil {
		return err
	}

	s.refresh(r.Context(), req.UserID)
	s.publish(r.Context(), events.SettingsUpdated, req.UserID, "")
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Settings saved successfully"})
	return nil
}

func (s *Server) listBankrolls(w http.ResponseWriter, r *http.Request) error {
	userID, err := required(r, "userId")
	if err != nil {
		return err
	}

	list, err := s.store.ListBankrolls(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}

func (s *Server) createBankroll(w http.ResponseWriter, r *http.Request) error {
	var req dto.BankrollRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	bs, err := s.store.CreateBankroll(r.Context(), req.UserID, req.BankrollName, *req.InitialBankroll)
	if err != nil {
		return err
	}

	s.refresh(r.Context(), req.UserID)
	s.publish(r.Context(), events.SettingsUpdated, req.UserID, "")
	writeJSON(w, http.StatusCreated, bs)
	return nil
}

// ---------- estatísticas ----------

// stats: GET /stats?userId=[&bankrollId=&sport=&result=]
func (s *Server) stats(w http.ResponseWriter, r *http.Request) error {
	userID, err := required(r, "userId")
	if err != nil {
		return err
	}
	f := filterFrom(r)

	initial := decimal.Zero
	if f.BankrollID == "" {
		bs, err := s.primarySettings(r.Context(), userID)
		if err != nil {
			return err
		}
		initial = bs.InitialBankroll
	} else {
		list, err := s.store.ListBankrolls(r.Context(), userID)
		if err != nil {
			return err
		}
		found := false
		for _, bs := range list {
			if bs.ID == f.BankrollID {
				initial, found = bs.InitialBankroll, true
				break
			}
		}
		if !found {
			return fmt.Errorf("bankroll %s: %w", f.BankrollID, model.ErrNotFound)
		}
	}

	bets, err := s.loadBets(r.Context(), userID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, accounting.Summarize(initial, f.Apply(bets)))
	return nil
}

// ---------- backup ----------

func (s *Server) exportBackup(w http.ResponseWriter, r *http.Request) error {
	doc, err := s.store.Export(r.Context())
	if err != nil {
		return err
	}

	name := "bettracker-backup-" + doc.ExportedAt.Format(model.DateLayout) + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, doc)
	return nil
}

// importBackup substitui o banco inteiro pelo documento enviado
func (s *Server) importBackup(w http.ResponseWriter, r *http.Request) error {
	doc, err := model.DecodeBackup(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		return err
	}
	if err := s.store.Import(r.Context(), doc); err != nil {
		return err
	}

	if err := s.cache.Flush(r.Context()); err != nil {
		s.log.Warn("cache flush failed", zap.Error(err))
	}
	for _, u := range doc.Users {
		s.publish(r.Context(), events.BackupImported, u.ID, "")
	}

	s.log.Info("backup restored", zap.Int("users", len(doc.Users)), zap.Int("bets", len(doc.Bets)))
	writeJSON(w, http.StatusOK, dto.ImportResponse{Message: "Backup imported successfully", ImportedAt: time.Now().UTC()})
	return nil
}
