// Package sync empurra para o banco remoto o que existe apenas no lado local
// (banco embarcado ou cache Redis). O merge é insert-if-absent: linhas remotas
// nunca são alteradas nem removidas, com uma exceção para a banca inicial.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/model"
	"github.com/radieske/bet-ledger/pkg/contracts/events"
)

// ErrNotMigrated indica que o usuário ainda não existe no remoto.
// Não é falha: o cliente continua operando só com o lado local.
var ErrNotMigrated = errors.New("user not migrated to remote store")

// Source é o lado local do merge
type Source interface {
	UserByEmail(ctx context.Context, email string) (model.User, error)
	Bets(ctx context.Context, userID string) ([]model.Bet, error)
	Settings(ctx context.Context, userID string) (model.BankrollSettings, error)
}

// RemoteStore é o subconjunto do repo.Store usado no destino
type RemoteStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	BetIDsByUserID(ctx context.Context, userID string) (map[string]struct{}, error)
	InsertBet(ctx context.Context, b *model.Bet) error
	GetUserSettings(ctx context.Context, userID string) (model.BankrollSettings, error)
	CreateOrUpdateUserSettings(ctx context.Context, userID string, initial decimal.Decimal, name string) error
}

// Report resume uma execução de Sync
type Report struct {
	Email          string
	LocalUserID    string
	RemoteUserID   string
	Inserted       int
	Skipped        int
	Regenerated    int
	BankrollPushed bool
}

// Merger aplica o merge de um usuário. Notifier é opcional.
type Merger struct {
	Local    Source
	Remote   RemoteStore
	Notifier Notifier
	Log      *zap.Logger
}

func NewMerger(local Source, remote RemoteStore, n Notifier, log *zap.Logger) *Merger {
	if n == nil {
		n = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Merger{Local: local, Remote: remote, Notifier: n, Log: log}
}

// Sync envia apostas ausentes e, se o remoto estiver zerado, a banca inicial
func (m *Merger) Sync(ctx context.Context, email string) (Report, error) {
	email = model.NormalizeEmail(email)
	rep := Report{Email: email}

	rep, err := m.sync(ctx, rep)
	switch {
	case err == nil:
		m.notify(ctx, rep, events.SyncOK, "")
	case errors.Is(err, ErrNotMigrated):
		m.notify(ctx, rep, events.SyncNotMigrated, err.Error())
	default:
		m.notify(ctx, rep, events.SyncFailed, err.Error())
	}
	return rep, err
}

func (m *Merger) sync(ctx context.Context, rep Report) (Report, error) {
	local, err := m.Local.UserByEmail(ctx, rep.Email)
	if err != nil {
		return rep, fmt.Errorf("resolve local user: %w", err)
	}
	rep.LocalUserID = local.ID

	remote, err := m.Remote.GetUserByEmail(ctx, rep.Email)
	if errors.Is(err, model.ErrNotFound) {
		return rep, ErrNotMigrated
	}
	if err != nil {
		return rep, fmt.Errorf("resolve remote user: %w", err)
	}
	rep.RemoteUserID = remote.ID

	bets, err := m.Local.Bets(ctx, local.ID)
	if err != nil {
		return rep, fmt.Errorf("read local bets: %w", err)
	}
	present, err := m.Remote.BetIDsByUserID(ctx, remote.ID)
	if err != nil {
		return rep, fmt.Errorf("read remote bet ids: %w", err)
	}

	for _, b := range bets {
		nb := b
		if !model.IsServerID(nb.ID) {
			nb.ID = remoteID(remote.ID, b.ID)
			rep.Regenerated++
		}
		if _, ok := present[nb.ID]; ok {
			rep.Skipped++
			continue
		}

		nb.UserID = remote.ID
		nb.BankrollID = "" // cai na banca principal do remoto
		if err := m.Remote.InsertBet(ctx, &nb); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// id já usado por outro usuário no remoto
				m.Log.Warn("bet id taken on remote, skipping", zap.String("bet_id", nb.ID))
				rep.Skipped++
				continue
			}
			return rep, fmt.Errorf("insert bet %s: %w", b.ID, err)
		}
		present[nb.ID] = struct{}{}
		rep.Inserted++
	}

	pushed, err := m.syncBankroll(ctx, local.ID, remote.ID)
	if err != nil {
		return rep, err
	}
	rep.BankrollPushed = pushed

	m.Log.Info("sync finished",
		zap.String("email", rep.Email),
		zap.Int("inserted", rep.Inserted),
		zap.Int("skipped", rep.Skipped),
		zap.Bool("bankroll_pushed", rep.BankrollPushed))
	return rep, nil
}

// syncBankroll: remoto com banca exatamente 0 e local diferente de 0 recebe o
// valor local; em qualquer outro caso o remoto prevalece
func (m *Merger) syncBankroll(ctx context.Context, localID, remoteID string) (bool, error) {
	ls, err := m.Local.Settings(ctx, localID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read local settings: %w", err)
	}

	rs, err := m.Remote.GetUserSettings(ctx, remoteID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		rs = model.BankrollSettings{BankrollName: ls.BankrollName}
	case err != nil:
		return false, fmt.Errorf("read remote settings: %w", err)
	}

	if !rs.InitialBankroll.IsZero() || ls.InitialBankroll.IsZero() {
		return false, nil
	}
	if err := m.Remote.CreateOrUpdateUserSettings(ctx, remoteID, ls.InitialBankroll, rs.BankrollName); err != nil {
		return false, fmt.Errorf("push bankroll: %w", err)
	}
	return true, nil
}

func (m *Merger) notify(ctx context.Context, rep Report, status, reason string) {
	n := events.SyncNotice{
		UserID:         rep.LocalUserID, // o websocket é indexado pelo id local
		Email:          rep.Email,
		Status:         status,
		BetsInserted:   rep.Inserted,
		BankrollPushed: rep.BankrollPushed,
		Reason:         reason,
		Ts:             time.Now().UTC(),
	}
	if err := m.Notifier.Notify(ctx, n); err != nil {
		m.Log.Warn("sync notice failed", zap.String("email", rep.Email), zap.Error(err))
	}
}

// remoteID gera um UUID estável para ids offline/legados, de modo que
// sincronizações repetidas reconheçam a aposta já enviada
func remoteID(userID, localID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(userID+":"+localID)).String()
}
