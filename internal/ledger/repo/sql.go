package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/accounting"
	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// SQLStore implementa Store sobre database/sql. As queries são escritas uma
// vez com "?" e adaptadas pelo dialeto.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	log *zap.Logger
	now func() time.Time
}

func newSQLStore(db *sql.DB, d dialect, log *zap.Logger) *SQLStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLStore{
		db:  db,
		d:   d,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Driver devolve o nome do dialeto ("sqlite" ou "postgres")
func (s *SQLStore) Driver() string { return s.d.name }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) q(query string) string { return s.d.rebind(query) }

// ---------- usuários ----------

const userCols = `id, email, COALESCE(name, ''), created_at`

func (s *SQLStore) CreateUser(ctx context.Context, email, name string) (model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return model.User{}, model.Invalid("email", "is required")
	}

	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, fmt.Errorf("user %s: %w", email, model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	u := model.User{ID: uuid.NewString(), Email: email, Name: name, CreatedAt: s.now()}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`),
		u.ID, u.Email, u.Name, u.CreatedAt)
	if err != nil {
		if s.d.isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("user %s: %w", email, model.ErrConflict)
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail compara sem diferenciar maiúsculas (linhas legadas podem
// ter sido gravadas sem normalização)
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userCols+` FROM users WHERE lower(email) = ?`), model.NormalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", email, model.ErrNotFound)
	}
	return u, err
}

func (s *SQLStore) GetUserByID(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return u, err
}

type scanner interface{ Scan(dest ...any) error }

func scanUser(r scanner) (model.User, error) {
	var u model.User
	err := r.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	return u, err
}

// ---------- apostas ----------

func (s *SQLStore) betCols() string {
	return `id, user_id, bankroll_id, ` + s.d.dateSelect + `, sport, match_name, bet_type, bookmaker, odds, stake, COALESCE(result, 'pending'), COALESCE(profit, 0), created_at, updated_at`
}

func scanBet(r scanner) (model.Bet, error) {
	var (
		b          model.Bet
		bankrollID sql.NullString
		result     string
	)
	err := r.Scan(&b.ID, &b.UserID, &bankrollID, &b.Date, &b.Sport, &b.MatchName, &b.BetType, &b.Bookmaker,
		&b.Odds, &b.Stake, &result, &b.Profit, &b.CreatedAt, &b.UpdatedAt)
	b.BankrollID = bankrollID.String
	b.Result = model.Result(result)
	return b, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLStore) CreateBet(ctx context.Context, b *model.Bet) (string, error) {
	b.ID = ""
	if err := s.InsertBet(ctx, b); err != nil {
		return "", err
	}
	return b.ID, nil
}

func (s *SQLStore) InsertBet(ctx context.Context, b *model.Bet) error {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	accounting.ApplyProfit(b)

	if err := s.resolveBankroll(ctx, b); err != nil {
		return err
	}

	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO bets (id, user_id, bankroll_id, date, sport, match_name, bet_type, bookmaker,
		                  odds, stake, result, profit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.UserID, nullable(b.BankrollID), b.Date, b.Sport, b.MatchName, b.BetType, b.Bookmaker,
		b.Odds, b.Stake, string(b.Result), b.Profit, b.CreatedAt, b.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case s.d.isUniqueViolation(err):
		return fmt.Errorf("bet %s: %w", b.ID, model.ErrConflict)
	case s.d.isForeignKey(err):
		return model.Invalid("user_id", "unknown user")
	default:
		return fmt.Errorf("insert bet: %w", err)
	}
}

// resolveBankroll associa a aposta à banca principal quando não informada,
// ou confere que a banca informada pertence ao dono da aposta
func (s *SQLStore) resolveBankroll(ctx context.Context, b *model.Bet) error {
	if b.BankrollID == "" {
		primary, err := s.ensurePrimary(ctx, b.UserID)
		if err != nil {
			return err
		}
		b.BankrollID = primary.ID
		return nil
	}

	var owner string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT user_id FROM user_settings WHERE id = ?`), b.BankrollID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != b.UserID) {
		return model.Invalid("bankroll_id", "does not belong to user")
	}
	return err
}

// ensurePrimary devolve a banca principal, criando com os padrões se ainda não existir
func (s *SQLStore) ensurePrimary(ctx context.Context, userID string) (model.BankrollSettings, error) {
	bs, err := s.GetUserSettings(ctx, userID)
	if err == nil || !errors.Is(err, model.ErrNotFound) {
		return bs, err
	}

	now := s.now()
	bs = model.BankrollSettings{
		ID:              model.SettingsID(userID),
		UserID:          userID,
		BankrollName:    model.DefaultBankrollName,
		InitialBankroll: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO user_settings (id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		bs.ID, bs.UserID, bs.BankrollName, bs.InitialBankroll, false, bs.CreatedAt, bs.UpdatedAt)
	if err != nil {
		if s.d.isForeignKey(err) {
			return model.BankrollSettings{}, model.Invalid("user_id", "unknown user")
		}
		return model.BankrollSettings{}, fmt.Errorf("create primary bankroll: %w", err)
	}
	return bs, nil
}

// GetBetsByUserID lista por data desc; empates mantêm a ordem de inserção
func (s *SQLStore) GetBetsByUserID(ctx context.Context, userID string) ([]model.Bet, error) {
	return s.queryBets(ctx, `SELECT `+s.betCols()+` FROM bets WHERE user_id = ? ORDER BY date DESC, `+s.d.insertionOrder+` ASC`, userID)
}

func (s *SQLStore) GetBetsByBankrollID(ctx context.Context, userID, bankrollID string) ([]model.Bet, error) {
	return s.queryBets(ctx, `SELECT `+s.betCols()+` FROM bets WHERE user_id = ? AND bankroll_id = ? ORDER BY date DESC, `+s.d.insertionOrder+` ASC`,
		userID, bankrollID)
}

func (s *SQLStore) queryBets(ctx context.Context, query string, args ...any) ([]model.Bet, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()

	bets := []model.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// BetIDsByUserID devolve o conjunto de ids já presentes (base do merge)
func (s *SQLStore) BetIDsByUserID(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id FROM bets WHERE user_id = ?`), userID)
	if err != nil {
		return nil, fmt.Errorf("query bet ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// UpdateBet só altera apostas do próprio usuário; profit é recalculado
func (s *SQLStore) UpdateBet(ctx context.Context, b *model.Bet) error {
	b.Normalize()
	if b.ID == "" {
		return model.Invalid("id", "is required")
	}
	if err := b.Validate(); err != nil {
		return err
	}
	accounting.ApplyProfit(b)

	if b.BankrollID != "" {
		// posse da aposta antes da banca: quem não é dono recebe 403
		if err := s.checkOwner(ctx, b.ID, b.UserID); err != nil {
			return err
		}
		if err := s.resolveBankroll(ctx, b); err != nil {
			return err
		}
	}

	b.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE bets
		   SET date = ?, sport = ?, match_name = ?, bet_type = ?, bookmaker = ?,
		       odds = ?, stake = ?, result = ?, profit = ?,
		       bankroll_id = COALESCE(?, bankroll_id), updated_at = ?
		 WHERE id = ? AND user_id = ?`),
		b.Date, b.Sport, b.MatchName, b.BetType, b.Bookmaker,
		b.Odds, b.Stake, string(b.Result), b.Profit,
		nullable(b.BankrollID), b.UpdatedAt,
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.ownershipError(ctx, b.ID)
	}
	return nil
}

func (s *SQLStore) DeleteBet(ctx context.Context, betID, userID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM bets WHERE id = ? AND user_id = ?`), betID, userID)
	if err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.ownershipError(ctx, betID)
	}
	return nil
}

// ownershipError diferencia aposta inexistente de aposta de outro usuário
func (s *SQLStore) ownershipError(ctx context.Context, betID string) error {
	return s.checkOwner(ctx, betID, "")
}

// checkOwner falha com NotFound se a aposta não existe e Forbidden se for de outro usuário
func (s *SQLStore) checkOwner(ctx context.Context, betID, userID string) error {
	var owner string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT user_id FROM bets WHERE id = ?`), betID).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("bet %s: %w", betID, model.ErrNotFound)
	case err != nil:
		return err
	case owner != userID:
		return fmt.Errorf("bet %s: %w", betID, model.ErrForbidden)
	default:
		return nil
	}
}

// ---------- bancas ----------

const settingsCols = `id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at`

func scanSettings(r scanner) (model.BankrollSettings, error) {
	var bs model.BankrollSettings
	err := r.Scan(&bs.ID, &bs.UserID, &bs.BankrollName, &bs.InitialBankroll, &bs.IsPremium, &bs.CreatedAt, &bs.UpdatedAt)
	return bs, err
}

// GetUserSettings devolve a banca principal: a de id determinístico ou,
// em bases legadas, a não premium mais antiga do usuário
func (s *SQLStore) GetUserSettings(ctx context.Context, userID string) (model.BankrollSettings, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+settingsCols+` FROM user_settings
		 WHERE user_id = ?
		 ORDER BY CASE WHEN id = ? THEN 0 WHEN is_premium THEN 2 ELSE 1 END, created_at ASC
		 LIMIT 1`), userID, model.SettingsID(userID))
	bs, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && bs.IsPremium) {
		return model.BankrollSettings{}, fmt.Errorf("settings for %s: %w", userID, model.ErrNotFound)
	}
	return bs, err
}

func (s *SQLStore) ListBankrolls(ctx context.Context, userID string) ([]model.BankrollSettings, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+settingsCols+` FROM user_settings WHERE user_id = ? ORDER BY created_at ASC, id ASC`), userID)
	if err != nil {
		return nil, fmt.Errorf("query bankrolls: %w", err)
	}
	defer rows.Close()

	out := []model.BankrollSettings{}
	for rows.Next() {
		bs, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}

// CreateOrUpdateUserSettings substitui a banca principal por inteiro.
// Upsert (e não delete+insert) para não cascatear nas apostas.
func (s *SQLStore) CreateOrUpdateUserSettings(ctx context.Context, userID string, initial decimal.Decimal, name string) error {
	name = model.BankrollNameOrDefault(name)
	if err := model.ValidateBankroll(initial, name); err != nil {
		return err
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO user_settings (id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			bankroll_name    = excluded.bankroll_name,
			initial_bankroll = excluded.initial_bankroll,
			is_premium       = excluded.is_premium,
			updated_at       = excluded.updated_at`),
		model.SettingsID(userID), userID, name, initial, false, now, now)
	if err != nil {
		if s.d.isForeignKey(err) {
			return model.Invalid("user_id", "unknown user")
		}
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// CreateBankroll cria uma banca extra (premium)
func (s *SQLStore) CreateBankroll(ctx context.Context, userID, name string, initial decimal.Decimal) (model.BankrollSettings, error) {
	if err := model.ValidateBankroll(initial, name); err != nil {
		return model.BankrollSettings{}, err
	}

	now := s.now()
	bs := model.BankrollSettings{
		ID:              model.NewBankrollID(userID),
		UserID:          userID,
		BankrollName:    model.BankrollNameOrDefault(name),
		InitialBankroll: initial,
		IsPremium:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO user_settings (id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		bs.ID, bs.UserID, bs.BankrollName, bs.InitialBankroll, bs.IsPremium, bs.CreatedAt, bs.UpdatedAt)
	if err != nil {
		if s.d.isForeignKey(err) {
			return model.BankrollSettings{}, model.Invalid("user_id", "unknown user")
		}
		return model.BankrollSettings{}, fmt.Errorf("insert bankroll: %w", err)
	}
	return bs, nil
}

// IsPremium é verdadeiro quando o usuário possui alguma banca premium
func (s *SQLStore) IsPremium(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM user_settings WHERE user_id = ? AND is_premium = ?`), userID, true).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count premium: %w", err)
	}
	return n > 0, nil
}
