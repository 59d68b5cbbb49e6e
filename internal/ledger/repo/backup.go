package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/bet-ledger/internal/ledger/accounting"
	"github.com/radieske/bet-ledger/internal/ledger/model"
)

// Export lê o banco inteiro (todos os usuários) em um snapshot
func (s *SQLStore) Export(ctx context.Context) (model.Backup, error) {
	doc := model.Backup{
		Users:      []model.User{},
		Bets:       []model.Bet{},
		Settings:   []model.BankrollSettings{},
		ExportedAt: s.now(),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return model.Backup{}, fmt.Errorf("export users: %w", err)
	}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return model.Backup{}, err
		}
		doc.Users = append(doc.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Backup{}, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT `+settingsCols+` FROM user_settings ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return model.Backup{}, fmt.Errorf("export settings: %w", err)
	}
	for rows.Next() {
		bs, err := scanSettings(rows)
		if err != nil {
			rows.Close()
			return model.Backup{}, err
		}
		doc.Settings = append(doc.Settings, bs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Backup{}, err
	}

	bets, err := s.queryBets(ctx, `SELECT `+s.betCols()+` FROM bets ORDER BY date DESC, `+s.d.insertionOrder+` ASC`)
	if err != nil {
		return model.Backup{}, fmt.Errorf("export bets: %w", err)
	}
	doc.Bets = bets

	return doc, nil
}

// Import substitui TODO o conteúdo do banco pelo documento, em uma única
// transação. Qualquer falha desfaz a operação e o estado anterior permanece.
func (s *SQLStore) Import(ctx context.Context, doc model.Backup) error {
	if err := s.prepareImport(&doc); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"bets", "user_settings", "users"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range doc.Users {
		if _, err = tx.ExecContext(ctx, s.q(`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`),
			u.ID, u.Email, u.Name, u.CreatedAt); err != nil {
			return s.importError("user", u.ID, err)
		}
	}

	for _, bs := range doc.Settings {
		if _, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO user_settings (id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
			bs.ID, bs.UserID, bs.BankrollName, bs.InitialBankroll, bs.IsPremium, bs.CreatedAt, bs.UpdatedAt); err != nil {
			return s.importError("settings", bs.ID, err)
		}
	}

	for _, b := range doc.Bets {
		if _, err = tx.ExecContext(ctx, s.q(`
			INSERT INTO bets (id, user_id, bankroll_id, date, sport, match_name, bet_type, bookmaker,
			                  odds, stake, result, profit, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			b.ID, b.UserID, nullable(b.BankrollID), b.Date, b.Sport, b.MatchName, b.BetType, b.Bookmaker,
			b.Odds, b.Stake, string(b.Result), b.Profit, b.CreatedAt, b.UpdatedAt); err != nil {
			return s.importError("bet", b.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.log.Info("backup imported",
		zap.Int("users", len(doc.Users)),
		zap.Int("settings", len(doc.Settings)),
		zap.Int("bets", len(doc.Bets)))
	return nil
}

// prepareImport normaliza e valida o documento antes de abrir a transação.
// Lucro é recalculado; o valor gravado no arquivo é ignorado.
func (s *SQLStore) prepareImport(doc *model.Backup) error {
	now := s.now()

	users := make(map[string]bool, len(doc.Users))
	for i := range doc.Users {
		u := &doc.Users[i]
		u.Email = model.NormalizeEmail(u.Email)
		if u.ID == "" {
			return model.Invalid(fmt.Sprintf("users[%d].id", i), "is required")
		}
		if u.Email == "" {
			return model.Invalid(fmt.Sprintf("users[%d].email", i), "is required")
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		users[u.ID] = true
	}

	owners := make(map[string]string, len(doc.Settings))
	for i := range doc.Settings {
		bs := &doc.Settings[i]
		if !users[bs.UserID] {
			return model.Invalid(fmt.Sprintf("settings[%d].user_id", i), "unknown user")
		}
		if bs.ID == "" {
			bs.ID = model.SettingsID(bs.UserID)
		}
		bs.BankrollName = model.BankrollNameOrDefault(bs.BankrollName)
		if err := model.ValidateBankroll(bs.InitialBankroll, bs.BankrollName); err != nil {
			return fmt.Errorf("settings[%d]: %w", i, err)
		}
		if bs.CreatedAt.IsZero() {
			bs.CreatedAt = now
		}
		if bs.UpdatedAt.IsZero() {
			bs.UpdatedAt = bs.CreatedAt
		}
		owners[bs.ID] = bs.UserID
	}

	primaries := primaryBankrolls(doc.Settings)

	for i := range doc.Bets {
		b := &doc.Bets[i]
		b.Normalize()
		if b.Bookmaker == "" {
			b.Bookmaker = model.DefaultBookmaker
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bets[%d]: %w", i, err)
		}
		if !users[b.UserID] {
			return model.Invalid(fmt.Sprintf("bets[%d].user_id", i), "unknown user")
		}
		if b.BankrollID != "" && owners[b.BankrollID] != b.UserID {
			return model.Invalid(fmt.Sprintf("bets[%d].bankroll_id", i), "does not belong to user")
		}
		if b.BankrollID == "" {
			id, ok := primaries[b.UserID]
			if !ok {
				// mesmo padrão do ensurePrimary: banca principal com os defaults
				id = model.SettingsID(b.UserID)
				switch owners[id] {
				case b.UserID:
				case "":
					doc.Settings = append(doc.Settings, model.BankrollSettings{
						ID:              id,
						UserID:          b.UserID,
						BankrollName:    model.DefaultBankrollName,
						InitialBankroll: decimal.Zero,
						CreatedAt:       now,
						UpdatedAt:       now,
					})
					owners[id] = b.UserID
				default:
					return model.Invalid(fmt.Sprintf("settings[%s].user_id", id), "does not match the bankroll owner")
				}
				primaries[b.UserID] = id
			}
			b.BankrollID = id
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		accounting.ApplyProfit(b)
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = b.CreatedAt
		}
	}
	return nil
}

// primaryBankrolls escolhe a banca principal de cada usuário do documento com
// a mesma regra de GetUserSettings: id determinístico, senão a não premium
// mais antiga
func primaryBankrolls(settings []model.BankrollSettings) map[string]string {
	chosen := make(map[string]model.BankrollSettings, len(settings))
	for _, bs := range settings {
		if bs.IsPremium {
			continue
		}
		cur, ok := chosen[bs.UserID]
		switch {
		case !ok, bs.ID == model.SettingsID(bs.UserID):
			chosen[bs.UserID] = bs
		case cur.ID != model.SettingsID(cur.UserID) && bs.CreatedAt.Before(cur.CreatedAt):
			chosen[bs.UserID] = bs
		}
	}

	out := make(map[string]string, len(chosen))
	for uid, bs := range chosen {
		out[uid] = bs.ID
	}
	return out
}

func (s *SQLStore) importError(kind, id string, err error) error {
	switch {
	case s.d.isUniqueViolation(err):
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrConflict)
	case s.d.isForeignKey(err):
		return model.Invalid(kind, fmt.Sprintf("%s references a missing row", id))
	default:
		return fmt.Errorf("import %s %s: %w", kind, id, err)
	}
}
