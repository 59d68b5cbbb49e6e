package repo

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// migrate cria o schema atual e evolui bases antigas sem perder dados.
// Idempotente: pode rodar a cada inicialização.
func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	cache := map[string]map[string]bool{}
	for _, ev := range s.d.evolutions {
		cols, ok := cache[ev.table]
		if !ok {
			var err error
			if cols, err = s.d.columns(ctx, s.db, ev.table); err != nil {
				return fmt.Errorf("inspect %s: %w", ev.table, err)
			}
			cache[ev.table] = cols
		}
		if cols[ev.column] {
			continue
		}

		s.log.Info("adding missing column", zap.String("table", ev.table), zap.String("column", ev.column))
		if _, err := s.db.ExecContext(ctx, ev.ddl); err != nil {
			return fmt.Errorf("add %s.%s: %w", ev.table, ev.column, err)
		}
		cols[ev.column] = true
	}

	// índices depois da evolução: alguns usam colunas recém adicionadas
	if _, err := s.db.ExecContext(ctx, s.d.indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	return s.backfillBankrolls(ctx)
}

// backfillBankrolls garante que toda aposta pertença a uma banca: usuários com
// apostas e sem banca ganham a principal, e apostas órfãs vão para a mais antiga
func (s *SQLStore) backfillBankrolls(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (id, user_id, bankroll_name, initial_bankroll, is_premium, created_at, updated_at)
		SELECT 'settings-' || u.id, u.id, 'Main Bankroll', 0, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		  FROM users u
		 WHERE EXISTS (SELECT 1 FROM bets b WHERE b.user_id = u.id AND b.bankroll_id IS NULL)
		   AND NOT EXISTS (SELECT 1 FROM user_settings us WHERE us.user_id = u.id)`)
	if err != nil {
		return fmt.Errorf("backfill settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Info("created primary bankrolls for legacy users", zap.Int64("count", n))
	}

	res, err = s.db.ExecContext(ctx, `
		UPDATE bets
		   SET bankroll_id = (
		       SELECT us.id FROM user_settings us
		        WHERE us.user_id = bets.user_id
		        ORDER BY us.created_at ASC
		        LIMIT 1)
		 WHERE bankroll_id IS NULL`)
	if err != nil {
		return fmt.Errorf("backfill bankroll_id: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Info("backfilled bankroll_id on legacy bets", zap.Int64("count", n))
	}
	return nil
}
