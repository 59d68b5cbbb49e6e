package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/bet-ledger/internal/ledger/model"
	"github.com/radieske/bet-ledger/internal/shared/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()

	conn, err := db.OpenSQLite(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	s, err := NewSQLite(ctx, conn, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newBet(userID, date string, result model.Result) *model.Bet {
	return &model.Bet{
		UserID:    userID,
		Date:      date,
		Sport:     "Football",
		MatchName: "Flamengo x Palmeiras",
		BetType:   "Match odds - home",
		Bookmaker: "Bet365",
		Odds:      d("2.50"),
		Stake:     d("100"),
		Result:    result,
	}
}

func mustUser(t *testing.T, s *SQLStore, email string) model.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "Tester")
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return u
}

func TestCreateUser_EmailIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "  Ana@Example.com ")
	if u.Email != "ana@example.com" {
		t.Errorf("Email = %q, want normalized", u.Email)
	}

	if _, err := s.CreateUser(ctx, "ANA@example.com", "Other"); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("CreateUser duplicate error = %v, want ErrConflict", err)
	}

	got, err := s.GetUserByEmail(ctx, "ana@EXAMPLE.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail() = %+v, %v; want %s", got, err, u.ID)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("GetUserByEmail(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateBet_DerivesProfitAndPrimaryBankroll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")

	b := newBet(u.ID, "2025-03-01", model.ResultWon)
	b.Profit = d("9999") // ignorado
	id, err := s.CreateBet(ctx, b)
	if err != nil {
		t.Fatalf("CreateBet failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreateBet returned empty id")
	}

	bets, err := s.GetBetsByUserID(ctx, u.ID)
	if err != nil || len(bets) != 1 {
		t.Fatalf("GetBetsByUserID() = %d bets, %v", len(bets), err)
	}
	got := bets[0]
	if !got.Profit.Equal(d("150")) {
		t.Errorf("Profit = %s, want 150", got.Profit)
	}
	if got.BankrollID != model.SettingsID(u.ID) {
		t.Errorf("BankrollID = %q, want %q", got.BankrollID, model.SettingsID(u.ID))
	}
	if got.Date != "2025-03-01" || got.Result != model.ResultWon {
		t.Errorf("stored bet = %+v", got)
	}

	settings, err := s.GetUserSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserSettings failed: %v", err)
	}
	if settings.BankrollName != model.DefaultBankrollName || !settings.InitialBankroll.IsZero() {
		t.Errorf("primary bankroll = %+v, want defaults", settings)
	}
}

func TestCreateBet_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")

	bad := newBet(u.ID, "2025-03-01", model.ResultPending)
	bad.Stake = decimal.Zero
	if _, err := s.CreateBet(ctx, bad); !errors.Is(err, model.ErrValidation) {
		t.Errorf("CreateBet(stake 0) error = %v, want ErrValidation", err)
	}

	unknown := newBet("ghost", "2025-03-01", model.ResultPending)
	if _, err := s.CreateBet(ctx, unknown); !errors.Is(err, model.ErrValidation) {
		t.Errorf("CreateBet(unknown user) error = %v, want ErrValidation", err)
	}
}

func TestGetBets_OrderByDateDescThenInsertion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")

	var ids []string
	for _, date := range []string{"2025-01-01", "2025-03-01", "2025-03-01", "2025-02-01"} {
		id, err := s.CreateBet(ctx, newBet(u.ID, date, model.ResultPending))
		if err != nil {
			t.Fatalf("CreateBet failed: %v", err)
		}
		ids = append(ids, id)
	}

	bets, err := s.GetBetsByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetBetsByUserID failed: %v", err)
	}
	want := []string{ids[1], ids[2], ids[3], ids[0]}
	for i, b := range bets {
		if b.ID != want[i] {
			t.Fatalf("bets[%d] = %s (%s), want %s", i, b.ID, b.Date, want[i])
		}
	}
}

func TestUpdateAndDelete_Ownership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "owner@x.com")
	other := mustUser(t, s, "other@x.com")

	b := newBet(owner.ID, "2025-03-01", model.ResultPending)
	id, err := s.CreateBet(ctx, b)
	if err != nil {
		t.Fatalf("CreateBet failed: %v", err)
	}

	upd := newBet(other.ID, "2025-03-01", model.ResultWon)
	upd.ID = id
	if err := s.UpdateBet(ctx, upd); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("UpdateBet(other user) error = %v, want ErrForbidden", err)
	}
	if err := s.DeleteBet(ctx, id, other.ID); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("DeleteBet(other user) error = %v, want ErrForbidden", err)
	}
	if err := s.DeleteBet(ctx, "missing", owner.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("DeleteBet(missing) error = %v, want ErrNotFound", err)
	}

	upd = newBet(owner.ID, "2025-03-02", model.ResultLost)
	upd.ID = id
	upd.Stake = d("40")
	if err := s.UpdateBet(ctx, upd); err != nil {
		t.Fatalf("UpdateBet failed: %v", err)
	}
	bets, _ := s.GetBetsByUserID(ctx, owner.ID)
	if len(bets) != 1 || !bets[0].Profit.Equal(d("-40")) || bets[0].Date != "2025-03-02" {
		t.Fatalf("after update = %+v, want lost -40 on 2025-03-02", bets)
	}
	if bets[0].BankrollID != model.SettingsID(owner.ID) {
		t.Errorf("BankrollID changed to %q", bets[0].BankrollID)
	}

	if err := s.DeleteBet(ctx, id, owner.ID); err != nil {
		t.Fatalf("DeleteBet failed: %v", err)
	}
	if err := s.DeleteBet(ctx, id, owner.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("DeleteBet twice error = %v, want ErrNotFound", err)
	}
}

func TestSettings_UpsertReplacesPrimary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")

	if _, err := s.GetUserSettings(ctx, u.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUserSettings(new user) error = %v, want ErrNotFound", err)
	}

	if err := s.CreateOrUpdateUserSettings(ctx, u.ID, d("1000"), ""); err != nil {
		t.Fatalf("CreateOrUpdateUserSettings failed: %v", err)
	}
	// apostas existentes não podem sumir quando a banca é substituída
	if _, err := s.CreateBet(ctx, newBet(u.ID, "2025-03-01", model.ResultWon)); err != nil {
		t.Fatalf("CreateBet failed: %v", err)
	}
	if err := s.CreateOrUpdateUserSettings(ctx, u.ID, d("500"), "Weekend"); err != nil {
		t.Fatalf("CreateOrUpdateUserSettings (update) failed: %v", err)
	}

	got, err := s.GetUserSettings(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserSettings failed: %v", err)
	}
	if got.ID != model.SettingsID(u.ID) || got.BankrollName != "Weekend" || !got.InitialBankroll.Equal(d("500")) {
		t.Errorf("settings = %+v, want Weekend/500", got)
	}

	bets, _ := s.GetBetsByUserID(ctx, u.ID)
	if len(bets) != 1 {
		t.Errorf("bets after settings update = %d, want 1", len(bets))
	}

	if err := s.CreateOrUpdateUserSettings(ctx, u.ID, d("-1"), "X"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("negative bankroll error = %v, want ErrValidation", err)
	}
}

func TestBankrolls_PremiumAndScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")
	other := mustUser(t, s, "b@x.com")

	premium, err := s.IsPremium(ctx, u.ID)
	if err != nil || premium {
		t.Fatalf("IsPremium(new) = %v, %v; want false", premium, err)
	}

	extra, err := s.CreateBankroll(ctx, u.ID, "Tennis only", d("200"))
	if err != nil {
		t.Fatalf("CreateBankroll failed: %v", err)
	}
	if !extra.IsPremium {
		t.Error("extra bankroll should be premium")
	}
	if premium, _ = s.IsPremium(ctx, u.ID); !premium {
		t.Error("IsPremium() = false after extra bankroll")
	}

	if _, err := s.CreateBet(ctx, newBet(u.ID, "2025-03-01", model.ResultPending)); err != nil {
		t.Fatalf("CreateBet primary failed: %v", err)
	}
	scoped := newBet(u.ID, "2025-03-02", model.ResultWon)
	scoped.BankrollID = extra.ID
	if _, err := s.CreateBet(ctx, scoped); err != nil {
		t.Fatalf("CreateBet extra failed: %v", err)
	}

	bets, err := s.GetBetsByBankrollID(ctx, u.ID, extra.ID)
	if err != nil || len(bets) != 1 || bets[0].Date != "2025-03-02" {
		t.Fatalf("GetBetsByBankrollID() = %+v, %v", bets, err)
	}

	list, err := s.ListBankrolls(ctx, u.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListBankrolls() = %d, %v; want 2", len(list), err)
	}

	foreign := newBet(other.ID, "2025-03-02", model.ResultWon)
	foreign.BankrollID = extra.ID
	if _, err := s.CreateBet(ctx, foreign); !errors.Is(err, model.ErrValidation) {
		t.Errorf("CreateBet(foreign bankroll) error = %v, want ErrValidation", err)
	}
}

func TestBetIDsByUserID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "a@x.com")

	b := newBet(u.ID, "2025-03-01", model.ResultPending)
	b.ID = "6f1c2a8e-3b7d-4c1e-9a2b-0d4e5f6a7b8c"
	if err := s.InsertBet(ctx, b); err != nil {
		t.Fatalf("InsertBet failed: %v", err)
	}

	ids, err := s.BetIDsByUserID(ctx, u.ID)
	if err != nil {
		t.Fatalf("BetIDsByUserID failed: %v", err)
	}
	if _, ok := ids[b.ID]; !ok || len(ids) != 1 {
		t.Errorf("BetIDsByUserID() = %v, want {%s}", ids, b.ID)
	}

	if err := s.InsertBet(ctx, b); !errors.Is(err, model.ErrConflict) {
		t.Errorf("InsertBet(duplicate) error = %v, want ErrConflict", err)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, src, "a@x.com")
	if err := src.CreateOrUpdateUserSettings(ctx, u.ID, d("1000"), "Main Bankroll"); err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	for _, date := range []string{"2025-03-01", "2025-03-01", "2025-03-02"} {
		if _, err := src.CreateBet(ctx, newBet(u.ID, date, model.ResultWon)); err != nil {
			t.Fatalf("CreateBet failed: %v", err)
		}
	}

	doc, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(doc.Users) != 1 || len(doc.Settings) != 1 || len(doc.Bets) != 3 {
		t.Fatalf("Export() = %d users, %d settings, %d bets", len(doc.Users), len(doc.Settings), len(doc.Bets))
	}

	dst := newTestStore(t)
	mustUser(t, dst, "stale@x.com")
	if err := dst.Import(ctx, doc); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if _, err := dst.GetUserByEmail(ctx, "stale@x.com"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("stale user survived import: %v", err)
	}

	want, _ := src.GetBetsByUserID(ctx, u.ID)
	got, err := dst.GetBetsByUserID(ctx, u.ID)
	if err != nil || len(got) != len(want) {
		t.Fatalf("imported bets = %d, %v; want %d", len(got), err, len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || !got[i].Profit.Equal(want[i].Profit) {
			t.Errorf("bet[%d] = %s/%s, want %s/%s", i, got[i].ID, got[i].Profit, want[i].ID, want[i].Profit)
		}
	}
}

func TestImport_RecomputesProfitAndRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	existing := mustUser(t, s, "keep@x.com")

	doc := model.Backup{
		Users:    []model.User{{ID: "u1", Email: "A@X.com", Name: "A"}},
		Settings: []model.BankrollSettings{{ID: "settings-u1", UserID: "u1", InitialBankroll: d("100")}},
		Bets: []model.Bet{{
			ID: "b1", UserID: "u1", BankrollID: "settings-u1", Date: "2025-03-01",
			Sport: "Tennis", MatchName: "A x B", BetType: "ML", Bookmaker: "Betano",
			Odds: d("2"), Stake: d("10"), Result: model.ResultLost, Profit: d("777"),
		}},
	}
	if err := s.Import(ctx, doc); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	bets, _ := s.GetBetsByUserID(ctx, "u1")
	if len(bets) != 1 || !bets[0].Profit.Equal(d("-10")) {
		t.Fatalf("imported bets = %+v, want profit -10", bets)
	}
	if u, err := s.GetUserByEmail(ctx, "a@x.com"); err != nil || u.ID != "u1" {
		t.Errorf("GetUserByEmail() = %+v, %v", u, err)
	}

	// segundo documento quebra no meio: nada pode mudar
	broken := model.Backup{
		Users: []model.User{{ID: "u2", Email: "b@x.com"}, {ID: "u3", Email: "B@x.com"}},
		Bets:  []model.Bet{},
	}
	if err := s.Import(ctx, broken); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("Import(duplicate emails) error = %v, want ErrConflict", err)
	}
	if _, err := s.GetUserByID(ctx, "u1"); err != nil {
		t.Errorf("previous state lost after failed import: %v", err)
	}
	if _, err := s.GetUserByID(ctx, existing.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("user from before first import should be gone, got %v", err)
	}
}

func TestMigrate_EvolvesLegacySchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	conn, err := db.OpenSQLite(ctx, dir)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	legacy := `
	CREATE TABLE users (id TEXT PRIMARY KEY, email TEXT UNIQUE NOT NULL, name TEXT NOT NULL, created_at DATETIME DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE user_settings (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, initial_bankroll REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE bets (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, date TEXT NOT NULL, sport TEXT NOT NULL,
		match_name TEXT NOT NULL, bet_type TEXT NOT NULL, odds REAL NOT NULL, stake REAL NOT NULL,
		result TEXT DEFAULT 'pending', profit REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP, updated_at DATETIME DEFAULT CURRENT_TIMESTAMP);

	INSERT INTO users (id, email, name) VALUES ('u1', 'Old@X.com', 'Old'), ('u2', 'none@x.com', 'None');
	INSERT INTO user_settings (id, user_id, initial_bankroll) VALUES ('legacy-1', 'u1', 300);
	INSERT INTO bets (id, user_id, date, sport, match_name, bet_type, odds, stake, result, profit)
	VALUES ('b1', 'u1', '2024-05-01', 'Football', 'A x B', 'ML', 2.0, 10, 'won', 10),
	       ('b2', 'u2', '2024-05-02', 'Tennis', 'C x D', 'ML', 1.5, 20, 'pending', 0);`
	if _, err := conn.ExecContext(ctx, legacy); err != nil {
		t.Fatalf("legacy schema failed: %v", err)
	}

	s, err := NewSQLite(ctx, conn, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewSQLite on legacy db failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	bets, err := s.GetBetsByUserID(ctx, "u1")
	if err != nil || len(bets) != 1 {
		t.Fatalf("GetBetsByUserID(u1) = %+v, %v", bets, err)
	}
	if bets[0].Bookmaker != model.DefaultBookmaker {
		t.Errorf("Bookmaker = %q, want %q", bets[0].Bookmaker, model.DefaultBookmaker)
	}
	if bets[0].BankrollID != "legacy-1" {
		t.Errorf("BankrollID = %q, want legacy-1", bets[0].BankrollID)
	}

	settings, err := s.GetUserSettings(ctx, "u1")
	if err != nil || settings.BankrollName != model.DefaultBankrollName || settings.IsPremium {
		t.Errorf("legacy settings = %+v, %v", settings, err)
	}

	// u2 tinha aposta mas nenhuma banca
	bets, _ = s.GetBetsByUserID(ctx, "u2")
	if len(bets) != 1 || bets[0].BankrollID != model.SettingsID("u2") {
		t.Errorf("u2 bets = %+v, want backfilled to %s", bets, model.SettingsID("u2"))
	}

	if u, err := s.GetUserByEmail(ctx, "old@x.com"); err != nil || u.ID != "u1" {
		t.Errorf("GetUserByEmail(legacy mixed case) = %+v, %v", u, err)
	}

	// segunda execução não faz nada
	if _, err := NewSQLite(ctx, s.db, zaptest.NewLogger(t)); err != nil {
		t.Errorf("second migrate failed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	got := postgresDialect.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`)
	if got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Errorf("rebind() = %q", got)
	}
	if q := sqliteDialect.rebind(`x = ?`); q != `x = ?` {
		t.Errorf("sqlite rebind() = %q", q)
	}
}

func TestUpdateBet_OwnershipBeforeBankroll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "owner@x.com")
	other := mustUser(t, s, "other@x.com")

	id, err := s.CreateBet(ctx, newBet(owner.ID, "2025-03-01", model.ResultPending))
	if err != nil {
		t.Fatalf("CreateBet failed: %v", err)
	}

	tests := []struct {
		name     string
		userID   string
		betID    string
		bankroll string
		want     error
	}{
		{"other user with owner's bankroll", other.ID, id, model.SettingsID(owner.ID), model.ErrForbidden},
		{"missing bet with a bankroll", owner.ID, "missing", model.SettingsID(owner.ID), model.ErrNotFound},
		{"owner with foreign bankroll", owner.ID, id, "nope", model.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upd := newBet(tt.userID, "2025-03-01", model.ResultWon)
			upd.ID = tt.betID
			upd.BankrollID = tt.bankroll
			if err := s.UpdateBet(ctx, upd); !errors.Is(err, tt.want) {
				t.Errorf("UpdateBet() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateBet_RoundsToColumnScale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "scale@x.com")

	b := newBet(u.ID, "2025-03-01", model.ResultWon)
	b.Odds = d("1.8335")
	b.Stake = d("10.005")
	if _, err := s.CreateBet(ctx, b); err != nil {
		t.Fatalf("CreateBet failed: %v", err)
	}

	bets, err := s.GetBetsByUserID(ctx, u.ID)
	if err != nil || len(bets) != 1 {
		t.Fatalf("GetBetsByUserID() = %+v, %v", bets, err)
	}
	got := bets[0]
	if !got.Odds.Equal(d("1.834")) || !got.Stake.Equal(d("10.01")) {
		t.Errorf("stored odds/stake = %s/%s, want 1.834/10.01", got.Odds, got.Stake)
	}
	// 10.01 * 1.834 - 10.01
	if !got.Profit.Equal(d("8.35")) {
		t.Errorf("Profit = %s, want 8.35", got.Profit)
	}
}

func TestImport_AssignsPrimaryBankroll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bet := func(id, userID string) model.Bet {
		b := *newBet(userID, "2025-03-01", model.ResultLost)
		b.ID = id
		return b
	}
	doc := model.Backup{
		Users: []model.User{
			{ID: "u1", Email: "a@x.com"},
			{ID: "u2", Email: "b@x.com"},
		},
		Settings: []model.BankrollSettings{
			{ID: "premium-u1", UserID: "u1", IsPremium: true, InitialBankroll: d("50")},
			{ID: "settings-u1", UserID: "u1", InitialBankroll: d("100")},
		},
		Bets: []model.Bet{bet("b1", "u1"), bet("b2", "u2")},
	}
	if err := s.Import(ctx, doc); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	tests := []struct {
		userID   string
		bankroll string
	}{
		{"u1", "settings-u1"},
		{"u2", "settings-u2"},
	}
	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			bets, err := s.GetBetsByBankrollID(ctx, tt.userID, tt.bankroll)
			if err != nil || len(bets) != 1 {
				t.Fatalf("GetBetsByBankrollID(%s) = %+v, %v, want 1 bet", tt.bankroll, bets, err)
			}
			bs, err := s.GetUserSettings(ctx, tt.userID)
			if err != nil || bs.ID != tt.bankroll {
				t.Errorf("GetUserSettings() = %+v, %v, want %s", bs, err, tt.bankroll)
			}
		})
	}
}
