package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Escalas gravadas no banco (NUMERIC(10,3) e NUMERIC(14,2) no postgres).
// Odds e stake são arredondadas antes do cálculo do lucro para que os dois
// bancos guardem os mesmos valores.
const (
	OddsScale  = 3
	MoneyScale = 2
)

// Normalize remove espaços das strings, arredonda odds/stake à escala do
// banco e aplica o resultado padrão (pending)
func (b *Bet) Normalize() {
	b.ID = strings.TrimSpace(b.ID)
	b.UserID = strings.TrimSpace(b.UserID)
	b.BankrollID = strings.TrimSpace(b.BankrollID)
	b.Date = strings.TrimSpace(b.Date)
	b.Sport = strings.TrimSpace(b.Sport)
	b.MatchName = strings.TrimSpace(b.MatchName)
	b.BetType = strings.TrimSpace(b.BetType)
	b.Bookmaker = strings.TrimSpace(b.Bookmaker)

	b.Odds = b.Odds.Round(OddsScale)
	b.Stake = b.Stake.Round(MoneyScale)

	b.Result = Result(strings.ToLower(strings.TrimSpace(string(b.Result))))
	if b.Result == "" {
		b.Result = ResultPending
	}
}

// Validate confere os campos obrigatórios de uma aposta já normalizada
func (b *Bet) Validate() error {
	switch {
	case b.UserID == "":
		return Invalid("user_id", "is required")
	case b.Date == "":
		return Invalid("date", "is required")
	case b.Sport == "":
		return Invalid("sport", "is required")
	case b.MatchName == "":
		return Invalid("match_name", "is required")
	case b.BetType == "":
		return Invalid("bet_type", "is required")
	case b.Bookmaker == "":
		return Invalid("bookmaker", "is required")
	}

	if _, err := time.Parse(DateLayout, b.Date); err != nil {
		return Invalid("date", "must be a calendar date (YYYY-MM-DD)")
	}
	if !b.Odds.IsPositive() {
		return Invalid("odds", "must be greater than zero")
	}
	if !b.Stake.IsPositive() {
		return Invalid("stake", "must be greater than zero")
	}
	if !b.Result.Valid() {
		return Invalid("result", "must be one of pending, won, lost")
	}
	return nil
}

// ValidateBankroll confere valor e nome de uma banca
func ValidateBankroll(initial decimal.Decimal, name string) error {
	if initial.IsNegative() {
		return Invalid("initial_bankroll", "must not be negative")
	}
	if strings.TrimSpace(name) == "" {
		return Invalid("bankroll_name", "is required")
	}
	return nil
}

// BankrollNameOrDefault devolve o nome aparado ou "Main Bankroll"
func BankrollNameOrDefault(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultBankrollName
}
