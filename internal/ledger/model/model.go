// Package model define as entidades do ledger de apostas (usuário, banca,
// aposta), o documento de backup e a taxonomia de erros compartilhada
// entre repositório, HTTP e sync.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// odds/stake/profit trafegam como número no JSON, não como string
	decimal.MarshalJSONWithoutQuotes = true
}

// Result é o resultado de uma aposta
type Result string

const (
	ResultPending Result = "pending"
	ResultWon     Result = "won"
	ResultLost    Result = "lost"
)

// Valid indica se o resultado pertence ao conjunto aceito
func (r Result) Valid() bool {
	switch r {
	case ResultPending, ResultWon, ResultLost:
		return true
	}
	return false
}

// Finalized é verdadeiro para apostas já liquidadas (won/lost)
func (r Result) Finalized() bool { return r == ResultWon || r == ResultLost }

// Conjuntos recomendados (não obrigatórios) exibidos nos formulários
var (
	Sports     = []string{"Football", "Basketball", "Tennis", "Volleyball", "MMA", "Formula 1"}
	Bookmakers = []string{"Bet365", "Superbet", "Betano", "Novibet", "Other"}
)

const (
	DefaultBankrollName = "Main Bankroll"
	DefaultBookmaker    = "Other"

	// OfflineIDPrefix marca apostas criadas sem conexão com o remoto
	OfflineIDPrefix = "offline-"

	// DateLayout é o formato de data de calendário das apostas
	DateLayout = "2006-01-02"
)

// User é a identidade do apostador; o email é a chave externa
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BankrollSettings é uma banca do usuário. A principal tem id determinístico
// (SettingsID); bancas extras são recurso premium.
type BankrollSettings struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	BankrollName    string          `json:"bankroll_name"`
	InitialBankroll decimal.Decimal `json:"initial_bankroll"`
	IsPremium       bool            `json:"is_premium"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Bet é uma aposta registrada. Profit é sempre derivado do Result.
type Bet struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	BankrollID string          `json:"bankroll_id,omitempty"`
	Date       string          `json:"date"`
	Sport      string          `json:"sport"`
	MatchName  string          `json:"match_name"`
	BetType    string          `json:"bet_type"`
	Bookmaker  string          `json:"bookmaker"`
	Odds       decimal.Decimal `json:"odds"`
	Stake      decimal.Decimal `json:"stake"`
	Result     Result          `json:"result"`
	Profit     decimal.Decimal `json:"profit"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NormalizeEmail aplica a forma canônica usada na comparação de identidade
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SettingsID é o id determinístico da banca principal de um usuário
func SettingsID(userID string) string { return "settings-" + userID }

// NewBankrollID gera o id de uma banca extra (premium)
func NewBankrollID(userID string) string {
	return "bankroll-" + userID + "-" + uuid.NewString()
}

// NewOfflineBetID gera o id de uma aposta criada apenas no cache
func NewOfflineBetID() string { return OfflineIDPrefix + uuid.NewString() }

// IsServerID indica se o id pode ser reaproveitado no remoto.
// Ids offline ou fora do formato UUID são regenerados no sync.
func IsServerID(id string) bool {
	if strings.HasPrefix(id, OfflineIDPrefix) {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
