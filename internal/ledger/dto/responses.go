package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SettingsResponse devolve 0 e o nome padrão quando o usuário ainda não tem banca
type SettingsResponse struct {
	BankrollID      string          `json:"bankrollId,omitempty"`
	InitialBankroll decimal.Decimal `json:"initialBankroll"`
	BankrollName    string          `json:"bankrollName"`
	IsPremium       bool            `json:"isPremium"`
}

type ImportResponse struct {
	Message    string    `json:"message"`
	ImportedAt time.Time `json:"importedAt"`
}
