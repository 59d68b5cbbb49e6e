package model

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Backup é o snapshot completo do banco (todos os usuários).
// Formato JSON legível, pensado para restauração destrutiva.
type Backup struct {
	Users      []User             `json:"users"`
	Bets       []Bet              `json:"bets"`
	Settings   []BankrollSettings `json:"settings"`
	ExportedAt time.Time          `json:"exportedAt"`
}

// DecodeBackup lê um documento de backup exigindo as chaves users, bets e settings.
// Listas vazias são aceitas; chave ausente (ou null) é erro de validação.
func DecodeBackup(r io.Reader) (Backup, error) {
	var doc struct {
		Users      *[]User             `json:"users"`
		Bets       *[]Bet              `json:"bets"`
		Settings   *[]BankrollSettings `json:"settings"`
		ExportedAt time.Time           `json:"exportedAt"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Backup{}, &ValidationError{Msg: fmt.Sprintf("invalid backup document: %v", err)}
	}

	switch {
	case doc.Users == nil:
		return Backup{}, Invalid("users", "is required")
	case doc.Bets == nil:
		return Backup{}, Invalid("bets", "is required")
	case doc.Settings == nil:
		return Backup{}, Invalid("settings", "is required")
	}

	return Backup{
		Users:      *doc.Users,
		Bets:       *doc.Bets,
		Settings:   *doc.Settings,
		ExportedAt: doc.ExportedAt,
	}, nil
}
