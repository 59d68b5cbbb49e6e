package events

import "time"

// Status de uma tentativa de sincronização
const (
	SyncOK          = "SYNCED"
	SyncFailed      = "FAILED"
	SyncNotMigrated = "NOT_MIGRATED"
)

// SyncNotice é o aviso passivo publicado no Redis após cada sync.
// Entregue ao cliente via websocket; nunca bloqueia o fluxo principal.
type SyncNotice struct {
	UserID         string    `json:"userId"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	BetsInserted   int       `json:"betsInserted"`
	BankrollPushed bool      `json:"bankrollPushed"`
	Reason         string    `json:"reason,omitempty"`
	Ts             time.Time `json:"ts"`
}
