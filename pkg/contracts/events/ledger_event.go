package events

// Tipos de evento publicados no tópico "ledger_events"
const (
	BetCreated      = "bet_created"
	BetUpdated      = "bet_updated"
	BetDeleted      = "bet_deleted"
	SettingsUpdated = "settings_updated"
	BackupImported  = "backup_imported"
)

// LedgerEvent é emitido pelo ledger-service após cada mutação persistida.
// O sync-worker usa o email para resolver a identidade no banco remoto.
type LedgerEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	BetID    string `json:"bet_id,omitempty"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
