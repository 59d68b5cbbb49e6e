package topics

const (
	// Eventos de alteração do ledger (apostas, banca, backup)
	LedgerEvents = "ledger_events"

	// DLQ para eventos que o sync-worker não conseguiu decodificar ou sincronizar
	LedgerEventsDLQ = "ledger_events_dlq"

	// Canal Redis Pub/Sub com avisos de sincronização para o websocket
	SyncNotices = "ledger_sync_notices"
)
