package testsupport

import (
	"testing"

	"vidsub/internal/config"
	"vidsub/internal/ledger"
)

// MustOpenLedger opens the history store for cfg and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
