// Package ledger persists per-file job outcomes in SQLite so batches can be
// resumed and inspected later, and guards the state directory with a
// process-wide lock so two batches never write the same outputs at once.
package ledger
