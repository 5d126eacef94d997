// Package services defines shared utilities consumed by the pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, job inputs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so every stage reports
//     failures the same way and the batch report can classify them.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
