// Package store provides SQLite-backed durable storage for the simulated
// chain.
//
// The store is an append-only log of:
//   - Snapshots: encoded world state plus its state root
//   - Transactions: receipts of successful and failed calls
//   - Logs: events emitted by successful transactions
//   - Deployments: contract addresses produced by a deployment run
//
// # Ordering
//
// All ordering uses the seq column (insertion order), never timestamps, so
// listings are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store knows nothing about chain types; records carry pre-formatted
// values (hex addresses, decimal integers) so they read well as JSON.
package store
