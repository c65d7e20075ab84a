// Package chain implements a deterministic, in-process simulated blockchain
// for contract tests.
//
// The chain keeps the whole world state (accounts, nonces, contract storage,
// block number and timestamp) in memory. Contract behavior is supplied as
// Code values registered by kind; contracts keep all of their state in
// Storage slots, so any contract can be snapshotted and reverted without
// special support.
//
// # Transactions
//
// Transact and Deploy run against a working copy of the world. When the
// call completes the copy becomes the new state and a block is mined. When
// any guard fails, at any call depth, the copy is thrown away and the caller
// receives a *TxFailedError (the transaction-failure signal):
//
//	_, err := c.Transact(ctx, chain.Alice.Address, augur, "trustedTransfer", augur, augur, augur, 0)
//	if chain.IsTxFailed(err) {
//	    // reverted, state untouched
//	}
//
// Call runs a method against a throwaway copy and returns its outputs, like
// eth_call.
//
// # Snapshots
//
// CreateSnapshot encodes the world and returns an immutable *Snapshot.
// ResetToSnapshot restores it. Snapshots carry a keccak256 state root over
// the canonical encoding, so two resets to the same snapshot always produce
// the same root.
package chain
