// Package models defines the core domain models for budgetbot.
//
// The central idea is pointer-based membership: a Budget carries no member
// list. Each User holds three budget pointers (active, personal, shared) and
// membership is derived by scanning users whose pointers equal a given
// budget. Joining, leaving and eviction are re-pointing operations on User
// rows; no row of any table is ever deleted, so history survives every
// membership change.
//
// All timestamps are Unix seconds in UTC. Amounts are positive floats; the
// sign of a ledger entry is carried by its TransactionType.
package models
