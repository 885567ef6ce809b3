// Package store provides SQLite-backed persistence for chats, categories,
// messages and the settings singleton.
//
// # Invariants
//
//   - At least MinChatCount chats exist after Open; chats at name-sorted
//     positions below MinChatCount cannot be deleted (silent no-op).
//   - Exactly one category carries the reserved uncategorized id, and it is
//     first in ListCategories for as long as it exists.
//   - A message belongs to exactly one category; deleting the category
//     deletes its messages in the same transaction.
//   - At most one settings row exists; it is created lazily with defaults.
//
// # Transactions
//
// Every mutation runs in one transaction under the store's writer lock, and
// the category view is swapped in before the lock is released. Store errors
// carry a code: NOT_FOUND for stale references, STORAGE_FAULT when the
// engine fails to apply a change (nothing is committed in that case).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// PRAGMA user_version holds the schema version; every Open bumps it by one.
package store
