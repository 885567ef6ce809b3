// Package model defines the record types persisted by the store.
//
// The records are passive data holders:
//   - Chat: a named text buffer; the store keeps a floor of seeded chats
//   - Category: a named, ordered collection of owned messages
//   - Message: a text entry owned by exactly one category
//   - Settings: the singleton voice/speech preferences record
//
// Snapshot bundles all of them for export and golden comparison.
package model
