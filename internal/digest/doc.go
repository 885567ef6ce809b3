// Package digest computes content digests of store snapshots.
//
// A digest is SHA-256 over the RFC 8785 canonical JSON form of the
// snapshot content, prefixed by a versioned domain string. Two stores with
// the same chats, categories, messages and settings have the same digest
// regardless of schema version or map iteration order. Text is hashed as
// stored, so any change to it, including a change of Unicode
// normalization form, changes the digest.
package digest
