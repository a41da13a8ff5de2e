// Package simpleasset provides a reusable library for content-addressed
// asset resolution and lifecycle management with pluggable metadata
// repositories and blob storage backends.
//
// Given a desired set of document or image slots for an owning entity and the
// entity's current slot-to-asset mapping, the Service decides which stored
// assets to reuse, which inline payloads to upload as new assets, and which
// now-unreferenced assets to retire. Identical content is deduplicated by
// SHA-256 checksum within a configurable scope: per owner, or one shared
// global pool. Implementations of repositories (memory, Postgres) and blob
// stores (memory, filesystem, S3) are provided under subpackages.
//
// Transactions
//
// The library never commits or rolls back a transaction. Callers that need
// resolution to be atomic with their own writes construct a repository over
// their transaction (the Postgres repository accepts a pgx.Tx) and bind it
// with Service.Session. Remote blob deletion is the one side effect that
// cannot roll back; it is issued best-effort after the metadata tombstone and
// its failures are reported, not escalated.
//
// Concurrency
//
// The repository's uniqueness constraint on (scope, checksum) among active
// assets is the only synchronization primitive. Concurrent uploads of
// identical content converge on a single active asset per checksum. Callers
// must serialize resolutions per owner; concurrent resolutions for distinct
// owners are safe.
package simpleasset
