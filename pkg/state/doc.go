// Package state persists bake settings snapshots.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - Mutate loads one snapshot, applies a mutator, validates and saves it,
//     honouring optimistic concurrency through Meta.ETag.
//   - MemoryStore keeps deep copies in memory; FileStore writes one document
//     per Ref under a root directory using a YAML, TOML or JSON codec picked
//     from the file extension.
//
// Deterministic keys:
//
//	Ref.Identifier() returns `<project>/<domain>` and is used both as the
//	memory key and as the relative file path (plus extension) on disk.
//
// The settings package never serializes by hand; it hands a Snapshot to a
// Store and lets the store own the format.
package state
