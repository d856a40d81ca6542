// Package asset models the host asset database that bake settings point
// into. Shaders and materials are addressed by GUID handles (ID) that behave
// as weak references: the database owns asset lifetime and a handle silently
// becomes dangling once the asset is deleted.
//
// Database, UndoRecorder and Selection are the host integration points.
// MemoryDatabase is a self-contained implementation for tests, examples and
// headless tooling.
package asset
