// Package store provides durable persistence for the last-known-good WiFi
// credential pair.
//
// Two implementations exist: FileStore writes a small YAML document with
// atomic temp-file-and-rename semantics, and MemoryStore backs tests and
// simulator runs. Both satisfy the Store interface consumed by the
// connection manager and the factory-reset watcher.
package store
