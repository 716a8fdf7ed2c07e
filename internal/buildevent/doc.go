// Package buildevent defines the build lifecycle events consumed by the
// listener and the ordered callback interface that receives them.
//
// Events arrive either from a host calling Handler methods directly or from a
// recorded stream decoded with NewDecoder (NDJSON or MessagePack envelopes).
// Run feeds a Source to a Handler one event at a time, never concurrently, so
// handlers can keep unsynchronized per-build state.
package buildevent
