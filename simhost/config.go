// Package simhost is a minimal cache/MSHR model that plays the Host role
// spec.md deliberately leaves unspecified ("the host simulator itself...
// we never specify its internals"). It exists only so the CLI has
// something synchronous and deterministic to drive an engine against
// when replaying an address trace; it makes no claim to model a real
// cache's timing or correctness.
package simhost

// Config sizes a Cache's tag array and its MSHR pressure model.
type Config struct {
	NumSets      int
	NumWays      int
	MSHRCapacity int
}

// DefaultConfig returns a modestly sized last-level-cache-like shape: 64
// sets, 8-way, a 16-entry MSHR.
func DefaultConfig() Config {
	return Config{NumSets: 64, NumWays: 8, MSHRCapacity: 16}
}
