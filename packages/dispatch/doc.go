// Package dispatch sends one resolved request per environment concurrently
// and collects the response envelopes.
//
// Every target runs in its own goroutine and the set is joined as a unit. A
// target that cannot be reached yields a failure envelope (status 0) instead
// of failing the whole dispatch, so the other environments can still be
// compared.
//
// Repeat runs several rounds and aggregates latency percentiles per
// environment.
package dispatch
