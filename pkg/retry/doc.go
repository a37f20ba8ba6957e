// Package retry provides the bounded backoff used when a remote program is
// not yet ready to run.
//
// A freshly loaded image may not accept the run request at once. The caller
// polls with a fixed or growing delay and gives up after a bounded number of
// attempts:
//
//  1. Initial delay: 20ms
//  2. Multiplier 1 keeps the delay constant; values above 1 grow it
//  3. Delay never exceeds Max
//  4. After Attempts failed tries the last error is returned
//
// # Jitter
//
// Jitter is off by default. When set:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
package retry
