// Package resilience provides failure-handling primitives for calls to
// unreliable external dependencies such as RPC nodes and IPFS gateways.
//
// It contains three cooperating pieces:
//
//   - Retrier: wraps an operation with classified retry and exponential
//     backoff. The error classifier decides retry vs. abort; terminal
//     failures are always reported to the Recorder.
//
//   - BreakerRegistry: a per-component sliding-window circuit breaker.
//     Callers check IsOpen (or Allow) before issuing a call and report
//     failures via RecordFailure. The breaker self-heals once the window
//     passes with no further failures.
//
//   - Recorder: process-wide counters of (component, error_type)
//     occurrences, consumed by statistics endpoints and alert rules.
//
// All three are safe for concurrent use and accept an injected clock so
// time-windowed behavior can be tested without real sleeping.
package resilience
