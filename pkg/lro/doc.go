// Package lro drives AIP-151 long-running operations to completion: given a
// future for the initiating call, it repeatedly polls the operation through
// the retry engine until the server reports done, the polling budget runs
// out, or the caller cancels.
//
// Each individual poll RPC runs through retry.Start with its own cloned
// retry and backoff policies, so a transient poll failure never aborts the
// overall operation by itself; only exhaustion of the per-poll retry policy
// or of the outer PollingPolicy terminates the loop early. Poll and cancel
// RPCs are always treated as idempotent.
package lro
