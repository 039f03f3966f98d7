// Package opsapi provides types, interfaces, and helpers for working with
// AIP-151 style "operations" services: APIs whose mutating calls return a
// long-running operation that is polled until it reports done.
//
// # Overview
//
// The opsapi package defines the domain types (Operation, OperationList) and
// the interfaces for the clients that drive them (OperationsClient, Client).
// A concrete implementation is provided by the opsclient package, which wires
// configuration, transport, authentication, caching, and the retry/polling
// engine. Most consumers should import opsclient to construct a client and
// then interact with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/opsapi-client/pkg/opsapi"
//	  "github.com/fivetwenty-io/opsapi-client/pkg/opsclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := opsclient.New(ctx, &opsapi.Config{APIEndpoint: "https://api.example.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Block until the operation reaches a terminal state.
//	  op, err := cli.Operations().Wait(ctx, "operations/abc-123")
//	  if err != nil { log.Fatal(err) }
//	  _ = op
//	}
//
// # Retry and polling
//
// Transient failures are absorbed by the retry engine in pkg/retry; the
// operation life-cycle (submit, poll, done) is driven by pkg/lro. Both are
// tunable through Config or, per call, through retry.Options.
package opsapi
