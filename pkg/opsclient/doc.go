// Package opsclient is the entry point for creating opsapi clients. It
// validates and normalizes configuration and wires the transport,
// authentication, caching, and retry/polling engine together.
package opsclient
