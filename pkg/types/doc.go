// Package types defines the wire types shared by huntwatch-server and the
// huntctl client: producer report payloads, the live view representations
// returned by the API, and the stats/feed envelopes.
package types
