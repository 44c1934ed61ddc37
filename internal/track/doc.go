// Package track is the domain layer between the transport shell and the
// generic ephemeral stores. It builds composite identities (lower-cased name
// plus verbatim scope ids), validates producer reports, classifies request
// provenance, and exposes the two concrete trackers: entity sightings and
// player presence.
package track
