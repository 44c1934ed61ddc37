// Package metrics exposes store statistics in the Prometheus text
// exposition format.
//
// The handler builds client_model metric families on each scrape from a
// fresh tracker stats snapshot, so no registry or background collection
// is involved.
package metrics
