// Package auth implements the optional shared API key check applied to
// mutating API requests. Reads stay public; when auth is unconfigured the
// middleware is a pass-through.
package auth
