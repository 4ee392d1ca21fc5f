// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are nanoids over a lowercase base36 alphabet, 21 characters
// long, and safe for use in URLs, log fields, and sync-protocol frames.
package id
