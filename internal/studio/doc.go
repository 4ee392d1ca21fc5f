// Package studio is the client for the remote, collaboratively-synced
// audio-production document service. It covers the three things a session
// needs: authorized access (a token source consulted on every request),
// a synced document handle (start/stop, atomic modify transactions,
// point-in-time entity queries, a connectivity signal), and a bounded wait
// for the initial sync handshake.
package studio
