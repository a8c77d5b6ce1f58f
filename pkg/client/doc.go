// Package client implements the upsd protocol session: a stateful
// conversation over one line connection, from plaintext connect through
// optional TLS upgrade and authentication to the typed query and command
// operations.
//
// A Session is not safe for concurrent use. The protocol allows one
// outstanding command per connection; callers that need parallelism open
// multiple sessions.
package client
