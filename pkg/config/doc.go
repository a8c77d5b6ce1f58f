// Package config holds the client configuration model: connection
// parameters, authentication credentials, TLS policy, and the
// "[ups][@host[:port]]" target syntax used on the command line.
package config
