// Package httpserver serves the TextNonce HTTP API.
//
// NewRouter assembles the route groups and their middleware chains around
// the handler package; Server owns the listener, optional TLS and graceful
// shutdown.
package httpserver
