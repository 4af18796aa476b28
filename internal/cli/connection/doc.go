// Package connection is the textnonce-cli client for the server's HTTP API.
//
// It unwraps the {code, message, data} response envelope, turning error
// envelopes into *APIError.
package connection
