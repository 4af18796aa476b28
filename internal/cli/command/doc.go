// Package command defines the textnonce-cli commands on urfave/cli/v2.
//
//   - generate: issue nonces in-process
//   - fetch: issue nonces from a running server
//   - system: server health and status
//   - config: the local CLI profile
//
// Results go through the output package so every command honours
// --output table|json|yaml.
package command
