// Package output renders textnonce-cli results as a table, JSON or YAML.
package output
