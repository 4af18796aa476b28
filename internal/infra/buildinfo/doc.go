// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/textnonce-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When the commit is not injected it falls back to the VCS revision the Go
// toolchain embeds in the binary.
package buildinfo
