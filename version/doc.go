// Package version exposes build metadata for the /info endpoint and the
// telemetry resource.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/streamgroup/version.Version=1.2.0" ./cmd/groupd
//
// Values left unset fall back to the VCS stamps recorded by the Go toolchain.
package version
