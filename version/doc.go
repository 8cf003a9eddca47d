// Package version carries the powerflow build identity.
//
// Values are stamped at build time via -ldflags and completed from the
// module's embedded VCS information:
//
//	go build -ldflags "-X github.com/kbukum/powerflow/version.Version=1.2.0" ./cmd/powerflow
package version
