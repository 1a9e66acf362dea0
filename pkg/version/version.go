// Package version holds the build version, overridden at link time:
//
//	go build -ldflags "-X github.com/vanderheijden86/claimlens/pkg/version.Version=v0.3.0"
package version

// Version is the current cl release.
var Version = "dev"
