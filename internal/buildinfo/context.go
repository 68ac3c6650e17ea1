// Package buildinfo contains build-time metadata kept separate from user configuration
package buildinfo

import (
	"runtime"

	"github.com/google/uuid"
)

const unknown = "unknown"

// BuildInfo provides access to build-time metadata.
type BuildInfo interface {
	GetVersion() string
	GetBuildDate() string
	GetInstanceID() string
}

// Context contains build-time metadata injected at startup.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string

	// InstanceID identifies this process in telemetry and MQTT client ids
	InstanceID string
}

// New returns a Context with a fresh instance id.
func New(version, buildDate string) *Context {
	return &Context{
		Version:    version,
		BuildDate:  buildDate,
		InstanceID: uuid.NewString(),
	}
}

// GetVersion implements BuildInfo.GetVersion
func (c *Context) GetVersion() string {
	if c == nil || c.Version == "" {
		return unknown
	}
	return c.Version
}

// GetBuildDate implements BuildInfo.GetBuildDate
func (c *Context) GetBuildDate() string {
	if c == nil || c.BuildDate == "" {
		return unknown
	}
	return c.BuildDate
}

// GetInstanceID implements BuildInfo.GetInstanceID
func (c *Context) GetInstanceID() string {
	if c == nil || c.InstanceID == "" {
		return unknown
	}
	return c.InstanceID
}

// Map returns build metadata for the health endpoint.
func (c *Context) Map() map[string]string {
	return map[string]string{
		"version":    c.GetVersion(),
		"build_date": c.GetBuildDate(),
		"go_version": runtime.Version(),
	}
}

var _ BuildInfo = (*Context)(nil)
