package schemafree

import (
	"go.uber.org/zap"

	"github.com/memwalk/schemafree/errors"
)

// Config carries the external collaborators the free engine consumes: the
// linear memory holding the structure, the releaser that takes blocks
// back, and an optional diagnostic sink.
type Config struct {
	// Memory is the address space the structure lives in.
	Memory Memory
	// Releaser receives every owned block the walk discovers.
	Releaser Releaser
	// Log receives a debug trace line per released block. Nil disables
	// tracing without affecting control flow.
	Log *zap.Logger
}

var nopLogger = zap.NewNop()

func (c *Config) logger() *zap.Logger {
	if c.Log == nil {
		return nopLogger
	}
	return c.Log
}

func (c *Config) validate() error {
	if c.Memory == nil {
		return errors.InvalidInput(errors.PhaseFree, "config has no memory")
	}
	if c.Releaser == nil {
		return errors.InvalidInput(errors.PhaseFree, "config has no releaser")
	}
	return nil
}
