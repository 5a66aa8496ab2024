package sandbox

import (
	"github.com/GriffinCanCode/near-sandbox-go/internal/artifact"
	"github.com/GriffinCanCode/near-sandbox-go/internal/nodeconfig"
	"github.com/GriffinCanCode/near-sandbox-go/internal/probe"
	"github.com/GriffinCanCode/near-sandbox-go/internal/supervisor"
)

// Error kinds returned by Start and friends. Match with errors.Is; returned
// errors wrap these with version, path or timeout context.
var (
	// Binary acquisition.
	ErrUnsupportedPlatform = artifact.ErrUnsupportedPlatform
	ErrDownload            = artifact.ErrDownload
	ErrExtract             = artifact.ErrExtract
	ErrLockTimeout         = artifact.ErrLockTimeout

	// Configuration synthesis.
	ErrConfig           = nodeconfig.ErrConfig
	ErrDuplicateAccount = nodeconfig.ErrDuplicateAccount

	// Process startup and readiness.
	ErrSpawn            = supervisor.ErrSpawn
	ErrReadinessTimeout = probe.ErrTimeout
	ErrProcessExited    = probe.ErrProcessExited
)
