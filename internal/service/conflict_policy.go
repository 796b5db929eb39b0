package service

import (
	"strings"

	"prompt-manager-core/pkg/remote"
)

// ConflictPolicy decides what a push does when the server copy changed since
// it was last read.
type ConflictPolicy interface {
	Name() string
	// Resolve returns the record to write instead, or nil to surface the conflict.
	Resolve(local *remote.Record, conflict *remote.ConflictError) *remote.Record
}

// SurfaceConflicts hands every conflict back to the caller.
type SurfaceConflicts struct{}

func (SurfaceConflicts) Name() string { return "surface" }

func (SurfaceConflicts) Resolve(*remote.Record, *remote.ConflictError) *remote.Record {
	return nil
}

// LastWriterWins rewrites the local content on top of the server version.
type LastWriterWins struct{}

func (LastWriterWins) Name() string { return "last-writer-wins" }

func (LastWriterWins) Resolve(local *remote.Record, conflict *remote.ConflictError) *remote.Record {
	if conflict.Server == nil {
		return nil
	}
	retry := local.Clone()
	retry.ChangeTag = conflict.Server.ChangeTag
	return retry
}

// ConflictPolicyByName maps a configuration value to a policy. Unknown names
// fall back to SurfaceConflicts.
func ConflictPolicyByName(name string) ConflictPolicy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "last-writer-wins", "lww":
		return LastWriterWins{}
	default:
		return SurfaceConflicts{}
	}
}
