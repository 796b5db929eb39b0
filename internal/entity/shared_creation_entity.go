package entity

import (
	"time"

	"github.com/google/uuid"
)

// RemoteReference points at the remote record a SharedCreation was last pushed to.
type RemoteReference struct {
	RecordID  string
	ChangeTag string
}

type SharedCreation struct {
	Id           uuid.UUID
	Name         string
	Prompt       string
	Description  *string
	IsPublic     bool
	LastModified time.Time
	RemoteRef    *RemoteReference
	DataSources  []*DataSource
}

// IsDraft reports whether the creation has never been pushed successfully.
func (s *SharedCreation) IsDraft() bool {
	return s.RemoteRef == nil
}

// DataSourceBytes returns the attachment payloads in list order.
func (s *SharedCreation) DataSourceBytes() [][]byte {
	out := make([][]byte, 0, len(s.DataSources))
	for _, ds := range s.DataSources {
		out = append(out, ds.Data)
	}
	return out
}

type DataSource struct {
	Id               uuid.UUID
	SharedCreationId uuid.UUID
	Position         int
	Data             []byte
}
