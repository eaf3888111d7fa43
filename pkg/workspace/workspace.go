// Package workspace persists workflows between editor sessions.
//
// A [Workspace] holds the imported tables and the current graph. Two
// backends implement [Store]:
//
//   - [FileStore]: one JSON file per workspace, for the CLI.
//   - [MongoStore]: one document per workspace, for the HTTP server.
//
// Usage:
//
//	store, err := workspace.NewFileStore("")  // ~/.config/vesselflow/workspaces
//	ws := workspace.New("plant", input)
//	ws.Graph = session.Snapshot()
//	err = store.Save(ctx, ws)
//
//	ws, err = store.Get(ctx, id)
//	if errors.Is(err, errors.ErrCodeWorkspaceNotFound) {
//	    // unknown id
//	}
package workspace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// Workspace is one saved workflow.
type Workspace struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Input     workflow.Input `json:"input" bson:"input"`
	Graph     graph.Snapshot `json:"graph" bson:"graph"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at"`
}

// Summary is the list view of a workspace.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the interface for workspace storage backends.
type Store interface {
	// Get returns the workspace or a WORKSPACE_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Workspace, error)

	// Save inserts or replaces ws and stamps UpdatedAt.
	Save(ctx context.Context, ws *Workspace) error

	// Delete removes a workspace. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns every workspace, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	Close() error
}

// New returns a workspace with a fresh id.
func New(name string, in workflow.Input) *Workspace {
	now := time.Now().UTC()
	return &Workspace{
		ID:        uuid.NewString(),
		Name:      name,
		Input:     in,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateID rejects anything but a UUID, so ids are safe as file names.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid workspace id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeWorkspaceNotFound, "workspace %s not found", id)
}

func touch(ws *Workspace) {
	ws.UpdatedAt = time.Now().UTC()
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = ws.UpdatedAt
	}
}
