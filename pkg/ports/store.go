package ports

import (
	"context"

	"github.com/aretw0/outline/pkg/domain"
)

// ContentStore defines the interface for persisting the authority's content nodes.
type ContentStore interface {
	// Save persists a node, replacing any previous version.
	Save(ctx context.Context, node domain.StoredNode) error

	// Get retrieves a node.
	// Returns domain.ErrNodeNotFound if the node does not exist.
	Get(ctx context.Context, id string) (domain.StoredNode, error)

	// Delete removes a node. Deleting a missing node is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored nodes.
	List(ctx context.Context) ([]string, error)
}
