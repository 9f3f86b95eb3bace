package filestore

import (
	"context"
	"time"

	"github.com/marmos91/dittostore/pkg/store/filetree"
)

// GetOrCreateGuidFile returns the stable identifier of (nodeID, path),
// creating it on first use.
func (s *Service) GetOrCreateGuidFile(ctx context.Context, nodeID, path string) (g *filetree.GuidFile, err error) {
	defer s.observe("GetOrCreateGuidFile", time.Now(), &err)

	if nodeID == "" {
		return nil, filetree.NewError(filetree.ErrInvalidArgument, path, "node id is required")
	}
	p, err := filetree.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	err = s.store.Update(ctx, func(tx filetree.Tx) error {
		g, err = tx.FindGuidFile(nodeID, p)
		if err == nil || !filetree.IsCode(err, filetree.ErrNotFound) {
			return err
		}
		g = filetree.NewGuidFile(nodeID, p)
		return tx.InsertGuidFile(g)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
