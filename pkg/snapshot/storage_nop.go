package snapshot

import (
	"context"

	"github.com/rotisserie/eris"
)

// NopStorage discards every snapshot. It's used when persistence is not needed (e.g. development,
// testing).
type NopStorage struct{}

var _ Storage = (*NopStorage)(nil)

// NewNopStorage creates a new no-op snapshot storage.
func NewNopStorage() *NopStorage {
	return &NopStorage{}
}

func (n *NopStorage) Store(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (n *NopStorage) Load(_ context.Context, _ string) ([]byte, error) {
	return nil, eris.Wrap(ErrSnapshotNotFound, "no snapshots available (using no-op storage)")
}

func (n *NopStorage) Close() error {
	return nil
}
