package ports

import "context"

// RoomLookup answers whether a room exists. It is the only room state the
// access layer depends on.
type RoomLookup interface {
	Exists(ctx context.Context, roomID string) (bool, error)
}
