package database

import "context"

// Directory binds a Store to one platform for person and stream lookups.
type Directory struct {
	Store    Store
	Platform string
}

// NewDirectory returns a Directory for platform.
func NewDirectory(store Store, platform string) *Directory {
	return &Directory{Store: store, Platform: platform}
}

// PersonByUserID returns the person with the platform user id.
func (d *Directory) PersonByUserID(ctx context.Context, userID string) (*Person, error) {
	return d.Store.GetPersonByUserID(ctx, d.Platform, userID)
}

// PersonByName returns the person whose display name is name.
func (d *Directory) PersonByName(ctx context.Context, name string) (*Person, error) {
	return d.Store.GetPersonByName(ctx, name)
}

// PersonByNickname returns the person with the platform handle.
func (d *Directory) PersonByNickname(ctx context.Context, nickname string) (*Person, error) {
	return d.Store.GetPersonByNickname(ctx, d.Platform, nickname)
}

// StreamByGroupID returns the stream of the group chat groupID.
func (d *Directory) StreamByGroupID(ctx context.Context, groupID string) (*Stream, error) {
	return d.Store.GetStreamByGroupID(ctx, d.Platform, groupID)
}

// StreamByUserID returns the private stream with userID.
func (d *Directory) StreamByUserID(ctx context.Context, userID string) (*Stream, error) {
	return d.Store.GetStreamByUserID(ctx, d.Platform, userID)
}
