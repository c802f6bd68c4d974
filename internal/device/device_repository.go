package device

import (
	"context"
	"sort"
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/store"
)

// DeviceRepository stores device links.
type DeviceRepository interface {
	SaveLink(ctx context.Context, link *Link) error
	GetLink(ctx context.Context, uid, provider string) (*Link, error)
	GetLinksByUser(ctx context.Context, uid string) ([]Link, error)
	// GetSyncableLinks lists every link with sync enabled.
	GetSyncableLinks(ctx context.Context) ([]Link, error)
	DeleteLink(ctx context.Context, uid, provider string) error
	UpdateTokens(ctx context.Context, uid, provider string, tok Token) error
	UpdateSyncTime(ctx context.Context, uid, provider string, at time.Time) error
}

type deviceRepository struct {
	store store.Store
}

func NewDeviceRepository(s store.Store) DeviceRepository {
	return &deviceRepository{store: s}
}

func (r *deviceRepository) SaveLink(ctx context.Context, link *Link) error {
	return r.store.Set(ctx, store.DeviceLinks, linkKey(link.UserID, link.Provider), link)
}

func (r *deviceRepository) GetLink(ctx context.Context, uid, provider string) (*Link, error) {
	var l Link
	ok, err := r.store.Get(ctx, store.DeviceLinks, linkKey(uid, provider), &l)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *deviceRepository) GetLinksByUser(ctx context.Context, uid string) ([]Link, error) {
	return r.query(ctx, store.Eq("uid", uid))
}

func (r *deviceRepository) GetSyncableLinks(ctx context.Context) ([]Link, error) {
	return r.query(ctx, store.Eq("sync_enabled", true))
}

func (r *deviceRepository) DeleteLink(ctx context.Context, uid, provider string) error {
	return r.store.Delete(ctx, store.DeviceLinks, linkKey(uid, provider))
}

func (r *deviceRepository) UpdateTokens(ctx context.Context, uid, provider string, tok Token) error {
	return r.store.Merge(ctx, store.DeviceLinks, linkKey(uid, provider), map[string]interface{}{
		"access_token":  tok.AccessToken,
		"refresh_token": tok.RefreshToken,
		"expires_at":    tok.ExpiresAt,
	})
}

func (r *deviceRepository) UpdateSyncTime(ctx context.Context, uid, provider string, at time.Time) error {
	return r.store.Merge(ctx, store.DeviceLinks, linkKey(uid, provider), map[string]interface{}{
		"last_sync": at.UTC(),
	})
}

func (r *deviceRepository) query(ctx context.Context, filters ...store.Filter) ([]Link, error) {
	docs, err := r.store.Query(ctx, store.DeviceLinks, filters...)
	if err != nil {
		return nil, err
	}
	links := make([]Link, 0, len(docs))
	for _, d := range docs {
		var l Link
		if err := d.Decode(&l); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].UserID != links[j].UserID {
			return links[i].UserID < links[j].UserID
		}
		return links[i].Provider < links[j].Provider
	})
	return links, nil
}
