package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-bookstore/internal/orders"
	"github.com/ariefcatur/go-bookstore/internal/redisx"
)

type Store interface {
	Create(ctx context.Context, in CreateInput) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	ListWithOrderSummary(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id int64) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error)
}

type OrderLister interface {
	ListForUser(ctx context.Context, userID int64) ([]orders.Order, error)
}

// ProfileCache stores profiles under a generation stamp. An entry stored with
// a stamp older than the latest DeleteProfile is never served.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID int64, dst any) (bool, redisx.ProfileStamp, error)
	SetProfile(ctx context.Context, userID int64, stamp redisx.ProfileStamp, v any) error
	DeleteProfile(ctx context.Context, userID int64) error
}

// Directory combines the user store with order history. Cache failures are
// logged and never fail a read. A delete whose invalidation fails is
// reported as an error.
type Directory struct {
	Users  Store
	Orders OrderLister
	Cache  ProfileCache
	Log    *zap.Logger
}

func (d *Directory) Create(ctx context.Context, in CreateInput) (*User, error) {
	return d.Users.Create(ctx, in)
}

// GetWithOrders returns the user with every order and summary stats.
func (d *Directory) GetWithOrders(ctx context.Context, id int64) (*Profile, error) {
	var (
		stamp     redisx.ProfileStamp
		cacheable bool
	)
	if d.Cache != nil {
		var p Profile
		ok, st, err := d.Cache.GetProfile(ctx, id, &p)
		switch {
		case err != nil:
			d.Log.Warn("profile cache read", zap.Int64("user_id", id), zap.Error(err))
		case ok:
			return &p, nil
		default:
			stamp, cacheable = st, true
		}
	}

	u, err := d.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	list, err := d.Orders.ListForUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *u, Orders: list, Stats: orders.ComputeStats(list)}

	if cacheable {
		if err := d.Cache.SetProfile(ctx, id, stamp, p); err != nil {
			d.Log.Warn("profile cache write", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (d *Directory) ListWithOrderSummary(ctx context.Context) ([]Summary, error) {
	return d.Users.ListWithOrderSummary(ctx)
}

func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.Users.Delete(ctx, id); err != nil {
		return err
	}
	if d.Cache == nil {
		return nil
	}
	if err := d.Cache.DeleteProfile(ctx, id); err != nil {
		d.Log.Error("profile cache invalidate after delete", zap.Int64("user_id", id), zap.Error(err))
		return fmt.Errorf("user %d deleted but cached profile not invalidated: %w", id, err)
	}
	return nil
}

func (d *Directory) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error) {
	u, err := d.Users.SetAdmin(ctx, id, isAdmin)
	if err != nil {
		return nil, err
	}
	d.Invalidate(ctx, id)
	return u, nil
}

// Invalidate drops the cached profile of a user.
func (d *Directory) Invalidate(ctx context.Context, id int64) {
	if d.Cache == nil {
		return
	}
	if err := d.Cache.DeleteProfile(ctx, id); err != nil {
		d.Log.Warn("profile cache invalidate", zap.Int64("user_id", id), zap.Error(err))
	}
}
