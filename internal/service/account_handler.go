package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-trash-bin/internal/model"
)

// AccountHook runs after a user's assets are purged and before the account
// itself is removed or anonymized. Hooks take care of bookkeeping that must
// survive the account, such as folding usage counters into the shared
// no-owner bucket.
type AccountHook func(ctx context.Context, user model.User) error

// AccountHandler purges a user account: every owned asset (children before
// parents), the upstream deletion through the proxy, registered hooks, and
// finally the account row itself.
type AccountHandler struct {
	users    UserStore
	assets   AssetStore
	projects *ProjectHandler
	proxy    DeletionProxy
	hooks    []AccountHook
}

func NewAccountHandler(users UserStore, assets AssetStore, projects *ProjectHandler, proxy DeletionProxy, hooks ...AccountHook) *AccountHandler {
	return &AccountHandler{
		users:    users,
		assets:   assets,
		projects: projects,
		proxy:    proxy,
		hooks:    hooks,
	}
}

func (h *AccountHandler) Kind() model.TrashKind {
	return model.KindAccount
}

func (h *AccountHandler) Purge(ctx context.Context, entry model.TrashEntry) error {
	user, err := h.users.FindByID(ctx, entry.SubjectID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	assets, err := h.assets.ListByOwnerChildrenFirst(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, asset := range assets {
		if err := h.projects.purgeAsset(ctx, asset); err != nil {
			return fmt.Errorf("purge asset %s: %w", asset.UID, err)
		}
	}

	if h.proxy != nil {
		if err := h.proxy.DeleteUser(ctx, user.Username); err != nil {
			return fmt.Errorf("proxy delete user %s: %w", user.Username, err)
		}
	}

	for _, hook := range h.hooks {
		if err := hook(ctx, user); err != nil {
			return err
		}
	}

	if entry.RetainPlaceholder {
		slog.Info("retaining placeholder account", "user_id", user.ID, "username", user.Username)
		return h.users.Anonymize(ctx, user.ID)
	}
	return h.users.Delete(ctx, user.ID)
}
