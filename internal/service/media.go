package service

import (
	"context"
	"errors"
	"log/slog"

	"vacancyhub/internal/i18n"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/storage"
)

// outboundPost attaches the stored image of a rendered post. A missing object
// degrades to a text-only post; other store errors fall back to the public URL.
func outboundPost(ctx context.Context, store storage.Store, p i18n.Post) notifications.Post {
	out := notifications.Post{Text: p.Text}
	if p.ImageKey == "" || store == nil {
		return out
	}

	data, err := store.Get(ctx, p.ImageKey)
	switch {
	case err == nil:
		out.ImageData = data
	case errors.Is(err, storage.ErrNotFound):
		middleware.Logger.WarnContext(ctx, "posting image missing", slog.String("key", p.ImageKey))
	default:
		middleware.Logger.WarnContext(ctx, "posting image read failed",
			slog.String("key", p.ImageKey), slog.String("error", err.Error()))
		out.ImageURL = store.URL(p.ImageKey)
	}
	return out
}
