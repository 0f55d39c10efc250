package cache

import (
	"context"
	"errors"

	apperrors "github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/kafka"
)

// InvalidationHandler flushes the cache whenever the index is rebuilt or an
// operator asks for it. Any message on the subscribed topics counts.
func (c *QueryCache) InvalidationHandler() kafka.MessageHandler {
	return func(ctx context.Context, topic string, key, value []byte) error {
		c.logger.Info("invalidation requested", "topic", topic)
		_, err := c.Invalidate(ctx)
		if errors.Is(err, apperrors.ErrCacheDisabled) {
			return nil
		}
		return err
	}
}
