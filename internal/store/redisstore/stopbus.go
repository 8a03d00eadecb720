package redisstore

import (
	"context"

	"github.com/rs/zerolog"
)

const stopChannel = "mentor-chat:turn-stop"

// PublishStop asks every process subscribed with SubscribeStop to cancel chatID's turn.
func (s *Store) PublishStop(ctx context.Context, chatID string) error {
	return s.rdb.Publish(ctx, stopChannel, chatID).Err()
}

// SubscribeStop calls onStop for each published stop request until ctx ends.
func (s *Store) SubscribeStop(ctx context.Context, log zerolog.Logger, onStop func(chatID string)) error {
	sub := s.rdb.Subscribe(ctx, stopChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if onStop != nil {
					log.Debug().Str("chat_id", msg.Payload).Msg("stop request received")
					onStop(msg.Payload)
				}
			}
		}
	}()
	return nil
}
