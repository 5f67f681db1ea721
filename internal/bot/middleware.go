package bot

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// RequestIDKey is the context key holding the per-update request id.
const RequestIDKey = "request_id"

// BanChecker reports whether a user is blocked from using the bot.
type BanChecker interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// AdminChecker reports whether a user may run admin commands.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// RequestID returns the id LoggingMiddleware attached to c, if any.
func RequestID(c tele.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}

// RecoveryMiddleware turns handler panics into errors for the OnError hook.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str(RequestIDKey, RequestID(c)).
						Msg("Recovered from panic in handler")
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(c)
		}
	}
}

// LoggingMiddleware tags each update with a request id and logs it.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			reqID := uuid.NewString()
			c.Set(RequestIDKey, reqID)

			logEvent := log.Debug().Str(RequestIDKey, reqID)
			if sender := c.Sender(); sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			if cb := c.Callback(); cb != nil {
				logEvent = logEvent.Str("callback", cb.Data)
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received update")

			return next(c)
		}
	}
}

// BanMiddleware silently drops updates from banned users. Successful
// payments always go through: the Stars are already taken at that point.
func BanMiddleware(bans BanChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			msg := c.Message()
			if msg != nil && msg.Payment != nil {
				banned, err := bans.IsBanned(context.Background(), sender.ID)
				if err == nil && banned {
					log.Warn().
						Int64("user_id", sender.ID).
						Str("payload", msg.Payment.Payload).
						Int("total", msg.Payment.Total).
						Msg("Crediting payment from banned user")
				}
				return next(c)
			}

			banned, err := bans.IsBanned(context.Background(), sender.ID)
			if err != nil {
				return fmt.Errorf("ban check: %w", err)
			}
			if banned {
				log.Debug().Int64("user_id", sender.ID).Msg("Ignoring update from banned user")
				return nil
			}
			return next(c)
		}
	}
}

// AdminMiddleware ignores admin commands from non-admins so the panel
// stays hidden.
func AdminMiddleware(admins AdminChecker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !admins.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return nil
			}

			return next(c)
		}
	}
}
