package api

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/abelzeko/plant-manager/internal/usecases"
)

// Sender is the part of the Telegram client the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers watering reminders to the owner chat.
// Sends are throttled to stay below Telegram's per-chat limit.
type TelegramNotifier struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
}

// NewTelegramNotifier creates a notifier for chatID
func NewTelegramNotifier(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// NotifyWatering implements usecases.Notifier
func (n *TelegramNotifier) NotifyWatering(ctx context.Context, reminder usecases.Reminder) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("reminder for %s not sent: %w", reminder.Plant.ID, err)
	}

	text := reminder.Message
	if reminder.Plant.WaterTips != "" {
		text += "\n\n" + reminder.Plant.WaterTips
	}
	text += fmt.Sprintf("\n\nSend /watered %s once you're done.", reminder.Plant.ID)

	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("failed to send reminder for %s: %w", reminder.Plant.ID, err)
	}
	return nil
}
