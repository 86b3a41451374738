package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/plant-manager/internal/catalogserver"
	"github.com/abelzeko/plant-manager/internal/entities"
	"github.com/abelzeko/plant-manager/internal/integration"
	"github.com/abelzeko/plant-manager/internal/repository"
	"github.com/abelzeko/plant-manager/internal/usecases"
)

const ownerChat = int64(1001)

var t0 = time.Date(2024, time.July, 1, 18, 30, 0, 0, time.UTC)

// newTestBot wires a bot without a Telegram connection; only reply building is exercised
func newTestBot(t *testing.T) (*TelegramBot, *repository.MemoryKVStorage) {
	t.Helper()
	seed, err := catalogserver.LoadSeed()
	if err != nil {
		t.Fatalf("Failed to load seed: %v", err)
	}
	srv := httptest.NewServer(catalogserver.New(seed))
	t.Cleanup(srv.Close)

	now := func() time.Time { return t0 }
	storage := repository.NewMemoryKVStorage()
	uc := usecases.NewPlantUseCase(
		repository.NewPlantStore(storage, repository.WithClock(now)),
		repository.NewUserStore(storage),
		integration.NewCatalogClient(srv.URL),
		usecases.WithClock(now),
		usecases.WithLocation(time.UTC),
	)
	return &TelegramBot{useCase: uc, ownerChatID: ownerChat}, storage
}

func TestStartAndName(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	if got := bot.handleCommand(ctx, "start", ""); !strings.Contains(got, "/name") {
		t.Errorf("Expected /start to ask for a name, got %q", got)
	}
	if got := bot.handleCommand(ctx, "name", ""); !strings.Contains(got, "Example") {
		t.Errorf("Expected usage hint for empty name, got %q", got)
	}
	if got := bot.handleCommand(ctx, "name", "Maria"); !strings.Contains(got, "All set, Maria") {
		t.Errorf("Unexpected /name reply %q", got)
	}
	if got := bot.handleCommand(ctx, "start", ""); !strings.HasPrefix(got, "Hello, Maria!") {
		t.Errorf("Expected personal greeting, got %q", got)
	}
}

func TestCatalogAndEnvironments(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	envs := bot.handleCommand(ctx, "environments", "")
	if !strings.Contains(envs, "Kitchen (kitchen)") || !strings.Contains(envs, "All (all)") {
		t.Errorf("Unexpected environments reply %q", envs)
	}

	catalog := bot.handleCommand(ctx, "catalog", "bathroom")
	if !strings.Contains(catalog, "Peperomia [3]") || strings.Contains(catalog, "Yucca") {
		t.Errorf("Unexpected bathroom catalog %q", catalog)
	}
	if got := bot.handleCommand(ctx, "catalog", "garage"); !strings.Contains(got, "No plants found") {
		t.Errorf("Expected empty-environment message, got %q", got)
	}
}

func TestAddListWaterRemove(t *testing.T) {
	bot, _ := newTestBot(t)
	ctx := context.Background()

	if got := bot.handleCommand(ctx, "myplants", ""); !strings.Contains(got, "not growing any plants") {
		t.Errorf("Expected empty-state reply, got %q", got)
	}

	added := bot.handleCommand(ctx, "add", "4")
	if !strings.Contains(added, "Imbe added") || !strings.Contains(added, "in 1 day") {
		t.Errorf("Unexpected /add reply %q", added)
	}
	if got := bot.handleCommand(ctx, "add", "4"); !strings.Contains(got, "already caring") {
		t.Errorf("Expected duplicate reply, got %q", got)
	}
	if got := bot.handleCommand(ctx, "add", "404"); !strings.Contains(got, "No catalog plant") {
		t.Errorf("Expected not-found reply, got %q", got)
	}

	bot.handleCommand(ctx, "add", "2")
	list := bot.handleCommand(ctx, "myplants", "")
	if strings.Index(list, "Imbe") > strings.Index(list, "Zamioculca") {
		t.Errorf("Expected Imbe (daily) before Zamioculca (weekly) in %q", list)
	}
	if !strings.Contains(list, "Water at 18:30") {
		t.Errorf("Expected watering hour in %q", list)
	}

	if got := bot.handleCommand(ctx, "watered", "4"); !strings.Contains(got, "Next watering for Imbe in 1 day") {
		t.Errorf("Unexpected /watered reply %q", got)
	}
	if got := bot.handleCommand(ctx, "remove", "4"); !strings.Contains(got, "removed") {
		t.Errorf("Unexpected /remove reply %q", got)
	}
	if got := bot.handleCommand(ctx, "remove", "4"); !strings.Contains(got, "not caring") {
		t.Errorf("Expected not-found reply, got %q", got)
	}
}

func TestCorruptDataOffersReset(t *testing.T) {
	bot, storage := newTestBot(t)
	ctx := context.Background()
	storage.Set(repository.PlantsKey, "garbage")

	if got := bot.handleCommand(ctx, "myplants", ""); !strings.Contains(got, "/reset") {
		t.Errorf("Expected reset hint, got %q", got)
	}
	if got := bot.handleCommand(ctx, "reset", ""); !strings.Contains(got, "deleted") {
		t.Errorf("Unexpected /reset reply %q", got)
	}
	if got := bot.handleCommand(ctx, "myplants", ""); !strings.Contains(got, "not growing any plants") {
		t.Errorf("Expected empty store after reset, got %q", got)
	}
}

func TestReplyRejectsOtherChats(t *testing.T) {
	bot, _ := newTestBot(t)
	got := bot.reply(context.Background(), 7, &tgbotapi.Message{Text: "/myplants"})
	if !strings.Contains(got, "personal") {
		t.Errorf("Expected refusal for a foreign chat, got %q", got)
	}
	if got := bot.handleCommand(context.Background(), "dance", ""); !strings.Contains(got, "Unknown command") {
		t.Errorf("Unexpected reply to unknown command %q", got)
	}
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewTelegramNotifier(sender, ownerChat)

	reminder := usecases.Reminder{
		Plant:   entities.Plant{ID: "6", Name: "Yucca", WaterTips: "Water once a week."},
		Message: "Time to water your Yucca! 💧",
	}
	if err := notifier.NotifyWatering(context.Background(), reminder); err != nil {
		t.Fatalf("NotifyWatering failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != ownerChat || !strings.Contains(msg.Text, "/watered 6") || !strings.Contains(msg.Text, "Water once a week.") {
		t.Errorf("Unexpected reminder message %+v", msg)
	}

	sender.err = errors.New("blocked by user")
	if err := notifier.NotifyWatering(context.Background(), reminder); err == nil {
		t.Error("Expected send failure to be reported")
	}
}
