// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/integration"
	"github.com/abelzeko/plant-manager/internal/repository"
	"github.com/abelzeko/plant-manager/internal/schedule"
	"github.com/abelzeko/plant-manager/internal/usecases"
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/name [your name] - Tell me how to call you\n" +
	"/environments - Show the catalog environments\n" +
	"/catalog [environment] - Show catalog plants\n" +
	"/add [id] - Start caring for a catalog plant\n" +
	"/myplants - Show your plants and the next watering\n" +
	"/watered [id] - Tell me you watered a plant\n" +
	"/remove [id] - Stop caring for a plant\n" +
	"/reset - Delete all your plants\n" +
	"/help - Show this help message"

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot         *tgbotapi.BotAPI
	useCase     *usecases.PlantUseCase
	ownerChatID int64
}

// NewTelegramBot creates a new Telegram bot handler that serves a single owner chat
func NewTelegramBot(botToken string, ownerChatID int64, useCase *usecases.PlantUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:         bot,
		useCase:     useCase,
		ownerChatID: ownerChatID,
	}, nil
}

// API exposes the underlying client, e.g. for a notifier
func (t *TelegramBot) API() *tgbotapi.BotAPI {
	return t.bot
}

// Start begins listening for and handling Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	zap.S().Infof("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	zap.S().Info("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			zap.S().Infof("Received message from %s (ID: %d): %s",
				update.Message.From.UserName,
				update.Message.From.ID,
				update.Message.Text)

			t.handleMessage(ctx, update)
		}
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	msg.Text = t.reply(ctx, update.Message.Chat.ID, update.Message)

	zap.S().Infof("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		zap.S().Errorf("Error sending message: %v", err)
	}
}

// reply builds the answer to a message
func (t *TelegramBot) reply(ctx context.Context, chatID int64, message *tgbotapi.Message) string {
	if chatID != t.ownerChatID {
		zap.S().Warnf("Ignoring chat %d, this bot serves chat %d only", chatID, t.ownerChatID)
		return "Sorry, this is a personal plant bot."
	}
	if message.IsCommand() {
		return t.handleCommand(ctx, message.Command(), strings.TrimSpace(message.CommandArguments()))
	}
	return t.handleNonCommand(ctx, message.Text)
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(ctx context.Context, command, args string) string {
	zap.S().Infof("Handling /%s command with args '%s'", command, args)

	switch command {
	case "start":
		return t.handleStart()
	case "help":
		return helpText
	case "name":
		return t.handleName(args)
	case "environments":
		return t.handleEnvironments(ctx)
	case "catalog":
		return t.handleCatalog(ctx, args)
	case "add":
		return t.handleAdd(ctx, args)
	case "myplants":
		return t.handleMyPlants()
	case "watered":
		return t.handleWatered(args)
	case "remove":
		return t.handleRemove(args)
	case "reset":
		return t.handleReset()
	default:
		zap.S().Infof("Received unknown command /%s", command)
		return "Unknown command. Use /help to see available commands."
	}
}

func (t *TelegramBot) handleStart() string {
	_, ok, err := t.useCase.UserName()
	if err != nil {
		zap.S().Errorf("Error reading user name: %v", err)
	}
	greeting := t.useCase.Greeting()
	if !ok {
		return greeting + "! I will remind you to water your plants. 🌿\n" +
			"How should I call you? Send /name followed by your name."
	}
	return greeting + "! Use /myplants to see your plants or /help for more information."
}

func (t *TelegramBot) handleName(args string) string {
	if err := t.useCase.SetUserName(args); err != nil {
		if errors.Is(err, repository.ErrEmptyName) {
			return "Please tell me your name. Example: /name Maria"
		}
		zap.S().Errorf("Error saving user name: %v", err)
		return "I couldn't save your name. Please try again later."
	}
	return "All set, " + strings.TrimSpace(args) + "! 😄\n" +
		"Now let's start taking good care of your plants. Use /catalog to pick one."
}

func (t *TelegramBot) handleEnvironments(ctx context.Context) string {
	envs, err := t.useCase.Environments(ctx)
	if err != nil {
		zap.S().Errorf("Error fetching environments: %v", err)
		return "Error fetching the catalog. Please try again later."
	}

	var b strings.Builder
	b.WriteString("Where do you want to put your plant?\n\n")
	for _, env := range envs {
		b.WriteString(fmt.Sprintf("• %s (%s)\n", env.Title, env.Key))
	}
	b.WriteString("\nUse /catalog [environment] to see its plants.")
	return b.String()
}

func (t *TelegramBot) handleCatalog(ctx context.Context, environment string) string {
	if environment == "" {
		environment = integration.AllEnvironments
	}
	plants, err := t.useCase.CatalogPlants(ctx, environment)
	if err != nil {
		zap.S().Errorf("Error fetching catalog plants: %v", err)
		return "Error fetching the catalog. Please try again later."
	}
	if len(plants) == 0 {
		return fmt.Sprintf("No plants found for environment '%s'. Use /environments to see the available ones.", environment)
	}

	var b strings.Builder
	b.WriteString("Catalog plants:\n\n")
	for _, p := range plants {
		b.WriteString(fmt.Sprintf("• %s [%s] - water %d time(s) per %s\n",
			p.Name, p.ID, p.Frequency.Times, p.Frequency.RepeatEvery))
	}
	b.WriteString("\nUse /add [id] to start caring for one.")
	return b.String()
}

func (t *TelegramBot) handleAdd(ctx context.Context, id string) string {
	if id == "" {
		return "Please specify a plant id. Example: /add 3"
	}
	plant, err := t.useCase.AddPlantFromCatalog(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, integration.ErrCatalogPlantNotFound):
		return fmt.Sprintf("No catalog plant with id '%s'. Use /catalog to see the available plants.", id)
	case errors.Is(err, repository.ErrDuplicateID):
		return "You are already caring for this plant."
	case errors.Is(err, schedule.ErrInvalidFrequency):
		return "This catalog plant has an invalid watering frequency."
	default:
		return t.storeFailure("adding the plant", err)
	}

	return fmt.Sprintf("🌱 %s added!\n\n%s\n\nFirst watering %s.",
		plant.Name, plant.WaterTips,
		t.useCase.DescribeFromNow(plant.DateTimeNotification))
}

func (t *TelegramBot) handleMyPlants() string {
	plants, err := t.useCase.MyPlants()
	if err != nil {
		return t.storeFailure("loading your plants", err)
	}
	return t.useCase.FormatMyPlants(plants)
}

func (t *TelegramBot) handleWatered(id string) string {
	if id == "" {
		return "Please specify a plant id. Example: /watered 3"
	}
	plant, err := t.useCase.WaterPlant(id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Sprintf("You are not caring for a plant with id '%s'.", id)
	}
	if err != nil {
		return t.storeFailure("saving the watering", err)
	}
	return fmt.Sprintf("💧 Great! Next watering for %s %s.", plant.Name,
		t.useCase.DescribeFromNow(plant.DateTimeNotification))
}

func (t *TelegramBot) handleRemove(id string) string {
	if id == "" {
		return "Please specify a plant id. Example: /remove 3"
	}
	err := t.useCase.RemovePlant(id)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Sprintf("You are not caring for a plant with id '%s'.", id)
	}
	if err != nil {
		return t.storeFailure("removing the plant", err)
	}
	return "Plant removed. 🥀"
}

func (t *TelegramBot) handleReset() string {
	if err := t.useCase.ResetData(); err != nil {
		return t.storeFailure("resetting your data", err)
	}
	return "All plant data was deleted. Use /catalog to start again."
}

// storeFailure turns store errors into a message, offering a reset for corrupt data
func (t *TelegramBot) storeFailure(action string, err error) string {
	zap.S().Errorf("Error %s: %v", action, err)
	if errors.Is(err, repository.ErrCorrupt) {
		return "Your saved plant data is damaged. Send /reset to start over."
	}
	return fmt.Sprintf("Something went wrong while %s. Please try again later.", action)
}

// handleNonCommand processes regular messages
func (t *TelegramBot) handleNonCommand(ctx context.Context, text string) string {
	zap.S().Infof("Received non-command message: %s", text)

	response, err := t.useCase.HandleNaturalLanguageQuery(ctx, text)
	if err != nil {
		return t.storeFailure("answering", err)
	}
	return response
}
