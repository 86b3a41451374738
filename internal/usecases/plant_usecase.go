// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/entities"
	"github.com/abelzeko/plant-manager/internal/integration"
	"github.com/abelzeko/plant-manager/internal/integration/openai"
	"github.com/abelzeko/plant-manager/internal/metrics"
	"github.com/abelzeko/plant-manager/internal/repository"
	"github.com/abelzeko/plant-manager/internal/schedule"
)

// Reminder is what the core hands to the notification collaborator when a plant is due
type Reminder struct {
	Plant    entities.Plant
	UserName string
	Message  string
}

// Notifier delivers watering reminders. Scheduling device notifications is its job,
// the core only decides when.
type Notifier interface {
	NotifyWatering(ctx context.Context, reminder Reminder) error
}

// PlantUseCase handles business logic related to the user's plants.
// It serialises every mutating store call, which the single-blob store requires.
type PlantUseCase struct {
	mu            sync.Mutex
	plants        *repository.PlantStore
	users         *repository.UserStore
	catalog       *integration.CatalogClient
	openAIService openai.OpenAIService
	metrics       *metrics.Metrics

	locale   schedule.Locale
	location *time.Location
	now      func() time.Time
}

// Option customises a PlantUseCase
type Option func(*PlantUseCase)

// WithLocale sets the language of banners and reminders
func WithLocale(locale schedule.Locale) Option {
	return func(uc *PlantUseCase) { uc.locale = locale }
}

// WithLocation sets the timezone watering times are shown in
func WithLocation(loc *time.Location) Option {
	return func(uc *PlantUseCase) { uc.location = loc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *PlantUseCase) { uc.now = now }
}

// WithMetrics records reminder runs in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *PlantUseCase) { uc.metrics = m }
}

// WithOpenAI enables free-text interpretation
func WithOpenAI(svc openai.OpenAIService) Option {
	return func(uc *PlantUseCase) { uc.openAIService = svc }
}

// NewPlantUseCase creates a new plant use case
func NewPlantUseCase(plants *repository.PlantStore, users *repository.UserStore, catalog *integration.CatalogClient, opts ...Option) *PlantUseCase {
	uc := &PlantUseCase{
		plants:   plants,
		users:    users,
		catalog:  catalog,
		locale:   schedule.English,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// DescribeFromNow describes the distance from now to at, e.g. "in 3 days"
func (uc *PlantUseCase) DescribeFromNow(at time.Time) string {
	return schedule.RelativeDescription(at, uc.now(), uc.locale)
}

// AddPlantFromCatalog copies a catalog plant into the user's collection
func (uc *PlantUseCase) AddPlantFromCatalog(ctx context.Context, id string) (entities.Plant, error) {
	zap.S().Infof("Adding catalog plant %s", id)
	template, err := uc.catalog.FetchPlant(ctx, id)
	if err != nil {
		return entities.Plant{}, err
	}
	return uc.AddPlant(template)
}

// AddPlant stores a plant, scheduling its first watering from now
func (uc *PlantUseCase) AddPlant(plant entities.Plant) (entities.Plant, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	next, err := schedule.NextNotification(plant.Frequency, uc.now())
	if err != nil {
		return entities.Plant{}, err
	}
	plant.DateTimeNotification = next
	return uc.plants.Save(plant)
}

// MyPlants returns the user's plants, soonest watering first
func (uc *PlantUseCase) MyPlants() ([]entities.Plant, error) {
	return uc.plants.List()
}

// RemovePlant deletes a plant from the user's collection
func (uc *PlantUseCase) RemovePlant(id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	zap.S().Infof("Removing plant %s", id)
	return uc.plants.Remove(id)
}

// WaterPlant acknowledges a watering and schedules the next one from now
func (uc *PlantUseCase) WaterPlant(id string) (entities.Plant, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	plant, err := uc.plants.Get(id)
	if err != nil {
		return entities.Plant{}, err
	}
	next, err := schedule.NextNotification(plant.Frequency, uc.now())
	if err != nil {
		return entities.Plant{}, err
	}
	if err := uc.plants.Reschedule(id, next); err != nil {
		return entities.Plant{}, err
	}
	plant.DateTimeNotification = next
	return plant, nil
}

// ResetData drops every stored plant, e.g. after the store reported corruption
func (uc *PlantUseCase) ResetData() error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.plants.Reset()
}

// SetUserName stores the name the user wants to be called by
func (uc *PlantUseCase) SetUserName(name string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.users.SaveName(name)
}

// UserName returns the stored user name, if any
func (uc *PlantUseCase) UserName() (string, bool, error) {
	return uc.users.Name()
}

// Greeting returns the header line, personalised when the name is known
func (uc *PlantUseCase) Greeting() string {
	msgs := messagesFor(uc.locale)
	name, ok, err := uc.users.Name()
	if err != nil {
		zap.S().Warnf("Failed to read user name: %v", err)
	}
	if !ok {
		return msgs.GreetingNoName
	}
	return fmt.Sprintf(msgs.Greeting, name)
}

// Environments returns the catalog environments, "all" first
func (uc *PlantUseCase) Environments(ctx context.Context) ([]entities.Environment, error) {
	return uc.catalog.FetchEnvironments(ctx)
}

// CatalogPlants returns catalog plants for an environment key
func (uc *PlantUseCase) CatalogPlants(ctx context.Context, environment string) ([]entities.Plant, error) {
	plants, err := uc.catalog.FetchPlants(ctx)
	if err != nil {
		return nil, err
	}
	return integration.FilterByEnvironment(plants, environment), nil
}

// DispatchDueReminders hands every due plant to the notifier and schedules its next watering.
// A plant whose notification fails stays due and is retried on the next run.
func (uc *PlantUseCase) DispatchDueReminders(ctx context.Context, notifier Notifier) (int, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	plants, err := uc.plants.List()
	if err != nil {
		return 0, fmt.Errorf("failed to list plants: %w", err)
	}
	if uc.metrics != nil {
		uc.metrics.PlantsStored.Set(float64(len(plants)))
	}

	userName, _, err := uc.users.Name()
	if err != nil {
		zap.S().Warnf("Failed to read user name for reminders: %v", err)
	}

	now := uc.now()
	sent := 0
	for _, plant := range plants {
		if plant.DateTimeNotification.After(now) {
			// Sorted soonest first, nothing else is due
			break
		}
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		reminder := Reminder{
			Plant:    plant,
			UserName: userName,
			Message:  uc.ReminderMessage(userName, plant),
		}
		if err := notifier.NotifyWatering(ctx, reminder); err != nil {
			zap.S().Errorf("Failed to notify about plant %s: %v", plant.ID, err)
			uc.countFailure()
			continue
		}

		next, err := schedule.NextNotification(plant.Frequency, now)
		if err == nil {
			err = uc.plants.Reschedule(plant.ID, next)
		}
		if err != nil {
			uc.countFailure()
			if errors.Is(err, repository.ErrCorrupt) || errors.Is(err, repository.ErrStorageUnavailable) {
				return sent, fmt.Errorf("failed to reschedule plant %s: %w", plant.ID, err)
			}
			zap.S().Errorf("Failed to reschedule plant %s: %v", plant.ID, err)
			continue
		}

		sent++
		if uc.metrics != nil {
			uc.metrics.RemindersSent.Inc()
		}
	}

	if sent > 0 {
		zap.S().Infof("Dispatched %d watering reminders", sent)
	}
	return sent, nil
}

func (uc *PlantUseCase) countFailure() {
	if uc.metrics != nil {
		uc.metrics.ReminderFailures.Inc()
	}
}

// ReminderMessage formats the text of a watering reminder
func (uc *PlantUseCase) ReminderMessage(userName string, plant entities.Plant) string {
	msgs := messagesFor(uc.locale)
	if userName == "" {
		return fmt.Sprintf(msgs.ReminderNoName, plant.Name)
	}
	return fmt.Sprintf(msgs.Reminder, userName, plant.Name)
}

// NextWateringBanner describes the soonest watering. ok is false for an empty list.
func (uc *PlantUseCase) NextWateringBanner(plants []entities.Plant, now time.Time) (string, bool) {
	if len(plants) == 0 {
		return "", false
	}
	msgs := messagesFor(uc.locale)
	next := plants[0]
	when := schedule.RelativeDescription(next.DateTimeNotification, now, uc.locale)
	if next.DateTimeNotification.Before(now) {
		return fmt.Sprintf(msgs.BannerOverdue, next.Name, when), true
	}
	return fmt.Sprintf(msgs.Banner, next.Name, when), true
}

// FormatPlantCard renders one plant line: name, watering hour and relative time
func (uc *PlantUseCase) FormatPlantCard(plant entities.Plant, now time.Time) string {
	msgs := messagesFor(uc.locale)
	hour := plant.DateTimeNotification.In(uc.location).Format("15:04")
	return fmt.Sprintf("🌱 %s [%s] · %s (%s)",
		plant.Name, plant.ID,
		fmt.Sprintf(msgs.WaterAt, hour),
		schedule.RelativeDescription(plant.DateTimeNotification, now, uc.locale))
}

// FormatMyPlants renders the "my plants" screen
func (uc *PlantUseCase) FormatMyPlants(plants []entities.Plant) string {
	msgs := messagesFor(uc.locale)
	banner, ok := uc.NextWateringBanner(plants, uc.now())
	if !ok {
		return msgs.NoPlants
	}

	now := uc.now()
	var result strings.Builder
	result.WriteString("💧 " + banner + "\n\n")
	result.WriteString(msgs.UpcomingHeading + ":\n")
	for _, p := range plants {
		result.WriteString(uc.FormatPlantCard(p, now))
		result.WriteString("\n")
	}
	return result.String()
}

// HandleNaturalLanguageQuery interprets a user's free-text message using the AI service
// and returns an appropriate response string.
func (uc *PlantUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (string, error) {
	if uc.openAIService == nil {
		return "I don't understand. Use /help to see available commands.", nil
	}
	zap.S().Infof("Interpreting natural language query: %s", query)

	catalogPlants, err := uc.catalog.FetchPlants(ctx)
	if err != nil {
		zap.S().Warnf("Error fetching catalog for interpretation: %v", err)
	}
	names := make([]string, 0, len(catalogPlants))
	for _, p := range catalogPlants {
		names = append(names, p.Name)
	}

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, names)
	if err != nil {
		zap.S().Errorf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	zap.S().Infof("Agent response: Command='%s', Plant='%s', Message='%s'",
		agentResp.CommandName, agentResp.PlantName, agentResp.UserMessage)

	switch agentResp.CommandName {
	case openai.CommandShowMyPlants:
		plants, err := uc.MyPlants()
		if err != nil {
			return "", err
		}
		return joinMessage(agentResp.UserMessage, uc.FormatMyPlants(plants)), nil
	case openai.CommandAddPlant:
		template, ok := findByName(catalogPlants, agentResp.PlantName)
		if !ok {
			return joinMessage(agentResp.UserMessage, "I couldn't find that plant in the catalog. Use /catalog to see the available ones."), nil
		}
		plant, err := uc.AddPlant(template)
		if errors.Is(err, repository.ErrDuplicateID) {
			return fmt.Sprintf("You are already growing %s.", template.Name), nil
		}
		if err != nil {
			return "", err
		}
		return joinMessage(agentResp.UserMessage, fmt.Sprintf("Added %s. Next watering %s.",
			plant.Name, uc.DescribeFromNow(plant.DateTimeNotification))), nil
	case openai.CommandGeneralQuery:
		return agentResp.UserMessage, nil
	default:
		zap.S().Warnf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
}

func findByName(plants []entities.Plant, name string) (entities.Plant, bool) {
	if name == "" {
		return entities.Plant{}, false
	}
	for _, p := range plants {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return entities.Plant{}, false
}

func joinMessage(prefix, body string) string {
	if prefix == "" {
		return body
	}
	return prefix + "\n\n" + body
}
