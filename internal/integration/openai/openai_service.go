package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Commands the agent may choose
const (
	CommandShowMyPlants = "ShowMyPlants"
	CommandAddPlant     = "AddPlant"
	CommandGeneralQuery = "GeneralQuery"
)

// ErrMissingAPIKey is returned when no OpenAI key is configured
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName string `json:"command_name" jsonschema_description:"The command to execute: ShowMyPlants, AddPlant or GeneralQuery"`
	PlantName   string `json:"plant_name" jsonschema_description:"The catalog plant name the user refers to, if applicable"`
	UserMessage string `json:"user_message" jsonschema_description:"A message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, catalogPlants []string) (*AgentResponse, error)
}

// openAIServiceImpl implements the OpenAIService interface.
type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewOpenAIService creates and initializes a new OpenAIService.
func NewOpenAIService(apiKey string) (OpenAIService, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &openAIServiceImpl{
		client: client,
		schema: GenerateSchema[AgentResponse](),
	}, nil
}

// SystemPrompt builds the instructions for the agent
func SystemPrompt(catalogPlants []string) string {
	return fmt.Sprintf(`You are a friendly gardening assistant inside a plant watering reminder bot.

Your mission is to understand what the user wants to do with their plants.

Requirements:
- You reply in the same language the user used, in one or two short sentences.
- You only talk about plants and watering; politely steer anything else back to plants.

List of catalog plants: %s

Behavior:
1. If the user wants to see their plants or asks when to water next:
   - command_name = "ShowMyPlants", plant_name = "".
2. If the user wants to start caring for a plant from the list:
   - command_name = "AddPlant"
   - plant_name: the exact catalog name from the list; if it is missing or dubious, leave it empty.
   - user_message: a one-line confirmation.
3. Anything else (greetings, care questions, small talk):
   - command_name = "GeneralQuery", plant_name = ""
   - user_message: a helpful reply.

Output **strictly** in JSON.`, strings.Join(catalogPlants, ", "))
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretUserQuery(ctx context.Context, userMessage string, catalogPlants []string) (*AgentResponse, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, plant name, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt(catalogPlants)),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})
	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	return ParseAgentResponse(chat.Choices[0].Message.Content)
}

// ParseAgentResponse decodes the agent's JSON answer
func ParseAgentResponse(content string) (*AgentResponse, error) {
	var agentResp AgentResponse
	if err := json.Unmarshal([]byte(content), &agentResp); err != nil {
		zap.S().Errorf("Failed to unmarshal OpenAI response: %s\nRaw response: %s", err, content)
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}
	return &agentResp, nil
}
