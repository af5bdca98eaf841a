package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// AIService extracts task suggestions from free-form text via OpenAI.
type AIService struct {
	client *openai.Client
}

// SuggestedTask is one task proposal extracted from the input text.
type SuggestedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// NewAIService creates an AIService. An empty apiKey leaves the client nil
// and every call returns an error.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// Configured reports whether an API key was supplied.
func (s *AIService) Configured() bool {
	return s.client != nil
}

// SuggestTasksFromText analyzes text and extracts concrete task proposals
// for the given project using OpenAI GPT.
func (s *AIService) SuggestTasksFromText(ctx context.Context, projectName, text string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant for the project %q. Extract concrete tasks from the following text.

Current time: %s

Text:
%s

Return the extracted tasks as a JSON array in the following format:
[
  {
    "title": "short task title",
    "description": "detailed task description",
    "due_date": "deadline in ISO8601 format, e.g. 2025-10-28T23:59:59Z, or null when no deadline is mentioned"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative deadlines ("tomorrow", "next week") to concrete timestamps
- due_date must be an ISO8601 string or null
- Return only JSON, no explanatory text`, projectName, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
