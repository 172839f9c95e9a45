package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	config "github.com/nmwangui/testprep/configs"
	"github.com/nmwangui/testprep/models"
)

const groqChatCompletionsURL = "https://api.groq.com/openai/v1/chat/completions"

// QuestionDraft is what the generation provider hands back for a single question,
// before anything is persisted.
type QuestionDraft struct {
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type GroqService struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
	Model   string
}

var Generator *GroqService

func InitGenerator() {
	Generator = &GroqService{
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		BaseURL: config.ConfigOr("GROQ_API_URL", groqChatCompletionsURL),
		APIKey:  config.Config("GROQ_API_KEY"),
		Model:   config.ConfigOr("GROQ_MODEL", "llama3-70b-8192"),
	}

	if Generator.APIKey == "" {
		log.Println("⚠️ GROQ_API_KEY not set. Test generation will use placeholder questions.")
	} else {
		log.Println("✅ Question generation service initialized.")
	}
}

type chatCompletionRequest struct {
	Model          string                  `json:"model"`
	Messages       []chatCompletionMessage `json:"messages"`
	Temperature    float64                 `json:"temperature"`
	ResponseFormat responseFormat          `json:"response_format"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

type generatedTest struct {
	Questions []QuestionDraft `json:"questions"`
}

// GenerateTestQuestions asks the provider for questionCount multiple-choice questions
// about the topic. Every failure mode (missing credentials, transport error, non-2xx
// status, empty or unparsable body, missing questions array) resolves to the same
// deterministic placeholder set, so the caller always receives a usable question list
// and never an error. One attempt only; the client timeout bounds the wait.
func (g *GroqService) GenerateTestQuestions(topicName, topicDescription, difficulty string, questionCount int) []QuestionDraft {
	questions, err := g.requestQuestions(topicName, topicDescription, difficulty, questionCount)
	if err != nil {
		log.Printf("Question generation failed (%v), falling back to placeholder questions", err)
		return FallbackQuestions(topicName, difficulty, questionCount)
	}
	return questions
}

func (g *GroqService) requestQuestions(topicName, topicDescription, difficulty string, questionCount int) ([]QuestionDraft, error) {
	if g.APIKey == "" {
		return nil, errors.New("GROQ_API_KEY is not configured")
	}

	payload := chatCompletionRequest{
		Model: g.Model,
		Messages: []chatCompletionMessage{
			{
				Role:    "system",
				Content: "You are an expert test creator that always responds with properly formatted JSON.",
			},
			{
				Role:    "user",
				Content: buildPrompt(topicName, topicDescription, difficulty, questionCount),
			},
		},
		Temperature:    0.2,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.BaseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(errText))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, errors.New("empty completion content")
	}

	var parsed generatedTest
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("completion content is not valid JSON: %w", err)
	}
	if len(parsed.Questions) == 0 {
		return nil, errors.New("questions array missing or empty in completion")
	}

	for i := range parsed.Questions {
		if parsed.Questions[i].Type == "" {
			parsed.Questions[i].Type = models.QuestionTypeMultipleChoice
		}
	}
	return parsed.Questions, nil
}

func buildPrompt(topicName, topicDescription, difficulty string, questionCount int) string {
	return fmt.Sprintf(`You are an expert educator and test creator. Create a %s difficulty test on the topic of "%s".

Topic details: %s

Generate %d multiple-choice questions with 4 options each. For each question:
1. Provide a clear, well-formulated question
2. Provide 4 distinct answer options labeled A, B, C, and D
3. Indicate which option is correct
4. Provide a brief explanation of why the correct answer is right

Format your response as a JSON object with the following structure:
{
  "questions": [
    {
      "text": "question text here",
      "type": "MULTIPLE_CHOICE",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option A",
      "explanation": "explanation here"
    }
  ]
}

Make sure your questions test understanding rather than just memorization.`,
		difficulty, topicName, topicDescription, questionCount)
}

// FallbackQuestions builds the placeholder set used whenever generation fails.
func FallbackQuestions(topicName, difficulty string, questionCount int) []QuestionDraft {
	questions := make([]QuestionDraft, questionCount)
	for i := range questions {
		questions[i] = QuestionDraft{
			Text:          fmt.Sprintf("Sample question %d about %s (%s difficulty)", i+1, topicName, difficulty),
			Type:          models.QuestionTypeMultipleChoice,
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: "Option A",
			Explanation:   "This is a sample explanation for the correct answer.",
		}
	}
	return questions
}
