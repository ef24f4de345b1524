package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIBase = "https://api.openai.com"

// OpenAIClient talks to the OpenAI Responses API. The bot uses it for one
// thing: a joke riffing on the reminder's task text.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultOpenAIBase,
		// Enrichment runs inline during scheduling; a hung call must not
		// stall reminder creation forever.
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Joke asks the model for a joke related to the task text. Callers treat any
// error as "no joke".
func (c *OpenAIClient) Joke(taskText string) (string, error) {
	prompt := "Tell me a joke that relates to the context of the following text: " + taskText
	return c.getResponse(prompt)
}

func (c *OpenAIClient) getResponse(input string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not set")
	}

	jsonBody, err := json.Marshal(responsesRequest{Model: c.model, Input: input})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/v1/responses", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response responsesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("OpenAI error: %s", response.Error.Message)
	}

	for _, output := range response.Output {
		if output.Type == "message" && output.Role == "assistant" {
			for _, content := range output.Content {
				if content.Type == "output_text" {
					return content.Text, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no text response found in OpenAI output")
}
