package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteClient calls a chat-completion style endpoint and expects the model
// to answer a bare YES or NO for each headline.
type RemoteClient struct {
	apiURL  string
	apiKey  string
	groupID string
	model   string
	client  *http.Client
}

func NewRemoteClient(apiURL, apiKey, groupID, model string, timeout time.Duration) *RemoteClient {
	return &RemoteClient{
		apiURL:  apiURL,
		apiKey:  apiKey,
		groupID: groupID,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type classifyRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

const promptTemplate = "以下是一則新聞標題。如果它報導香港海關或香港執法相關新聞，只回答 YES；否則只回答 NO。不要解釋。\n標題：%s"

// Classify sends one headline and maps the model's YES/NO to a bool. Any
// transport error, non-200 status or answer other than YES/NO is returned
// as an error so the caller can fall back to the keyword rule.
func (r *RemoteClient) Classify(ctx context.Context, title string) (bool, error) {
	payload := classifyRequest{
		Model:       r.model,
		MaxTokens:   16,
		Temperature: 0,
		Messages: []chatMessage{
			{
				Role:    "user",
				Content: []contentPart{{Type: "text", Text: fmt.Sprintf(promptTemplate, title)}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.apiURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	if r.groupID != "" {
		req.Header.Set("X-Group-Id", r.groupID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("classifier API: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read classifier response: %w", err)
	}

	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return false, fmt.Errorf("decode classifier response: %w", err)
	}

	answer := strings.ToUpper(strings.TrimSpace(ExtractText(tree)))
	switch answer {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	default:
		return false, fmt.Errorf("classifier answer %q is not YES/NO", answer)
	}
}
