package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"cinetrack/models"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-2.5-flash"

	// DefaultSuggestionCount is how many candidates one suggestion call asks for.
	DefaultSuggestionCount = 5
	// MaxSuggestionCount bounds caller-supplied counts.
	MaxSuggestionCount = 10
)

// geminiClient wraps the generateContent endpoint for structured movie
// suggestions. One request per call, no retry, no caching.
type geminiClient struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newGeminiClient(apiKey, model string, httpc *http.Client) *geminiClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &geminiClient{
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		baseURL:     geminiBaseURL,
		httpc:       httpc,
		minInterval: 100 * time.Millisecond,
	}
}

func (c *geminiClient) isConfigured() bool {
	return c.apiKey != ""
}

// geminiRequest is the request body for the Gemini generateContent API.
type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64         `json:"temperature"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

// geminiResponse is the response from the Gemini generateContent API.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// suggestionSchema constrains the model output to a single JSON object with a
// fixed-size suggestions array.
const suggestionSchema = `{
  "type": "object",
  "properties": {
    "suggestions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "year": {"type": "integer"},
          "director": {"type": "string"}
        },
        "required": ["title", "year", "director"]
      }
    }
  },
  "required": ["suggestions"]
}`

// suggestionList is the container the schema requires.
type suggestionList struct {
	Suggestions []models.MovieSuggestion `json:"suggestions"`
}

// suggest asks the model for count movie suggestions matching a free-text
// query (genre, topic, theme, or a plain title).
func (c *geminiClient) suggest(ctx context.Context, query string, count int) ([]models.MovieSuggestion, error) {
	if !c.isConfigured() {
		return nil, errors.New("gemini api key not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if count <= 0 {
		count = DefaultSuggestionCount
	}
	if count > MaxSuggestionCount {
		count = MaxSuggestionCount
	}

	instruction := fmt.Sprintf(`You are an expert cinematic recommendation engine. Analyze the user's request (genre, topic, theme, or a simple title) and provide exactly %d relevant movie suggestions. The output MUST be a single JSON object with a "suggestions" array whose objects have exactly these fields:
- "title": the primary English title of the movie
- "year": the release year as an integer, 0 if unknown
- "director": the director's full name, "Unknown" if unknown
Do not include any preamble, commentary, or text outside the required JSON.`, count)

	prompt := fmt.Sprintf("Suggest %d movies related to '%s'.", count, query)

	// Space out consecutive requests.
	c.throttleMu.Lock()
	if since := time.Since(c.lastRequest); since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: instruction}}},
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      0.4,
			MaxOutputTokens:  2048,
			ResponseMIMEType: "application/json",
			ResponseSchema:   json.RawMessage(suggestionSchema),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gemini API error: status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if geminiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini returned empty response")
	}

	suggestions, err := parseSuggestions(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	if len(suggestions) > count {
		suggestions = suggestions[:count]
	}
	return suggestions, nil
}

// parseSuggestions decodes the model reply. The whole payload is tried first;
// if the model wrapped the JSON in fences or commentary despite instructions,
// the first top-level {...} substring is extracted and parsed instead.
func parseSuggestions(raw string) ([]models.MovieSuggestion, error) {
	raw = strings.TrimSpace(raw)

	var list suggestionList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		cleaned := strings.TrimSpace(raw)
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in gemini reply: %w", err)
		}
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), &list); err2 != nil {
			return nil, fmt.Errorf("parse gemini suggestions: %w", err2)
		}
	}

	out := make([]models.MovieSuggestion, 0, len(list.Suggestions))
	for _, s := range list.Suggestions {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		if s.Year < 0 {
			s.Year = 0
		}
		if strings.TrimSpace(s.Director) == "" {
			s.Director = models.UnknownDirector
		}
		out = append(out, s)
	}
	return out, nil
}
