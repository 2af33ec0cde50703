// Package extractor turns video text into restaurant mentions. A cheap
// chapter-timestamp pass runs first; the extraction model is consulted only
// when the description has no chapter list.
package extractor

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"foodmap-video-importer/internal/models"
	"foodmap-video-importer/internal/prompts"
	errs "foodmap-video-importer/pkg/errors"
	"foodmap-video-importer/pkg/logging"
)

// ChatClient is the slice of the OpenAI client the extractor uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

func DefaultConfig() Config {
	return Config{Model: openai.GPT4oMini, Temperature: 0.1, MaxTokens: 1500}
}

type Service struct {
	chat    ChatClient
	prompts *prompts.Manager
	cfg     Config
	log     *logging.Logger
}

func New(chat ChatClient, pm *prompts.Manager, cfg Config, log *logging.Logger) *Service {
	return &Service{chat: chat, prompts: pm, cfg: cfg, log: log.WithComponent("extractor")}
}

// Input is everything the extractor may mine for mentions.
type Input struct {
	Metadata   *models.VideoMetadata
	Transcript string
	City       string
}

// Extract returns the mentions found in the input. A malformed or empty
// model response is an empty list, not an error; only transport failures
// surface as errors.
func (s *Service) Extract(ctx context.Context, in Input) ([]models.RestaurantMention, error) {
	if mentions := extractTimestampMentions(in.Metadata.Description); len(mentions) > 0 {
		s.log.Info("chapter list found, skipping model extraction",
			logging.Int("mentions", len(mentions)))
		return mentions, nil
	}

	text := strings.TrimSpace(in.Metadata.Description)
	if in.Transcript != "" {
		if text != "" {
			text += "\n\n"
		}
		text += in.Transcript
	}
	if text == "" {
		return nil, nil
	}

	sourceKind := "description"
	if in.Transcript != "" {
		sourceKind = "description+transcript"
	}
	prompt, err := s.prompts.Render("extract_mentions", map[string]string{
		"City":       in.City,
		"SourceKind": sourceKind,
		"Title":      in.Metadata.Title,
		"Channel":    in.Metadata.ChannelName,
		"Text":       text,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, errs.NewExternal("extractor.Extract", "openai", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	mentions := parseMentions(resp.Choices[0].Message.Content)
	if mentions == nil {
		s.log.Warn("unparseable extraction response, treating as no mentions")
	}
	return mentions, nil
}

// parseMentions tolerates the model wrapping its answer in code fences or
// prose: code fences are stripped, then the first top-level JSON array is
// decoded. Anything else yields nil.
func parseMentions(raw string) []models.RestaurantMention {
	cleaned := stripCodeFences(raw)
	arr := firstTopLevelArray(cleaned)
	if arr == "" {
		return nil
	}
	var mentions []models.RestaurantMention
	if err := json.Unmarshal([]byte(arr), &mentions); err != nil {
		return nil
	}
	out := mentions[:0]
	for _, m := range mentions {
		if strings.TrimSpace(m.Name) != "" {
			out = append(out, m)
		}
	}
	return out
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// firstTopLevelArray returns the first balanced [...] span outside of JSON
// strings, or "" when none exists.
func firstTopLevelArray(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
