package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

// Config selects the models behind the content backend.
type Config struct {
	APIKey      string  `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	Model       string  `yaml:"model" envconfig:"OPENAI_MODEL"`
	TTSModel    string  `yaml:"tts_model" envconfig:"OPENAI_TTS_MODEL"`
	STTModel    string  `yaml:"stt_model" envconfig:"OPENAI_STT_MODEL"`
	Voice       string  `yaml:"voice" envconfig:"OPENAI_TTS_VOICE"`
	Temperature float64 `yaml:"temperature" envconfig:"OPENAI_TEMPERATURE"`
}

// Normalize fills model defaults.
func (c *Config) Normalize() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.TTSModel == "" {
		c.TTSModel = "tts-1"
	}
	if c.STTModel == "" {
		c.STTModel = "whisper-1"
	}
	if c.Voice == "" {
		c.Voice = "alloy"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
}

// Generator produces lesson content through the OpenAI API. It is
// stateless; every method is a single round trip (plus JSON parsing
// for structured replies).
type Generator struct {
	client openai.Client
	cfg    Config
}

// NewGenerator builds the content backend from its config.
func NewGenerator(cfg Config, opts ...option.RequestOption) *Generator {
	cfg.Normalize()
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	return &Generator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// chat runs one system+user completion and returns the reply text.
func (g *Generator) chat(ctx context.Context, kind, system, user string) (string, error) {
	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.cfg.Model),
		Temperature: openai.Float(g.cfg.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat %s: %w", kind, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat %s: empty completion", kind)
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("chat %s: empty completion", kind)
	}
	logger.SVCContent.Debug("completion finished",
		slog.String("event", "content.chat"),
		slog.String("kind", kind),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return reply, nil
}

// articleContext formats the source document the way every
// article-driven prompt expects it.
func articleContext(a lesson.Article) string {
	return fmt.Sprintf("Article title: %s\n\nArticle content: %s\n\n%s", a.Title, a.Description, a.Content)
}

// AdaptArticle rewrites the source article as a titled A2-level text.
func (g *Generator) AdaptArticle(ctx context.Context, a lesson.Article) (string, error) {
	return g.chat(ctx, "adapt_article", promptAdaptArticle, articleContext(a))
}

// ListeningText writes a short spoken-style text about the topic.
func (g *Generator) ListeningText(ctx context.Context, a lesson.Article) (string, error) {
	return g.chat(ctx, "listening_text", promptListeningText, articleContext(a))
}

// SpeakingPrompt writes the "Vertel in 2-3 zinnen" speaking prompt.
func (g *Generator) SpeakingPrompt(ctx context.Context, a lesson.Article) (string, error) {
	return g.chat(ctx, "speaking_prompt", promptSpeakingPrompt, articleContext(a))
}

// GenerateQuestions creates count multiple-choice questions for text.
func (g *Generator) GenerateQuestions(ctx context.Context, text string, count int) ([]lesson.Question, error) {
	reply, err := g.chat(ctx, "questions", fmt.Sprintf(promptGenerateQuestions, count), text)
	if err != nil {
		return nil, err
	}
	var questions []lesson.Question
	if err := parseJSON(reply, &questions); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}
	questions = sanitizeQuestions(questions, count)
	if len(questions) == 0 {
		return nil, fmt.Errorf("questions: no usable questions in reply")
	}
	return questions, nil
}

// sanitizeQuestions drops malformed entries and caps the list. Option
// lists longer than the answer labels and correct letters outside the
// option range make a question unanswerable, so such entries are
// discarded rather than shown.
func sanitizeQuestions(in []lesson.Question, max int) []lesson.Question {
	out := make([]lesson.Question, 0, max)
	for _, q := range in {
		if len(out) == max {
			break
		}
		q.Correct = strings.ToUpper(strings.TrimSpace(q.Correct))
		if q.Question == "" || len(q.Options) < 2 || len(q.Options) > lesson.MaxAnswerOptions || len(q.Correct) != 1 {
			continue
		}
		idx := int(q.Correct[0] - 'A')
		if idx < 0 || idx >= len(q.Options) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ExtractVocabulary pulls 5-8 word pairs out of a Dutch text.
func (g *Generator) ExtractVocabulary(ctx context.Context, text string) ([]lesson.VocabWord, error) {
	reply, err := g.chat(ctx, "vocabulary", promptExtractVocabulary, text)
	if err != nil {
		return nil, err
	}
	var words []lesson.VocabWord
	if err := parseJSON(reply, &words); err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	out := words[:0]
	for _, w := range words {
		if w.Dutch != "" && w.English != "" {
			out = append(out, w)
		}
	}
	return out, nil
}

// SynthesizeSpeech renders text as spoken audio and returns the bytes.
func (g *Generator) SynthesizeSpeech(ctx context.Context, text string) ([]byte, error) {
	resp, err := g.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(g.cfg.TTSModel),
		Voice: openai.AudioSpeechNewParamsVoice(g.cfg.Voice),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read audio: %w", err)
	}
	logger.SVCContent.Debug("speech synthesized",
		slog.String("event", "content.tts"),
		slog.Int("bytes", len(audio)),
	)
	return audio, nil
}

// Transcribe converts a Dutch voice clip to text.
func (g *Generator) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := g.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    openai.AudioModel(g.cfg.STTModel),
		File:     openai.File(bytes.NewReader(audio), "voice.oga", "audio/ogg"),
		Language: openai.String("nl"),
	})
	if err != nil {
		return "", fmt.Errorf("stt: %w", err)
	}
	return resp.Text, nil
}

// EvaluateResponse grades a transcript against its speaking prompt.
func (g *Generator) EvaluateResponse(ctx context.Context, prompt, transcript string) (lesson.Evaluation, error) {
	user := fmt.Sprintf("Prompt: %s\n\nUser's response: %s", prompt, transcript)
	reply, err := g.chat(ctx, "evaluation", promptEvaluateSpeaking, user)
	if err != nil {
		return lesson.Evaluation{}, err
	}
	var eval lesson.Evaluation
	if err := parseJSON(reply, &eval); err != nil {
		return lesson.Evaluation{}, fmt.Errorf("evaluation: %w", err)
	}
	if eval.Feedback == "" {
		return lesson.Evaluation{}, fmt.Errorf("evaluation: reply missing feedback")
	}
	return eval, nil
}
