package scorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"resume-match-go/internal/types"
)

// AIAssessment is the JSON shape the model must answer with.
type AIAssessment struct {
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// Assessor produces an independent model-based quality read of a resume.
// Implementations must respect ctx cancellation.
type Assessor interface {
	Assess(ctx context.Context, resumeText string, lang types.Language) (*AIAssessment, error)
}

const (
	defaultAssessTimeout = 30 * time.Second
	defaultMaxRetries    = 1
)

const assessSystemPrompt = "You are a senior recruiter who reviews resumes for overall quality and completeness. " +
	"You always answer with a single JSON object and nothing else."

const defaultPromptTemplate = `Review the resume below and rate its overall quality from 0 to 100, where 85-100 is exceptional, 70-84 strong, 50-69 adequate and below 50 weak.

Judge four things: section completeness (summary, experience, education, skills), how specific and relevant the listed skills are, whether employment dates are present and consistent, and whether contact details are easy to find.

Reply with exactly this JSON shape:
{"score": <integer 0-100>, "suggestions": ["<up to five concrete improvements>"]}

All field names and string values must use double quotes, and double quotes inside string values must be escaped with a backslash. Do not wrap the object in markdown fences or add any text around it.

Write the suggestions in %s.

Resume:
"""
%s
"""`

// LLMAssessor asks a chat model to rate the resume. Responses are parsed
// defensively: the JSON object is located by brace matching, repaired once
// if unescaped quotes break decoding, and range-checked before use.
type LLMAssessor struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string
	timeout        time.Duration
	maxRetries     int
	logger         zerolog.Logger
}

// AssessorOption customizes an LLMAssessor.
type AssessorOption func(*LLMAssessor)

// WithPromptTemplate overrides the default prompt. The template must keep
// two %s verbs: suggestion language, then resume text.
func WithPromptTemplate(template string) AssessorOption {
	return func(a *LLMAssessor) {
		if template != "" {
			a.promptTemplate = template
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) AssessorOption {
	return func(a *LLMAssessor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed call is retried.
func WithMaxRetries(n int) AssessorOption {
	return func(a *LLMAssessor) {
		if n >= 0 {
			a.maxRetries = n
		}
	}
}

// WithAssessorLogger attaches a logger.
func WithAssessorLogger(logger zerolog.Logger) AssessorOption {
	return func(a *LLMAssessor) { a.logger = logger }
}

// NewLLMAssessor wraps a chat model as an Assessor.
func NewLLMAssessor(llmModel model.ToolCallingChatModel, opts ...AssessorOption) *LLMAssessor {
	a := &LLMAssessor{
		llmModel:       llmModel,
		promptTemplate: defaultPromptTemplate,
		timeout:        defaultAssessTimeout,
		maxRetries:     defaultMaxRetries,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assess rates one resume. Transient failures are retried up to maxRetries
// times; cancellation of ctx stops the retry loop immediately.
func (a *LLMAssessor) Assess(ctx context.Context, resumeText string, lang types.Language) (*AIAssessment, error) {
	if a.llmModel == nil {
		return nil, errors.New("llm model is not configured")
	}

	prompt := fmt.Sprintf(a.promptTemplate, suggestionLanguage(lang), resumeText)
	messages := []*schema.Message{
		schema.SystemMessage(assessSystemPrompt),
		schema.UserMessage(prompt),
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		assessment, err := a.generateOnce(ctx, messages)
		if err == nil {
			return assessment, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		a.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("resume assessment attempt failed")
	}
	return nil, lastErr
}

func (a *LLMAssessor) generateOnce(ctx context.Context, messages []*schema.Message) (*AIAssessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	response, err := a.llmModel.Generate(callCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	if response == nil || response.Content == "" {
		return nil, errors.New("llm returned an empty response")
	}

	content := strings.TrimPrefix(response.Content, "\uFEFF")
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in llm response: %.200s", content)
	}
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var assessment AIAssessment
	if err := json.Unmarshal([]byte(jsonStr), &assessment); err != nil {
		repaired := sanitizeJSON(jsonStr)
		if repairErr := json.Unmarshal([]byte(repaired), &assessment); repairErr != nil {
			return nil, fmt.Errorf("unmarshal llm response after repair: %w (original: %v)", repairErr, err)
		}
	}

	if assessment.Score < 0 || assessment.Score > 100 {
		return nil, fmt.Errorf("llm score %d outside 0-100", assessment.Score)
	}
	return &assessment, nil
}

// suggestionLanguage names the language the model should answer in. Mixed
// resumes get English suggestions.
func suggestionLanguage(lang types.Language) string {
	if lang == types.LanguageArabic {
		return "Arabic"
	}
	return "English"
}

// extractJSON returns the first balanced {...} object in text, or "".
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON escapes double quotes that sit inside string literals without
// ending them, a common model output defect. A quote ends a string only when
// the next non-space byte is JSON syntax (: , ] or }); any other quote is
// rewritten as \".
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
				break
			}
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
				j++
			}
			if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
				inStr = false
				b.WriteByte(c)
			} else if j == len(src) {
				inStr = false
				b.WriteByte(c)
			} else {
				b.WriteString(`\"`)
			}
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
			continue
		default:
			b.WriteByte(c)
		}
		escaped = false
	}
	return b.String()
}
