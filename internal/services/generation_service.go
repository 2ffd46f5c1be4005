package services

import (
	"context"
	"fmt"

	"github.com/yoockh/ideagen/internal/models"
	"github.com/yoockh/ideagen/internal/providers/llm"
	"github.com/yoockh/ideagen/internal/utils"
)

// MsgMissingFields is returned verbatim to callers that omit a field.
const MsgMissingFields = "No topic or proficiency level in the request"

const promptTemplate = "Generate a project idea for a %s level student, the topic is %s"

// DefaultParams are the fixed sampling settings for every generation.
var DefaultParams = llm.Params{
	Temperature:      0.7,
	TopP:             1,
	FrequencyPenalty: 0,
	PresencePenalty:  0,
	MaxTokens:        200,
	N:                1,
}

type GenerationService interface {
	// Generate validates req and starts a provider stream. Validation
	// failures are returned synchronously and never reach the provider.
	Generate(ctx context.Context, req models.GenerationRequest) (<-chan string, <-chan error, error)
}

type generationService struct {
	llm    llm.Provider
	params llm.Params
}

func NewGenerationService(provider llm.Provider) GenerationService {
	return &generationService{llm: provider, params: DefaultParams}
}

func BuildPrompt(req models.GenerationRequest) string {
	return fmt.Sprintf(promptTemplate, req.Proficiency, req.Topic)
}

func (s *generationService) Generate(ctx context.Context, req models.GenerationRequest) (<-chan string, <-chan error, error) {
	const op = "GenerationService.Generate"

	if req.Topic == "" || req.Proficiency == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, MsgMissingFields, nil)
	}

	chunks, errs := s.llm.StreamAnswer(ctx, BuildPrompt(req), s.params)
	return chunks, errs, nil
}
