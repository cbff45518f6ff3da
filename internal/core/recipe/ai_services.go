package recipe

import (
	"context"
	"strings"

	"recipio/internal/core/ai/contract"
	"recipio/internal/core/ai/prompt"
	aiservice "recipio/internal/core/ai/service"
	"recipio/internal/pkg/common"

	"go.uber.org/zap"
)

// SubstitutionRequest asks for substitutes for one ingredient.
type SubstitutionRequest struct {
	Ingredient   string `json:"ingredient" form:"ingredient"`
	Restrictions string `json:"restrictions" form:"restrictions"`
	Allergies    string `json:"allergies" form:"allergies"`
}

// GenerationRequest asks for a recipe built from free-text ingredients.
// Ingredients is accepted as an alias of IngredientsText.
type GenerationRequest struct {
	IngredientsText string `json:"ingredients_text" form:"ingredients_text"`
	Ingredients     string `json:"ingredients" form:"ingredients"`
	Restrictions    string `json:"restrictions" form:"restrictions"`
	Allergies       string `json:"allergies" form:"allergies"`
}

// Text returns the ingredient list, preferring ingredients_text.
func (r GenerationRequest) Text() string {
	if strings.TrimSpace(r.IngredientsText) != "" {
		return r.IngredientsText
	}
	return r.Ingredients
}

// SubstitutionService suggests dietary-aware ingredient substitutes.
type SubstitutionService struct {
	ai *aiservice.Service
}

// NewSubstitutionService creates a SubstitutionService.
func NewSubstitutionService(ai *aiservice.Service) *SubstitutionService {
	return &SubstitutionService{ai: ai}
}

// Substitute returns three alternatives or, when the completion breaks its
// contract, a Fallback. Only input and provider failures are errors.
func (s *SubstitutionService) Substitute(ctx context.Context, req SubstitutionRequest) (contract.SubstitutionResult, error) {
	if strings.TrimSpace(req.Ingredient) == "" {
		return contract.SubstitutionResult{}, common.NewValidationError("Ingredient is required")
	}

	raw, err := s.ai.Complete(ctx, "substitution",
		prompt.Substitution(req.Ingredient, req.Restrictions, req.Allergies))
	if err != nil {
		return contract.SubstitutionResult{}, err
	}

	checked := contract.Validate(contract.Substitution, raw)
	common.LogInfo("Substitution completed",
		zap.String("ingredient", req.Ingredient),
		zap.Int("alternatives", len(checked.Substitution.Alternatives)),
		zap.Bool("fallback", checked.Fallback() != nil),
	)
	return checked.Substitution, nil
}

// GenerationService writes a full recipe from an ingredient list.
type GenerationService struct {
	ai *aiservice.Service
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(ai *aiservice.Service) *GenerationService {
	return &GenerationService{ai: ai}
}

// Generate returns the generated recipe object or a Fallback.
func (s *GenerationService) Generate(ctx context.Context, req GenerationRequest) (contract.GenerationResult, error) {
	text := req.Text()
	if strings.TrimSpace(text) == "" {
		return contract.GenerationResult{}, common.NewValidationError("Ingredients are required")
	}

	raw, err := s.ai.Complete(ctx, "generation",
		prompt.Generation(text, req.Restrictions, req.Allergies))
	if err != nil {
		return contract.GenerationResult{}, err
	}

	checked := contract.Validate(contract.Generation, raw)
	common.LogInfo("Recipe generation completed",
		zap.String("title", checked.Generation.Recipe.Title()),
		zap.Bool("fallback", checked.Fallback() != nil),
	)
	return checked.Generation, nil
}
