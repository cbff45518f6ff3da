package handlers

import (
	"net/http"

	recipeService "recipio/internal/core/recipe"
	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIHandler serves the AI-assisted features. Contract violations are 200
// responses carrying a fallback body; only input and provider failures are
// errors.
type AIHandler struct {
	substitution *recipeService.SubstitutionService
	generation   *recipeService.GenerationService
}

// NewAIHandler creates an AIHandler.
func NewAIHandler(substitution *recipeService.SubstitutionService, generation *recipeService.GenerationService) *AIHandler {
	return &AIHandler{
		substitution: substitution,
		generation:   generation,
	}
}

// Substitute handles POST /recipes/substitute.
func (h *AIHandler) Substitute(c *gin.Context) {
	var req recipeService.SubstitutionRequest
	if err := c.ShouldBind(&req); err != nil {
		common.LogDebug("Invalid substitution request", zap.Error(err))
		common.RespondError(c, common.NewValidationError("Ingredient is required"))
		return
	}

	result, err := h.substitution.Substitute(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Body())
}

// GenerateRecipe handles POST /generate-recipe.
func (h *AIHandler) GenerateRecipe(c *gin.Context) {
	var req recipeService.GenerationRequest
	if err := c.ShouldBind(&req); err != nil {
		common.LogDebug("Invalid generation request", zap.Error(err))
		common.RespondError(c, common.NewValidationError("Ingredients are required"))
		return
	}

	result, err := h.generation.Generate(c.Request.Context(), req)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.Body())
}
