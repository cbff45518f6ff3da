package recipe

import (
	"net/http"
	"strconv"
	"strings"

	"recipio/internal/api/middleware"
	recipeService "recipio/internal/core/recipe"
	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves recipe authoring endpoints.
type Handler struct {
	assembler *recipeService.Assembler
	store     recipeService.Store
}

// NewHandler creates a Handler.
func NewHandler(assembler *recipeService.Assembler, store recipeService.Store) *Handler {
	return &Handler{
		assembler: assembler,
		store:     store,
	}
}

// Create handles POST /recipes.
func (h *Handler) Create(c *gin.Context) {
	author, ok := middleware.UserID(c)
	if !ok {
		common.RespondError(c, common.ErrUnauthorized)
		return
	}

	payload, err := readPayload(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	r, err := h.assembler.Create(c.Request.Context(), payload, author)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, r)
}

// Get handles GET /recipes/:id.
func (h *Handler) Get(c *gin.Context) {
	r, err := h.load(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// List handles GET /recipes.
func (h *Handler) List(c *gin.Context) {
	filter := recipeService.ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}

	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			common.RespondError(c, common.NewFieldValidationError(map[string]string{"author": "must be a valid UUID"}))
			return
		}
		filter.AuthorID = id
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		common.RespondError(c, err)
		return
	}
	if filter.Offset, err = queryInt(c, "offset"); err != nil {
		common.RespondError(c, err)
		return
	}

	recipes, err := h.store.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

// Replace handles PUT /recipes/:id.
func (h *Handler) Replace(c *gin.Context) {
	h.update(c, recipeService.ModeCreate)
}

// Patch handles PATCH /recipes/:id.
func (h *Handler) Patch(c *gin.Context) {
	h.update(c, recipeService.ModePartial)
}

func (h *Handler) update(c *gin.Context, mode recipeService.Mode) {
	existing, err := h.loadOwned(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	payload, err := readPayload(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	r, err := h.assembler.Update(c.Request.Context(), existing, payload, mode)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /recipes/:id.
func (h *Handler) Delete(c *gin.Context) {
	existing, err := h.loadOwned(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.store.DeleteRecipe(c.Request.Context(), existing.ID); err != nil {
		common.RespondError(c, err)
		return
	}

	common.LogInfo("Recipe deleted", zap.String("recipe_id", existing.ID.String()))
	c.Status(http.StatusNoContent)
}

func (h *Handler) load(c *gin.Context) (*recipeService.Recipe, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, common.ErrNotFound
	}
	return h.store.GetRecipe(c.Request.Context(), id)
}

// loadOwned loads the recipe and checks the caller wrote it.
func (h *Handler) loadOwned(c *gin.Context) (*recipeService.Recipe, error) {
	user, ok := middleware.UserID(c)
	if !ok {
		return nil, common.ErrUnauthorized
	}

	r, err := h.load(c)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != user {
		return nil, common.ErrForbidden
	}
	return r, nil
}

// readPayload returns the request body as a flat map. JSON bodies keep
// their structure; form bodies yield text values, or a list of text for a
// repeated key.
func readPayload(c *gin.Context) (map[string]any, error) {
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return nil, common.NewValidationError("malformed multipart body")
		}
		return formValues(form.Value), nil
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, common.NewValidationError("malformed form body")
		}
		return formValues(c.Request.PostForm), nil
	default:
		var payload map[string]any
		if err := common.DecodeJSON(c.Request.Body, &payload); err != nil || payload == nil {
			return nil, common.NewValidationError("request body must be a JSON object")
		}
		return payload, nil
	}
}

func formValues(values map[string][]string) map[string]any {
	payload := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
		case 1:
			payload[key] = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			payload[key] = list
		}
	}
	return payload
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.NewFieldValidationError(map[string]string{key: "must be a non-negative integer"})
	}
	return n, nil
}
