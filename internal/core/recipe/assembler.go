package recipe

import (
	"context"
	"errors"

	"recipio/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Assembler turns authoring payloads into persisted recipes. It is the only
// writer of recipes and ingredients.
type Assembler struct {
	store Store
}

// NewAssembler creates an Assembler over store.
func NewAssembler(store Store) *Assembler {
	return &Assembler{store: store}
}

// Create validates payload and persists a new recipe owned by author, then
// its ingredients in payload order.
func (a *Assembler) Create(ctx context.Context, payload map[string]any, author uuid.UUID) (*Recipe, error) {
	p, err := DecodePayload(Normalize(payload), ModeCreate)
	if err != nil {
		return nil, err
	}

	r := &Recipe{
		AuthorID:      author,
		Category:      DefaultCategory,
		IsPublic:      true,
		Instructions:  StringList{},
		Tags:          StringList{},
		DietaryLabels: StringList{},
	}
	p.apply(r)

	err = a.store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.CreateRecipe(ctx, r); err != nil {
			return err
		}
		return createIngredients(ctx, tx, r, *p.Ingredients)
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	common.LogInfo("Recipe created",
		zap.String("recipe_id", r.ID.String()),
		zap.String("author_id", author.String()),
		zap.Int("ingredients", len(r.Ingredients)),
	)
	return r, nil
}

// Update applies payload to existing. When the payload carries
// "ingredients" (even an empty list) the whole ingredient set is replaced;
// otherwise it is left untouched. existing is only modified on success.
func (a *Assembler) Update(ctx context.Context, existing *Recipe, payload map[string]any, mode Mode) (*Recipe, error) {
	p, err := DecodePayload(Normalize(payload), mode)
	if err != nil {
		return nil, err
	}

	updated := *existing
	p.apply(&updated)

	err = a.store.WithinTransaction(ctx, func(tx Store) error {
		if err := tx.SaveRecipe(ctx, &updated); err != nil {
			return err
		}
		if p.Ingredients == nil {
			return nil
		}
		if err := tx.DeleteIngredients(ctx, updated.ID); err != nil {
			return err
		}
		return createIngredients(ctx, tx, &updated, *p.Ingredients)
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	*existing = updated
	common.LogInfo("Recipe updated",
		zap.String("recipe_id", existing.ID.String()),
		zap.Bool("ingredients_replaced", p.Ingredients != nil),
	)
	return existing, nil
}

func createIngredients(ctx context.Context, tx Store, r *Recipe, entries []IngredientPayload) error {
	created := make([]Ingredient, 0, len(entries))
	for i, entry := range entries {
		ing := Ingredient{
			RecipeID: r.ID,
			Position: i,
			Name:     entry.Name,
			Amount:   entry.Amount,
			Unit:     entry.Unit,
			Notes:    entry.Notes,
		}
		if err := tx.CreateIngredient(ctx, &ing); err != nil {
			return err
		}
		created = append(created, ing)
	}
	r.Ingredients = created
	return nil
}

// apply copies every provided field onto r.
func (p *RecipePayload) apply(r *Recipe) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.ImageURL != nil {
		r.ImageURL = *p.ImageURL
	}
	if p.PrepTime != nil {
		r.PrepTime = *p.PrepTime
	}
	if p.CookTime != nil {
		r.CookTime = *p.CookTime
	}
	if p.Servings != nil {
		r.Servings = *p.Servings
	}
	if p.Category != nil && *p.Category != "" {
		r.Category = *p.Category
	}
	if p.IsPublic != nil {
		r.IsPublic = *p.IsPublic
	}
	if p.Instructions != nil {
		r.Instructions = append(StringList{}, *p.Instructions...)
	}
	if p.Tags != nil {
		r.Tags = uniqueStrings(*p.Tags)
	}
	if p.DietaryLabels != nil {
		r.DietaryLabels = uniqueStrings(*p.DietaryLabels)
	}
}

// uniqueStrings drops repeats, keeping first occurrences in order.
func uniqueStrings(values []string) StringList {
	seen := make(map[string]struct{}, len(values))
	out := make(StringList, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func persistenceError(err error) error {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return common.ErrPersistence.Wrap(err)
}
