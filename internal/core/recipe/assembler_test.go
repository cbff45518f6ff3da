package recipe

import (
	"context"
	"errors"
	"testing"

	"recipio/internal/pkg/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// formPayload is the flat shape a multipart submission produces.
func formPayload() map[string]any {
	return map[string]any{
		"title":          "T",
		"description":    "D",
		"prep_time":      "5",
		"cook_time":      "10",
		"servings":       "2",
		"category":       "Dinner",
		"ingredients":    `[{"name":"Salt","amount":"1","unit":"tsp","notes":""}]`,
		"instructions":   `["Mix"]`,
		"tags":           `[]`,
		"dietary_labels": `[]`,
	}
}

func TestCreateFromFormPayload(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(store)
	author := uuid.New()

	r, err := a.Create(context.Background(), formPayload(), author)
	require.NoError(t, err)

	require.Len(t, r.Ingredients, 1)
	assert.Equal(t, "Salt", r.Ingredients[0].Name)
	assert.Equal(t, author, r.AuthorID)
	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.True(t, r.IsPublic)
	assert.Equal(t, StringList{"Mix"}, r.Instructions)

	stored, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, stored.Ingredients, 1)
	assert.Equal(t, "Salt", stored.Ingredients[0].Name)
	assert.Equal(t, "tsp", stored.Ingredients[0].Unit)
	assert.Equal(t, 2, stored.Servings)
	assert.Equal(t, StringList{}, stored.Tags)
}

func TestCreateDefaults(t *testing.T) {
	a := NewAssembler(newTestStore(t))

	payload := formPayload()
	delete(payload, "category")
	payload["tags"] = []any{"quick", "easy", "quick"}

	r, err := a.Create(context.Background(), payload, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, r.Category)
	assert.Equal(t, StringList{"quick", "easy"}, r.Tags)
}

func TestCreateEmptyIngredients(t *testing.T) {
	a := NewAssembler(newTestStore(t))

	payload := formPayload()
	payload["ingredients"] = `[]`

	r, err := a.Create(context.Background(), payload, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, r.Ingredients)
}

func TestCreateValidationError(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(store)

	payload := formPayload()
	payload["instructions"] = "Mix it"

	_, err := a.Create(context.Background(), payload, uuid.New())
	require.True(t, common.IsValidationError(err))
	assert.Equal(t, "expected a list but got text", fieldErrors(t, err)["instructions"])

	list, err := store.ListRecipes(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateRollsBackOnIngredientFailure(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(newFailingStore(store, 2))

	payload := formPayload()
	payload["ingredients"] = `[{"name":"Salt","amount":"1"},{"name":"Pepper","amount":"1"}]`

	_, err := a.Create(context.Background(), payload, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))

	list, err := store.ListRecipes(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func createRecipe(t *testing.T, a *Assembler) *Recipe {
	t.Helper()
	payload := formPayload()
	payload["ingredients"] = []any{
		map[string]any{"name": "Salt", "amount": "1", "unit": "tsp"},
		map[string]any{"name": "Pepper", "amount": "a pinch"},
	}
	r, err := a.Create(context.Background(), payload, uuid.New())
	require.NoError(t, err)
	return r
}

func TestUpdateWithEmptyIngredients(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(store)
	r := createRecipe(t, a)

	_, err := a.Update(context.Background(), r, map[string]any{"ingredients": []any{}}, ModePartial)
	require.NoError(t, err)
	assert.Empty(t, r.Ingredients)

	stored, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Ingredients)
}

func TestUpdateWithoutIngredients(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(store)
	r := createRecipe(t, a)

	before, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)

	updated, err := a.Update(context.Background(), r, map[string]any{"title": "Renamed", "servings": "6"}, ModePartial)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 6, updated.Servings)

	after, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.Title)
	assert.Equal(t, before.Ingredients, after.Ingredients)
}

func TestUpdateReplacesIngredientsInOrder(t *testing.T) {
	store := newTestStore(t)
	a := NewAssembler(store)
	r := createRecipe(t, a)

	payload := map[string]any{
		"ingredients": `[{"name":"Oil","amount":"2","unit":"tbsp"},{"name":"Garlic","amount":"3"},{"name":"Basil","amount":"1"}]`,
	}
	_, err := a.Update(context.Background(), r, payload, ModePartial)
	require.NoError(t, err)

	stored, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, stored.Ingredients, 3)
	assert.Equal(t, "Oil", stored.Ingredients[0].Name)
	assert.Equal(t, "Garlic", stored.Ingredients[1].Name)
	assert.Equal(t, "Basil", stored.Ingredients[2].Name)
}

func TestUpdateFullModeRequiresFields(t *testing.T) {
	a := NewAssembler(newTestStore(t))
	r := createRecipe(t, a)

	_, err := a.Update(context.Background(), r, map[string]any{"title": "Only title"}, ModeCreate)
	assert.Contains(t, fieldErrors(t, err), "servings")
	assert.Equal(t, "T", r.Title)
}

func TestUpdateRollsBackOnIngredientFailure(t *testing.T) {
	store := newTestStore(t)
	r := createRecipe(t, NewAssembler(store))

	a := NewAssembler(newFailingStore(store, 2))
	payload := map[string]any{
		"title":       "Changed",
		"ingredients": `[{"name":"Oil","amount":"2"},{"name":"Garlic","amount":"3"}]`,
	}
	_, err := a.Update(context.Background(), r, payload, ModePartial)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPersistence))
	assert.Equal(t, "T", r.Title)

	stored, err := store.GetRecipe(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", stored.Title)
	require.Len(t, stored.Ingredients, 2)
	assert.Equal(t, "Salt", stored.Ingredients[0].Name)
	assert.Equal(t, "Pepper", stored.Ingredients[1].Name)
}
