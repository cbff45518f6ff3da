package recipe

import (
	"context"
	"errors"
	"strings"

	"recipio/internal/pkg/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows ListRecipes. Zero values match everything.
type ListFilter struct {
	AuthorID uuid.UUID
	Category string
	Search   string
	// Ordering is one of OrderingFields, optionally prefixed with "-" for
	// descending. Empty means newest first.
	Ordering string
	Limit    int
	Offset   int
}

// OrderingFields are the columns ListRecipes can sort by.
var OrderingFields = []string{"created_at", "prep_time", "cook_time"}

func orderClause(ordering string) (string, bool) {
	if ordering == "" {
		return "created_at DESC", true
	}
	dir := "ASC"
	field := ordering
	if strings.HasPrefix(field, "-") {
		dir = "DESC"
		field = field[1:]
	}
	for _, f := range OrderingFields {
		if f == field {
			return field + " " + dir, true
		}
	}
	return "", false
}

// Store persists recipes and their ingredients.
type Store interface {
	// WithinTransaction runs fn against a Store bound to one transaction.
	// A non-nil error from fn rolls everything back.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error

	CreateRecipe(ctx context.Context, r *Recipe) error
	SaveRecipe(ctx context.Context, r *Recipe) error
	DeleteIngredients(ctx context.Context, recipeID uuid.UUID) error
	CreateIngredient(ctx context.Context, ing *Ingredient) error

	GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error)
	ListRecipes(ctx context.Context, filter ListFilter) ([]Recipe, error)
	DeleteRecipe(ctx context.Context, id uuid.UUID) error
}

// GormStore is the gorm implementation of Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) CreateRecipe(ctx context.Context, r *Recipe) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		return common.ErrPersistence.Wrap(err)
	}
	return nil
}

func (s *GormStore) SaveRecipe(ctx context.Context, r *Recipe) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(r).Error; err != nil {
		return common.ErrPersistence.Wrap(err)
	}
	return nil
}

func (s *GormStore) DeleteIngredients(ctx context.Context, recipeID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Delete(&Ingredient{}).Error
	if err != nil {
		return common.ErrPersistence.Wrap(err)
	}
	return nil
}

func (s *GormStore) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	if err := s.db.WithContext(ctx).Create(ing).Error; err != nil {
		return common.ErrPersistence.Wrap(err)
	}
	return nil
}

func (s *GormStore) GetRecipe(ctx context.Context, id uuid.UUID) (*Recipe, error) {
	var r Recipe
	err := s.db.WithContext(ctx).
		Preload("Ingredients", orderByPosition).
		First(&r, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.Wrap(err)
		}
		return nil, common.ErrPersistence.Wrap(err)
	}
	return &r, nil
}

func (s *GormStore) ListRecipes(ctx context.Context, filter ListFilter) ([]Recipe, error) {
	q, err := s.listQuery(ctx, filter)
	if err != nil {
		return nil, err
	}

	var recipes []Recipe
	if err := q.Preload("Ingredients", orderByPosition).Find(&recipes).Error; err != nil {
		return nil, common.ErrPersistence.Wrap(err)
	}
	return recipes, nil
}

// listQuery builds the filtered, ordered and paginated recipe query.
func (s *GormStore) listQuery(ctx context.Context, filter ListFilter) (*gorm.DB, error) {
	order, ok := orderClause(filter.Ordering)
	if !ok {
		return nil, common.NewFieldValidationError(map[string]string{
			"ordering": "unsupported ordering " + filter.Ordering,
		})
	}

	q := s.db.WithContext(ctx).Model(&Recipe{})

	if filter.AuthorID != uuid.Nil {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := containsPattern(search)
		byIngredient := s.db.Model(&Ingredient{}).
			Select("recipe_id").
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, like)
		q = q.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR `+s.tagMatch()+` OR id IN (?)`,
			like, like, like, byIngredient,
		)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	return q.Order(order), nil
}

// tagMatch matches the search pattern against single elements of the JSON
// tags column, never against its serialized form.
func (s *GormStore) tagMatch() string {
	if s.db.Dialector.Name() == "postgres" {
		return `EXISTS (SELECT 1 FROM json_array_elements_text(recipes.tags) AS tag(value) WHERE LOWER(tag.value) LIKE ? ESCAPE '\')`
	}
	return `EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into a case-insensitive LIKE substring
// pattern in which % and _ match literally.
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

func (s *GormStore) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&Ingredient{}).Error; err != nil {
			return common.ErrPersistence.Wrap(err)
		}
		res := tx.Where("id = ?", id).Delete(&Recipe{})
		if res.Error != nil {
			return common.ErrPersistence.Wrap(res.Error)
		}
		if res.RowsAffected == 0 {
			return common.ErrNotFound
		}
		return nil
	})
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
