package recipe

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategory is used when a recipe is created without a category.
const DefaultCategory = "Other"

// StringList is a list of text values stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported StringList source %T", value)
	}

	return json.Unmarshal(data, l)
}

// Recipe is a user-authored recipe. Ingredients are owned by the recipe
// and kept ordered by Position.
type Recipe struct {
	ID            uuid.UUID    `gorm:"type:char(36);primaryKey" json:"id"`
	AuthorID      uuid.UUID    `gorm:"type:char(36);not null;index" json:"author_id"`
	Title         string       `gorm:"size:255;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	ImageURL      string       `gorm:"size:500" json:"image_url"`
	PrepTime      int          `gorm:"not null" json:"prep_time"`
	CookTime      int          `gorm:"not null" json:"cook_time"`
	Servings      int          `gorm:"not null" json:"servings"`
	Category      string       `gorm:"size:100;index" json:"category"`
	Instructions  StringList   `gorm:"type:json" json:"instructions"`
	Tags          StringList   `gorm:"type:json" json:"tags"`
	DietaryLabels StringList   `gorm:"type:json" json:"dietary_labels"`
	IsPublic      bool         `json:"is_public"`
	Ingredients   []Ingredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// BeforeCreate assigns an ID when none was set.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Ingredient is one line of a recipe's ingredient list. Amount is free text
// ("1/2", "to taste").
type Ingredient struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	RecipeID uuid.UUID `gorm:"type:char(36);not null;index" json:"-"`
	Position int       `gorm:"not null" json:"-"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Amount   string    `gorm:"size:50" json:"amount"`
	Unit     string    `gorm:"size:50" json:"unit"`
	Notes    string    `gorm:"type:text" json:"notes"`
}

// BeforeCreate assigns an ID when none was set.
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
