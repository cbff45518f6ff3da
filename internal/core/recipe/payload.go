package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"recipio/internal/pkg/common"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Mode selects which fields a payload must carry.
type Mode int

const (
	// ModeCreate requires every authoring field (create and full update).
	ModeCreate Mode = iota
	// ModePartial applies only the fields present (partial update).
	ModePartial
)

// IngredientPayload is one decoded ingredient entry.
type IngredientPayload struct {
	Name   string `mapstructure:"name" validate:"required,max=255"`
	Amount string `mapstructure:"amount" validate:"required,max=50"`
	Unit   string `mapstructure:"unit" validate:"max=50"`
	Notes  string `mapstructure:"notes"`
}

// RecipePayload is a schema-checked authoring payload. A nil field was not
// provided; a non-nil empty slice was provided as an empty list.
type RecipePayload struct {
	Title         *string              `mapstructure:"title" validate:"omitempty,min=1,max=255"`
	Description   *string              `mapstructure:"description" validate:"omitempty,min=1"`
	ImageURL      *string              `mapstructure:"image_url" validate:"omitempty,max=500,optional_url"`
	PrepTime      *int                 `mapstructure:"prep_time" validate:"omitempty,min=0"`
	CookTime      *int                 `mapstructure:"cook_time" validate:"omitempty,min=0"`
	Servings      *int                 `mapstructure:"servings" validate:"omitempty,min=1"`
	Category      *string              `mapstructure:"category" validate:"omitempty,max=100"`
	IsPublic      *bool                `mapstructure:"is_public"`
	Ingredients   *[]IngredientPayload `mapstructure:"ingredients" validate:"omitempty,dive"`
	Instructions  *[]string            `mapstructure:"instructions" validate:"omitempty,dive,min=1"`
	Tags          *[]string            `mapstructure:"tags" validate:"omitempty,dive,min=1,max=50"`
	DietaryLabels *[]string            `mapstructure:"dietary_labels" validate:"omitempty,dive,min=1,max=50"`
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindInt
	kindBool
	kindTextList
	kindIngredientList
)

var payloadFields = map[string]fieldKind{
	"title":          kindText,
	"description":    kindText,
	"image_url":      kindText,
	"category":       kindText,
	"prep_time":      kindInt,
	"cook_time":      kindInt,
	"servings":       kindInt,
	"is_public":      kindBool,
	"ingredients":    kindIngredientList,
	"instructions":   kindTextList,
	"tags":           kindTextList,
	"dietary_labels": kindTextList,
}

var kindMessages = map[fieldKind]string{
	kindText:           "not a valid string",
	kindInt:            "a valid integer is required",
	kindBool:           "must be a valid boolean",
	kindTextList:       "expected a list of strings",
	kindIngredientList: "expected a list of ingredient objects",
}

const (
	msgRequired = "this field is required"
	msgListText = "expected a list but got text"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("optional_url", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		u, err := url.ParseRequestURI(raw)
		return err == nil && u.Scheme != "" && u.Host != ""
	})
	return v
}

// DecodePayload schema-checks a normalized payload. Every problem is
// reported in one *common.ValidationError keyed by JSON field path.
func DecodePayload(normalized map[string]any, mode Mode) (*RecipePayload, error) {
	var p RecipePayload
	fieldErrors := make(map[string]string)

	for key, value := range normalized {
		kind, known := payloadFields[key]
		if !known {
			continue
		}
		if _, isText := value.(string); isText && (kind == kindTextList || kind == kindIngredientList) {
			fieldErrors[key] = msgListText
			continue
		}
		if err := decodeField(&p, key, value); err != nil {
			fieldErrors[key] = kindMessages[kind]
		}
	}

	if mode == ModeCreate {
		required := map[string]bool{
			"title":       p.Title != nil,
			"description": p.Description != nil,
			"prep_time":   p.PrepTime != nil,
			"cook_time":   p.CookTime != nil,
			"servings":    p.Servings != nil,
			"ingredients": p.Ingredients != nil,
		}
		for key, present := range required {
			if _, failed := fieldErrors[key]; !present && !failed {
				fieldErrors[key] = msgRequired
			}
		}
	}

	if err := validate.Struct(&p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("failed to validate payload: %w", err)
		}
		for _, e := range verrs {
			field := fieldPath(e.Namespace())
			if _, exists := fieldErrors[field]; !exists {
				fieldErrors[field] = validationMessage(e)
			}
		}
	}

	if len(fieldErrors) > 0 {
		return nil, common.NewFieldValidationError(fieldErrors)
	}
	return &p, nil
}

func decodeField(p *RecipePayload, key string, value any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textToInt,
			textToBool,
			numberToText,
		),
		Result: p,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any{key: value})
}

// textToInt accepts form-encoded ("30") and JSON-number integers.
func textToInt(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	switch v := data.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return int(i), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	}
	return data, nil
}

// textToBool accepts form-encoded booleans ("true", "0", ...).
func textToBool(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Bool {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return strconv.ParseBool(strings.TrimSpace(s))
	}
	return data, nil
}

// numberToText lets numeric amounts such as 2 or 0.5 land in text fields.
func numberToText(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	}
	return data, nil
}

// fieldPath strips the struct name from a validator namespace:
// "RecipePayload.ingredients[0].name" -> "ingredients[0].name".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationMessage(e validator.FieldError) string {
	isText := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		if isText {
			return "this field may not be blank"
		}
		return msgRequired
	case "min":
		if isText {
			if e.Param() == "1" {
				return "this field may not be blank"
			}
			return fmt.Sprintf("ensure this field has at least %s characters", e.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", e.Param())
	case "max":
		if isText {
			return fmt.Sprintf("ensure this field has no more than %s characters", e.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", e.Param())
	case "optional_url":
		return "enter a valid URL"
	default:
		return "invalid value"
	}
}
