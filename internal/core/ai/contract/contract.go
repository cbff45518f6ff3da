// Package contract checks completion text against the JSON shape a prompt
// asked for. A violation is returned as a Fallback value, never as an error.
package contract

import (
	"errors"
	"fmt"
	"strings"

	"recipio/internal/pkg/common"

	"go.uber.org/zap"
)

// FallbackMessage is the error indicator of every Fallback.
const FallbackMessage = "Failed to parse AI response"

// ExpectedAlternatives is how many substitutes the prompt asks for.
const ExpectedAlternatives = 3

// Kind names a completion contract.
type Kind int

const (
	Substitution Kind = iota
	Generation
)

func (k Kind) String() string {
	switch k {
	case Substitution:
		return "substitution"
	case Generation:
		return "generation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fallback carries completion text that broke its contract, unchanged.
type Fallback struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

func newFallback(kind Kind, raw string, cause error) *Fallback {
	common.LogWarn("Completion violated contract",
		zap.Stringer("kind", kind),
		zap.Int("raw_length", len(raw)),
		zap.Error(cause),
	)
	return &Fallback{Error: FallbackMessage, RawResponse: raw}
}

// GeneratedRecipe is the decoded generation object. Fields are not checked
// beyond being a JSON object.
type GeneratedRecipe map[string]any

// Title returns the "title" value when it is text.
func (g GeneratedRecipe) Title() string {
	title, _ := g["title"].(string)
	return title
}

// Alternative is one suggested substitute.
type Alternative struct {
	Name          string `json:"name"`
	Reason        string `json:"reason"`
	TextureImpact string `json:"texture_impact"`
}

// GenerationResult holds either Recipe or Fallback.
type GenerationResult struct {
	Recipe   GeneratedRecipe
	Fallback *Fallback
}

// Body is the value returned to API callers.
func (r GenerationResult) Body() any {
	if r.Fallback != nil {
		return r.Fallback
	}
	return r.Recipe
}

// SubstitutionResult holds either Alternatives or Fallback.
type SubstitutionResult struct {
	Alternatives []Alternative
	Fallback     *Fallback
}

// Body is the value returned to API callers.
func (r SubstitutionResult) Body() any {
	if r.Fallback != nil {
		return r.Fallback
	}
	return map[string][]Alternative{"alternatives": r.Alternatives}
}

// Result is the outcome of Validate for either contract kind.
type Result struct {
	Kind         Kind
	Generation   GenerationResult
	Substitution SubstitutionResult
}

// Fallback returns the fallback of whichever contract was checked.
func (r Result) Fallback() *Fallback {
	if r.Kind == Generation {
		return r.Generation.Fallback
	}
	return r.Substitution.Fallback
}

// Validate checks raw against the contract named by kind.
func Validate(kind Kind, raw string) Result {
	switch kind {
	case Generation:
		return Result{Kind: kind, Generation: ParseGeneration(raw)}
	default:
		return Result{Kind: Substitution, Substitution: ParseSubstitution(raw)}
	}
}

// ParseGeneration decodes the whole of raw as one JSON object. Only a
// surrounding markdown code fence is tolerated; any other text around the
// object is a violation.
func ParseGeneration(raw string) GenerationResult {
	var recipe GeneratedRecipe
	if err := common.ParseJSON(unfence(raw), &recipe); err != nil {
		return GenerationResult{Fallback: newFallback(Generation, raw, err)}
	}
	if recipe == nil {
		return GenerationResult{Fallback: newFallback(Generation, raw, errors.New("completion is not a JSON object"))}
	}
	return GenerationResult{Recipe: recipe}
}

// ParseSubstitution decodes raw and requires an "alternatives" list of
// named entries. A count other than ExpectedAlternatives is only logged.
func ParseSubstitution(raw string) SubstitutionResult {
	var body struct {
		Alternatives *[]Alternative `json:"alternatives"`
	}
	if err := common.ParseJSON(unfence(raw), &body); err != nil {
		return SubstitutionResult{Fallback: newFallback(Substitution, raw, err)}
	}
	if body.Alternatives == nil || len(*body.Alternatives) == 0 {
		return SubstitutionResult{Fallback: newFallback(Substitution, raw, errors.New(`missing "alternatives" list`))}
	}

	alternatives := *body.Alternatives
	for i, alt := range alternatives {
		if strings.TrimSpace(alt.Name) == "" {
			return SubstitutionResult{Fallback: newFallback(Substitution, raw, fmt.Errorf("alternative %d has no name", i))}
		}
	}

	if len(alternatives) != ExpectedAlternatives {
		common.LogWarn("Unexpected number of alternatives",
			zap.Int("expected", ExpectedAlternatives),
			zap.Int("got", len(alternatives)),
		)
	}
	return SubstitutionResult{Alternatives: alternatives}
}

// unfence strips a ```json ... ``` wrapper when raw is exactly one fenced
// block, and surrounding whitespace otherwise.
func unfence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	body := strings.TrimSuffix(text[3:], "```")
	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return text
	}
	if lang := strings.TrimSpace(body[:newline]); lang != "" && !strings.EqualFold(lang, "json") {
		return text
	}
	return strings.TrimSpace(body[newline+1:])
}
