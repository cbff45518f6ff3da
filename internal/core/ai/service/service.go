package service

import (
	"context"
	"errors"
	"time"

	"recipio/internal/core/ai/prompt"
	"recipio/internal/core/ai/provider"
	"recipio/internal/pkg/common"

	"go.uber.org/zap"
)

// Service sends prompts to the completion provider and returns the raw
// completion text. It keeps no state between calls.
type Service struct {
	provider provider.Provider
}

// NewService wraps p.
func NewService(p provider.Provider) *Service {
	return &Service{provider: p}
}

// Complete runs p in JSON mode. feature only labels the log line. Provider
// failures are returned wrapped in common.ErrProviderFailure; a cancelled or
// expired ctx is returned as common.ErrGatewayTimeout.
func (s *Service) Complete(ctx context.Context, feature string, p prompt.Prompt) (string, error) {
	start := time.Now()
	resp, err := s.provider.Generate(ctx, provider.NewRequest(p.System, p.User, true))
	common.LogAICall(feature, s.provider.GetModel(), time.Since(start), err)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", common.ErrGatewayTimeout.Wrap(err)
		}
		return "", common.ErrProviderFailure.Wrap(err)
	}

	common.LogDebug("Completion text",
		zap.String("feature", feature),
		zap.Int("length", len(resp.Content)),
	)
	return resp.Content, nil
}
