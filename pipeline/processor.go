package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go_imagegen/core"
	"go_imagegen/logging"
	"go_imagegen/sdruntime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Processor orchestrates single-image generation: input validation, quality
// resolution, prompt enhancement, model acquisition, generation, and
// base64 encoding of the result.
type Processor struct {
	cfg       *core.Config
	logger    *logging.Logger
	manager   *Manager
	enhancer  Enhancer
	policy    QualityPolicy
	observers []Observer
}

// NewProcessor wires together the generation pipeline components.
func NewProcessor(cfg *core.Config, logger *logging.Logger, manager *Manager, enhancer Enhancer, observers ...Observer) *Processor {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	return &Processor{
		cfg:       cfg,
		logger:    logger,
		manager:   manager,
		enhancer:  enhancer,
		policy:    NewQualityPolicy(cfg),
		observers: observers,
	}
}

// AddObserver attaches another lifecycle observer. Not safe to call once
// requests are being served.
func (p *Processor) AddObserver(o Observer) {
	p.observers = append(p.observers, o)
}

// Generate processes a single generation request end to end.
//
// Validation happens before any model resource is touched: an empty prompt
// returns ErrInvalidInput without triggering model construction. Unknown
// quality labels fall back to the medium tier rather than erroring.
func (p *Processor) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: no prompt provided", ErrInvalidInput)
	}
	if err := sdruntime.ValidatePrompt(prompt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	quality := ParseQuality(req.Quality)
	profile := p.policy.Resolve(quality)

	width, height := req.Width, req.Height
	if width <= 0 {
		width = p.cfg.DefaultWidth
	}
	if height <= 0 {
		height = p.cfg.DefaultHeight
	}

	id := uuid.New().String()
	p.notifyStarted(id, prompt)

	rec := Record{
		ID:        id,
		Prompt:    prompt,
		Quality:   quality.String(),
		Width:     width,
		Height:    height,
		Steps:     profile.Steps,
		CreatedAt: time.Now(),
	}

	result, err := p.generate(ctx, prompt, quality, profile, width, height)
	rec.Duration = time.Since(rec.CreatedAt)
	if err != nil {
		rec.Status = StatusError
		rec.ErrorMessage = err.Error()
		p.notifyCompleted(rec)
		return nil, err
	}

	rec.Status = StatusSuccess
	rec.EnhancedPrompt = result.EnhancedPrompt
	p.notifyCompleted(rec)

	p.logger.Info("generation completed",
		zap.String("id", id),
		zap.String("quality", rec.Quality),
		zap.Int("steps", rec.Steps),
		zap.Duration("duration", rec.Duration))
	return result, nil
}

// generate runs the already-validated request against the model.
func (p *Processor) generate(ctx context.Context, prompt string, quality Quality, profile QualityProfile, width, height int) (*GenerateResult, error) {
	enhanced, err := p.enhancer.Enhance(ctx, prompt, quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	handle, err := p.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	genCtx := ctx
	if p.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.cfg.GenerationTimeout)
		defer cancel()
	}

	out, err := handle.Generate(genCtx, sdruntime.GenerateParams{
		Prompt:        enhanced,
		Width:         width,
		Height:        height,
		Steps:         profile.Steps,
		GuidanceScale: profile.GuidanceScale,
		Seed:          -1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return &GenerateResult{
		Image:          sdruntime.EncodeBase64(out.ImageData),
		Prompt:         prompt,
		EnhancedPrompt: enhanced,
		Width:          out.Width,
		Height:         out.Height,
		Steps:          profile.Steps,
		Quality:        quality.String(),
	}, nil
}

func (p *Processor) notifyStarted(id, prompt string) {
	for _, o := range p.observers {
		o.GenerationStarted(id, prompt)
	}
}

func (p *Processor) notifyCompleted(rec Record) {
	for _, o := range p.observers {
		o.GenerationCompleted(rec)
	}
}
