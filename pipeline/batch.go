package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go_imagegen/sdruntime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateBatch processes up to the configured maximum number of prompts in
// a single request. Results preserve input order.
//
// Batch generations always run at the low tier's step count with medium-tier
// prompt enhancement, trading per-image fidelity for throughput. The batch
// fails as a whole on the first item error; no partial results are returned.
func (p *Processor) GenerateBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if len(req.Prompts) == 0 {
		return nil, fmt.Errorf("%w: invalid prompts list", ErrInvalidInput)
	}
	if len(req.Prompts) > p.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: maximum %d prompts allowed per batch", ErrInvalidInput, p.cfg.MaxBatchSize)
	}

	prompts := make([]string, len(req.Prompts))
	for i, raw := range req.Prompts {
		prompt := strings.TrimSpace(raw)
		if prompt == "" {
			return nil, fmt.Errorf("%w: invalid prompts list", ErrInvalidInput)
		}
		if err := sdruntime.ValidatePrompt(prompt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		prompts[i] = prompt
	}

	steps := p.policy.Resolve(QualityLow).Steps
	guidance := p.policy.Resolve(QualityLow).GuidanceScale
	batchID := uuid.New().String()

	p.logger.Info("batch generation started",
		zap.String("batch_id", batchID),
		zap.Int("prompts", len(prompts)))

	results := make([]BatchItem, 0, len(prompts))
	for i, prompt := range prompts {
		item, err := p.generateBatchItem(ctx, batchID, i, prompt, steps, guidance)
		if err != nil {
			p.logger.Error("batch generation aborted",
				zap.String("batch_id", batchID),
				zap.Int("index", i),
				zap.Error(err))
			return nil, err
		}
		results = append(results, item)
	}

	p.logger.Info("batch generation completed",
		zap.String("batch_id", batchID),
		zap.Int("images", len(results)))
	return &BatchResult{Results: results}, nil
}

func (p *Processor) generateBatchItem(ctx context.Context, batchID string, index int, prompt string, steps int, guidance float64) (BatchItem, error) {
	id := fmt.Sprintf("%s-%d", batchID, index)
	p.notifyStarted(id, prompt)

	rec := Record{
		ID:        id,
		Prompt:    prompt,
		Quality:   QualityLow.String(),
		Width:     p.cfg.DefaultWidth,
		Height:    p.cfg.DefaultHeight,
		Steps:     steps,
		Batch:     true,
		CreatedAt: time.Now(),
	}

	item, enhanced, err := p.runBatchItem(ctx, prompt, steps, guidance)
	rec.Duration = time.Since(rec.CreatedAt)
	rec.EnhancedPrompt = enhanced
	if err != nil {
		rec.Status = StatusError
		rec.ErrorMessage = err.Error()
		p.notifyCompleted(rec)
		return BatchItem{}, err
	}

	rec.Status = StatusSuccess
	p.notifyCompleted(rec)
	return item, nil
}

func (p *Processor) runBatchItem(ctx context.Context, prompt string, steps int, guidance float64) (BatchItem, string, error) {
	enhanced, err := p.enhancer.Enhance(ctx, prompt, QualityMedium)
	if err != nil {
		return BatchItem{}, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	handle, err := p.manager.Acquire(ctx)
	if err != nil {
		return BatchItem{}, enhanced, err
	}

	genCtx := ctx
	if p.cfg.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.cfg.GenerationTimeout)
		defer cancel()
	}

	out, err := handle.Generate(genCtx, sdruntime.GenerateParams{
		Prompt:        enhanced,
		Width:         p.cfg.DefaultWidth,
		Height:        p.cfg.DefaultHeight,
		Steps:         steps,
		GuidanceScale: guidance,
		Seed:          -1,
	})
	if err != nil {
		return BatchItem{}, enhanced, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	return BatchItem{
		Prompt: prompt,
		Image:  sdruntime.EncodeBase64(out.ImageData),
	}, enhanced, nil
}
