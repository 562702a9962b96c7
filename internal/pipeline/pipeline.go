// Package pipeline routes inbound tracking messages to the right modality
// handler, runs the extraction dispatcher, and renders replies.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"biotrack/internal/domain"
	"biotrack/internal/metrics"
)

// Pipeline consumes inbound messages from the bus, processes each to
// completion, and sends the rendered reply back through the bus. Every
// invocation owns its message and result exclusively, so workers need no
// coordination.
type Pipeline struct {
	dispatcher  *Dispatcher
	transcriber domain.Transcriber
	vision      domain.Vision
	media       domain.MediaResolver
	bus         domain.MessageBus

	aiTimeout        time.Duration
	transportTimeout time.Duration
	workers          int
	statusText       string
	logger           *slog.Logger
}

type Config struct {
	Dispatcher       *Dispatcher
	Transcriber      domain.Transcriber
	Vision           domain.Vision
	Media            domain.MediaResolver
	Bus              domain.MessageBus
	AITimeout        time.Duration
	TransportTimeout time.Duration
	Workers          int
	StatusText       string
	Logger           *slog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = 30 * time.Second
	}
	if cfg.TransportTimeout <= 0 {
		cfg.TransportTimeout = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	return &Pipeline{
		dispatcher:       cfg.Dispatcher,
		transcriber:      cfg.Transcriber,
		vision:           cfg.Vision,
		media:            cfg.Media,
		bus:              cfg.Bus,
		aiTimeout:        cfg.AITimeout,
		transportTimeout: cfg.TransportTimeout,
		workers:          cfg.Workers,
		statusText:       cfg.StatusText,
		logger:           cfg.Logger,
	}
}

// Run starts the worker pool and blocks until ctx is cancelled or the bus
// closes.
func (p *Pipeline) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pipeline) worker(ctx context.Context) {
	inbound := p.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			reply := p.Process(ctx, msg)
			if reply == "" {
				continue
			}
			p.bus.SendOutbound(domain.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: reply,
				Format:  "markdown",
			})
		}
	}
}

// Process handles one message start to finish and returns the reply text.
// Exactly one modality path runs per message. Errors never escape: every
// failure surfaces as a structured reply.
func (p *Pipeline) Process(ctx context.Context, msg domain.InboundMessage) string {
	modality := msg.Modality()
	metrics.ForModality(string(modality)).Inc()

	p.logger.Info("processing message",
		"chat", msg.ChatID,
		"modality", modality,
	)

	switch modality {
	case domain.ModalityCommand:
		return CommandReply(ParseCommand(msg.Text), p.statusText)
	case domain.ModalityPhoto:
		return p.processPhoto(ctx, msg)
	case domain.ModalityVoice:
		return p.processVoice(ctx, msg)
	case domain.ModalityText:
		res := p.dispatcher.Dispatch(ctx, msg.Text)
		p.count(res)
		return PresentResult(res, domain.ModalityText, "")
	}

	return fallbackReply
}

// processPhoto resolves the highest-resolution photo, asks the vision
// collaborator for itemized prose, and structures it with the
// deterministic parser. Vision output never goes through JSON extraction.
func (p *Pipeline) processPhoto(ctx context.Context, msg domain.InboundMessage) string {
	ref, _ := msg.BestPhoto()

	img, err := p.resolveMedia(ctx, ref)
	if err != nil {
		res := domain.FailedResult(domain.IntentMeal, "", err)
		p.count(res)
		return PresentResult(res, domain.ModalityPhoto, msg.Text)
	}

	vctx, cancel := context.WithTimeout(ctx, p.aiTimeout)
	defer cancel()

	start := time.Now()
	prose, err := p.vision.DescribeMeal(vctx, img, "image/jpeg")
	metrics.CollaboratorLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		res := domain.FailedResult(domain.IntentMeal, "", err)
		p.count(res)
		return PresentResult(res, domain.ModalityPhoto, msg.Text)
	}

	res := p.dispatcher.DispatchVision(prose)
	p.count(res)
	return PresentResult(res, domain.ModalityPhoto, msg.Text)
}

func (p *Pipeline) processVoice(ctx context.Context, msg domain.InboundMessage) string {
	audio, err := p.resolveMedia(ctx, msg.Voice.Ref)
	if err != nil {
		res := domain.FailedResult(domain.IntentOther, "", err)
		p.count(res)
		return PresentResult(res, domain.ModalityVoice, "")
	}

	tctx, cancel := context.WithTimeout(ctx, p.aiTimeout)
	defer cancel()

	start := time.Now()
	transcript, err := p.transcriber.Transcribe(tctx, bytes.NewReader(audio), "voice.ogg")
	metrics.CollaboratorLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		res := domain.FailedResult(domain.IntentOther, "", err)
		p.count(res)
		return PresentResult(res, domain.ModalityVoice, "")
	}

	res := p.dispatcher.Dispatch(ctx, transcript)
	p.count(res)
	return PresentResult(res, domain.ModalityVoice, "")
}

func (p *Pipeline) resolveMedia(ctx context.Context, ref domain.MediaRef) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.transportTimeout)
	defer cancel()

	data, err := p.media.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMediaUnavailable, err)
	}
	return data, nil
}

func (p *Pipeline) count(res domain.ExtractionResult) {
	if res.Success {
		metrics.ExtractionsOK.Inc()
	} else {
		metrics.ExtractionsFailed.Inc()
	}
}
