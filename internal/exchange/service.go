package exchange

import (
	"context"
	"fmt"
	"time"

	"eduglobe/internal/conversation"
	"eduglobe/internal/gemini"
	"eduglobe/internal/translation"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service runs one request through normalize, generate, localize and the
// optional title step. It keeps no state between requests.
type Service struct {
	translator	translation.Translator
	generator	gemini.Generator
	configured	bool
	timeout		time.Duration
}

func NewService(translator translation.Translator, generator gemini.Generator, configured bool, timeout time.Duration) *Service {
	return &Service{
		translator:	translator,
		generator:	generator,
		configured:	configured,
		timeout:	timeout,
	}
}

func (s *Service) Configured() bool {
	return s.configured
}

func (s *Service) Exchange(ctx context.Context, req *Request) (*Response, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := logrus.WithFields(logrus.Fields{
		"language":	string(req.Language),
		"history":	len(req.history()),
	})

	state := StateReceived
	fail := func(err error) (*Response, error) {
		log.WithField("state", state.String()).Errorf("Запрос завершился ошибкой: %v", err)
		state = StateErrored
		return nil, err
	}

	turns, err := s.normalize(ctx, req)
	if err != nil {
		return fail(err)
	}
	state = StateNormalized

	reply, err := s.generator.GenerateReply(ctx, turns, req.Language.SystemPrompt())
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrGeneration, err))
	}
	state = StateGenerated

	localized := s.translator.Translate(ctx, reply, req.Language)
	state = StateLocalized

	resp := &Response{ChatResponse: localized}
	if req.GenerateName || req.firstUserTurn() {
		title := s.generator.GenerateTitle(ctx, req.Text, req.Language)
		resp.ChatName = &title
		state = StateTitled
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	state = StateResponded
	log.WithField("state", state.String()).Debug("Ответ сформирован")
	return resp, nil
}

// normalize translates every USER turn and the new text to the pivot
// language in parallel. AI turns pass through. Result order follows history.
func (s *Service) normalize(ctx context.Context, req *Request) ([]conversation.Turn, error) {
	history := req.history()
	turns := make([]conversation.Turn, len(history)+1)

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range history {
		turns[i] = conversation.Turn{Role: m.Role, Text: m.Text}
		if m.Role != conversation.RoleUser {
			continue
		}
		source := m.Language
		if source == "" {
			source = req.Language
		}
		g.Go(func() error {
			turns[i].Text = s.translator.ToPivot(gctx, m.Text, source)
			return nil
		})
	}

	last := len(history)
	turns[last] = conversation.Turn{Role: conversation.RoleUser}
	g.Go(func() error {
		turns[last].Text = s.translator.ToPivot(gctx, req.Text, req.Language)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}
