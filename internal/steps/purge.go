package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/deployer/internal/engine"
	"github.com/shaiso/deployer/internal/transport"
)

// StepTypePurge — тип шага сброса кэша CDN.
const StepTypePurge = "purge"

// PurgeStep сбрасывает кэш CDN для адреса артефакта.
//
// На каждом хосте выполняются ровно две команды: сначала для http://,
// затем для https://. Ошибка первой команды отменяет вторую.
type PurgeStep struct {
	transport transport.Transport
}

// NewPurgeStep создаёт новый PurgeStep.
func NewPurgeStep(tr transport.Transport) *PurgeStep {
	return &PurgeStep{transport: tr}
}

// Type возвращает тип шага.
func (s *PurgeStep) Type() string {
	return StepTypePurge
}

// PurgeURLs возвращает адреса для сброса: http и https.
// Схема в cdnURL, если указана, отбрасывается.
func PurgeURLs(cdnURL string) []string {
	u := cdnURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	return []string{"http://" + u, "https://" + u}
}

// Plan рендерит обе команды сброса.
func (s *PurgeStep) Plan(req *Request) ([]string, error) {
	if req.Env.MakeDir == "" {
		return nil, fmt.Errorf("%w: make_dir is not set", ErrInvalidConfig)
	}
	if req.Env.CDNURL == "" {
		return nil, fmt.Errorf("%w: cdn_url is not set", ErrInvalidConfig)
	}

	tmplCtx := req.templateContext()
	urls := PurgeURLs(req.Env.CDNURL)
	commands := make([]string, 0, len(urls))

	for _, u := range urls {
		cmd, err := engine.RenderCommand(req.Env.PurgeCommand, tmplCtx.WithURL(u))
		if err != nil {
			return nil, fmt.Errorf("purge command: %w", err)
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}

// Execute выполняет команды сброса.
func (s *PurgeStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, err
	}

	return runCommands(ctx, s.transport, req, plan)
}
