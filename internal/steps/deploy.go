package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/deployer/internal/engine"
	"github.com/shaiso/deployer/internal/transport"
)

// StepTypeDeploy — тип шага deploy.
const StepTypeDeploy = "deploy"

// DeployStep выполняет Env.DeployCommand в Env.MakeDir.
type DeployStep struct {
	transport transport.Transport
}

// NewDeployStep создаёт новый DeployStep.
func NewDeployStep(tr transport.Transport) *DeployStep {
	return &DeployStep{transport: tr}
}

// Type возвращает тип шага.
func (s *DeployStep) Type() string {
	return StepTypeDeploy
}

// Plan рендерит команду deploy.
func (s *DeployStep) Plan(req *Request) ([]string, error) {
	if req.Env.MakeDir == "" {
		return nil, fmt.Errorf("%w: make_dir is not set", ErrInvalidConfig)
	}
	cmd, err := engine.RenderCommand(req.Env.DeployCommand, req.templateContext())
	if err != nil {
		return nil, fmt.Errorf("deploy command: %w", err)
	}
	return []string{cmd}, nil
}

// Execute выполняет команду deploy.
func (s *DeployStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, err
	}

	return runCommands(ctx, s.transport, req, plan)
}

// runCommands выполняет команды последовательно и останавливается на первой ошибке.
func runCommands(ctx context.Context, tr transport.Transport, req *Request, commands []string) (*Response, error) {
	resp := &Response{ExitStatus: -1}

	for _, cmd := range commands {
		resp.Commands = append(resp.Commands, cmd)

		result, err := tr.Run(ctx, req.Host, req.Env.MakeDir, cmd)
		if result != nil {
			resp.Output += result.Stdout
			resp.ExitStatus = result.ExitStatus
		} else {
			resp.ExitStatus = -1
		}
		if err != nil {
			return resp, err
		}
	}

	return resp, nil
}
