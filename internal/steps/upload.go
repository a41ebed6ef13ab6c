package steps

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/shaiso/deployer/internal/transport"
)

// StepTypeUpload — тип шага копирования артефакта.
const StepTypeUpload = "upload"

// UploadStep копирует локальный артефакт в Env.TargetDir на хосте.
//
// Исходный путь не зависит от git-ссылки release.
type UploadStep struct {
	transport transport.Transport
}

// NewUploadStep создаёт новый UploadStep.
func NewUploadStep(tr transport.Transport) *UploadStep {
	return &UploadStep{transport: tr}
}

// Type возвращает тип шага.
func (s *UploadStep) Type() string {
	return StepTypeUpload
}

// Plan описывает копирование.
func (s *UploadStep) Plan(req *Request) ([]string, error) {
	if req.Env.Artifact == "" {
		return nil, fmt.Errorf("%w: artifact is not set", ErrInvalidConfig)
	}
	if req.Env.TargetDir == "" {
		return nil, fmt.Errorf("%w: target_dir is not set", ErrInvalidConfig)
	}
	remote := path.Join(req.Env.TargetDir, filepath.Base(req.Env.Artifact))
	return []string{fmt.Sprintf("put %s %s", req.Env.Artifact, remote)}, nil
}

// Execute копирует артефакт.
func (s *UploadStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, err
	}

	resp := &Response{Commands: plan, ExitStatus: -1}

	if _, err := s.transport.Upload(ctx, req.Host, req.Env.Artifact, req.Env.TargetDir); err != nil {
		return resp, err
	}

	resp.ExitStatus = 0
	return resp, nil
}
