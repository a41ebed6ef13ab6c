package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/deployer/internal/domain"
)

// Profile — содержимое YAML-файла конфигурации.
//
//	conf:
//	  target_dir: /tmp
//	  make_dir: /data/web
//	environments:
//	  staging:
//	    doc: Work on the staging environment
//	    user: jenkins-ci
//	    git_ref: staging
//	    roles:
//	      app: [stage-01.example.com]
type Profile struct {
	// Conf — переопределения базовой конфигурации. Пустые поля игнорируются.
	Conf ConfOverrides `yaml:"conf"`

	// Environments — дополнительные окружения.
	Environments map[string]EnvironmentProfile `yaml:"environments"`
}

// ConfOverrides — переопределения базовой конфигурации.
type ConfOverrides struct {
	Project       string `yaml:"project"`
	GitRef        string `yaml:"git_ref"`
	TargetDir     string `yaml:"target_dir"`
	MakeDir       string `yaml:"make_dir"`
	Artifact      string `yaml:"artifact"`
	CDNURL        string `yaml:"cdn_url"`
	DeployCommand string `yaml:"deploy_command"`
	PurgeCommand  string `yaml:"purge_command"`
}

// EnvironmentProfile — описание окружения в профиле.
type EnvironmentProfile struct {
	Doc    string              `yaml:"doc"`
	User   string              `yaml:"user"`
	GitRef string              `yaml:"git_ref"`
	Roles  map[string][]string `yaml:"roles"`
}

// LoadProfile читает профиль из файла.
// Отсутствующий файл не считается ошибкой: возвращается пустой профиль.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	return ParseProfile(data)
}

// ParseProfile разбирает YAML и валидирует профиль.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate проверяет окружения профиля.
func (p *Profile) Validate() error {
	for name, env := range p.Environments {
		if name == "" {
			return fmt.Errorf("%w: empty environment name", ErrInvalidProfile)
		}
		if len(env.Roles[domain.RoleApp]) == 0 {
			return fmt.Errorf("%w: environment %s has no %q hosts", ErrInvalidProfile, name, domain.RoleApp)
		}
		for role, hosts := range env.Roles {
			for _, h := range hosts {
				if h == "" {
					return fmt.Errorf("%w: environment %s role %s has an empty host", ErrInvalidProfile, name, role)
				}
			}
		}
	}
	return nil
}

// Apply накладывает переопределения на базовую конфигурацию.
func (p *Profile) Apply(env domain.Environment) domain.Environment {
	out := env.Clone()
	c := p.Conf

	setIf(&out.Project, c.Project)
	setIf(&out.GitRef, c.GitRef)
	setIf(&out.TargetDir, c.TargetDir)
	setIf(&out.MakeDir, c.MakeDir)
	setIf(&out.Artifact, c.Artifact)
	setIf(&out.CDNURL, c.CDNURL)
	setIf(&out.DeployCommand, c.DeployCommand)
	setIf(&out.PurgeCommand, c.PurgeCommand)

	return out
}

// Register добавляет окружения профиля в реестр селекторов.
func (p *Profile) Register(s *Selectors) error {
	for name, envProfile := range p.Environments {
		sel := Selector{
			Name:   name,
			Doc:    envProfile.Doc,
			Select: envProfile.selectFunc(name),
		}
		if sel.Doc == "" {
			sel.Doc = fmt.Sprintf("Work on the %s environment", name)
		}
		if err := s.Register(sel); err != nil {
			return err
		}
	}
	return nil
}

func (e EnvironmentProfile) selectFunc(name string) SelectFunc {
	return func(env domain.Environment) domain.Environment {
		out := env.Clone()
		out.Name = name
		setIf(&out.User, e.User)
		setIf(&out.GitRef, e.GitRef)
		for role, hosts := range e.Roles {
			out.SetRole(role, hosts)
		}
		return out
	}
}

func setIf(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}
