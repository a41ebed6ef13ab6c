package config

import "github.com/shaiso/deployer/internal/domain"

// Значения базовой конфигурации.
const (
	DefaultProject       = "dailymotion-sdk-js"
	DefaultGitRef        = "master"
	DefaultTargetDir     = "/tmp"
	DefaultMakeDir       = "/data/web"
	DefaultArtifact      = "all.js"
	DefaultCDNURL        = "api.dmcdn.net/all.js"
	DefaultDeployCommand = `echo "deploy"`
	DefaultPurgeCommand  = `echo "{{ .URL }}" | ec_purge_small`
)

// Значения окружения prod.
const (
	ProductionName   = "prod"
	ProductionGitRef = "prod"
	ProductionUser   = "jenkins-ci"
)

// ProductionHosts — серверы роли app в prod.
var ProductionHosts = []string{
	"prov-04.adm.dc3.dailymotion.com",
}

// Base возвращает базовую конфигурацию. Окружение в ней не выбрано.
func Base() domain.Environment {
	return domain.Environment{
		Project:       DefaultProject,
		GitRef:        DefaultGitRef,
		TargetDir:     DefaultTargetDir,
		MakeDir:       DefaultMakeDir,
		Artifact:      DefaultArtifact,
		CDNURL:        DefaultCDNURL,
		DeployCommand: DefaultDeployCommand,
		PurgeCommand:  DefaultPurgeCommand,
		Roles:         make(map[string][]string),
	}
}

// SelectProduction выбирает окружение prod.
//
// Не выполняет I/O. Возвращает копию, исходный профиль не меняется.
func SelectProduction(env domain.Environment) domain.Environment {
	out := env.Clone()
	out.Name = ProductionName
	out.User = ProductionUser
	out.GitRef = ProductionGitRef
	out.SetRole(domain.RoleApp, ProductionHosts)
	return out
}
