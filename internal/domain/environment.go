package domain

import "slices"

// RoleApp — роль серверов приложения, на которые выкладывается артефакт.
const RoleApp = "app"

// HostGroup — именованная группа хостов (роль).
//
// Шаг release выполняется один раз на каждый хост группы.
type HostGroup struct {
	// Role — имя роли, например "app".
	Role string `json:"role"`

	// Hosts — адреса хостов.
	Hosts []string `json:"hosts"`
}

// Len возвращает количество хостов в группе.
func (g HostGroup) Len() int {
	return len(g.Hosts)
}

// Environment — профиль окружения, выбранный перед запуском release.
//
// Профиль строится селектором (например, config.SelectProduction) и
// явно передаётся в orchestrator. Глобального состояния нет.
type Environment struct {
	// Name — имя окружения ("prod"). Пустое имя означает, что окружение не выбрано.
	Name string `json:"name" yaml:"name"`

	// Project — имя проекта.
	Project string `json:"project" yaml:"project"`

	// GitRef — git-ссылка окружения (информационное поле).
	GitRef string `json:"git_ref" yaml:"git_ref"`

	// TargetDir — удалённая директория, куда копируется артефакт.
	TargetDir string `json:"target_dir" yaml:"target_dir"`

	// MakeDir — удалённая рабочая директория для deploy и purge.
	MakeDir string `json:"make_dir" yaml:"make_dir"`

	// User — пользователь, от имени которого выполняются удалённые команды.
	User string `json:"user" yaml:"user"`

	// Artifact — локальный путь к собранному артефакту.
	Artifact string `json:"artifact" yaml:"artifact"`

	// CDNURL — адрес артефакта на CDN без схемы ("api.dmcdn.net/all.js").
	CDNURL string `json:"cdn_url" yaml:"cdn_url"`

	// DeployCommand — шаблон команды deploy.
	DeployCommand string `json:"deploy_command" yaml:"deploy_command"`

	// PurgeCommand — шаблон команды сброса кэша CDN.
	// В шаблоне доступен {{ .URL }}.
	PurgeCommand string `json:"purge_command" yaml:"purge_command"`

	// Roles — группы хостов по ролям.
	Roles map[string][]string `json:"roles" yaml:"roles"`
}

// IsSelected сообщает, выбрано ли окружение.
func (e *Environment) IsSelected() bool {
	return e != nil && e.Name != ""
}

// Group возвращает группу хостов для роли. Повторы хоста отбрасываются,
// порядок первого вхождения сохраняется.
func (e *Environment) Group(role string) HostGroup {
	return HostGroup{Role: role, Hosts: uniqueHosts(e.Roles[role])}
}

// SetRole заменяет список хостов роли.
func (e *Environment) SetRole(role string, hosts []string) {
	if e.Roles == nil {
		e.Roles = make(map[string][]string)
	}
	e.Roles[role] = uniqueHosts(hosts)
}

// uniqueHosts возвращает копию hosts без повторов.
func uniqueHosts(hosts []string) []string {
	if hosts == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// Clone возвращает глубокую копию профиля.
func (e Environment) Clone() Environment {
	out := e
	if e.Roles != nil {
		out.Roles = make(map[string][]string, len(e.Roles))
		for role, hosts := range e.Roles {
			out.Roles[role] = slices.Clone(hosts)
		}
	}
	return out
}
