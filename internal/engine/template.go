package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"

	"github.com/shaiso/deployer/internal/domain"
)

// Context — контекст для рендеринга команд.
//
// Доступ из шаблона:
//   - {{ .Env.MakeDir }}, {{ .Env.Project }} — выбранное окружение
//   - {{ .Host }} — текущий хост
//   - {{ .URL }} — адрес для сброса кэша (только purge)
//   - {{ .Ref }} — git-ссылка release
type Context struct {
	Env  *domain.Environment
	Host string
	URL  string
	Ref  string
}

// NewContext создаёт контекст для хоста.
func NewContext(env *domain.Environment, host, ref string) *Context {
	return &Context{Env: env, Host: host, Ref: ref}
}

// WithURL возвращает копию контекста с URL.
func (c *Context) WithURL(url string) *Context {
	out := *c
	out.URL = url
	return &out
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// quote — экранирует значение для POSIX shell
	"quote": shellescape.Quote,

	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если второй аргумент пустой
	"default": func(def, val string) string {
		if val == "" {
			return def
		}
		return val
	},

	"join":    func(sep string, items []string) string { return strings.Join(items, sep) },
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"trim":    strings.TrimSpace,
	"replace": strings.ReplaceAll,
}

// Render рендерит шаблон команды с контекстом.
func Render(tmpl string, ctx *Context) (string, error) {
	// Строка без шаблонных выражений возвращается как есть
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Option("missingkey=error").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderCommand рендерит шаблон и проверяет, что команда не пустая.
func RenderCommand(tmpl string, ctx *Context) (string, error) {
	cmd, err := Render(tmpl, ctx)
	if err != nil {
		return "", err
	}
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return "", ErrEmptyCommand
	}
	return cmd, nil
}
