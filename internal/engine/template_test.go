package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/deployer/internal/domain"
)

func testEnv() *domain.Environment {
	return &domain.Environment{
		Name:    "prod",
		Project: "dailymotion-sdk-js",
		MakeDir: "/data/web",
	}
}

func TestRender(t *testing.T) {
	ctx := NewContext(testEnv(), "host-1", "v1").WithURL("http://api.dmcdn.net/all.js")

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "no template",
			template: `echo "deploy"`,
			expected: `echo "deploy"`,
		},
		{
			name:     "safe url stays unquoted",
			template: `echo {{ quote .URL }} | ec_purge_small`,
			expected: `echo http://api.dmcdn.net/all.js | ec_purge_small`,
		},
		{
			name:     "env fields",
			template: `make -C {{ .Env.MakeDir }} {{ .Env.Project }}`,
			expected: `make -C /data/web dailymotion-sdk-js`,
		},
		{
			name:     "host and ref",
			template: `echo {{ .Host }} {{ .Ref }}`,
			expected: `echo host-1 v1`,
		},
		{
			name:     "default",
			template: `{{ default "master" "" }}`,
			expected: `master`,
		},
		{
			name:     "upper",
			template: `{{ upper .Env.Name }}`,
			expected: `PROD`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func mustRender(t *testing.T, tmpl string, ctx *Context) string {
	t.Helper()
	result, err := Render(tmpl, ctx)
	if err != nil {
		t.Fatalf("render %q: %v", tmpl, err)
	}
	return result
}

func TestRender_QuoteEscapes(t *testing.T) {
	ctx := NewContext(testEnv(), "h", "x'; rm -rf /")
	got := mustRender(t, `echo {{ quote .Ref }}`, ctx)
	want := `echo 'x'"'"'; rm -rf /'`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRender_Errors(t *testing.T) {
	ctx := NewContext(testEnv(), "h", "")

	_, err := Render(`{{ .Unknown`, ctx)
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}

	_, err = Render(`{{ .Nope }}`, ctx)
	if !errors.Is(err, ErrTemplateRender) {
		t.Errorf("expected ErrTemplateRender, got %v", err)
	}
}

func TestRenderCommand_Empty(t *testing.T) {
	ctx := NewContext(testEnv(), "h", "")

	_, err := RenderCommand(`{{ .Ref }}  `, ctx)
	if !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("expected ErrEmptyCommand, got %v", err)
	}
}

func TestWithURL_DoesNotMutate(t *testing.T) {
	ctx := NewContext(testEnv(), "h", "")
	_ = ctx.WithURL("http://x")
	if ctx.URL != "" {
		t.Error("WithURL should return a copy")
	}
}
