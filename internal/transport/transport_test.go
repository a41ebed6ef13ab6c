package transport

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name     string
		shell    string
		dir      string
		command  string
		expected string
	}{
		{
			name:     "shell and dir",
			shell:    "/bin/bash -l -c",
			dir:      "/data/web",
			command:  `echo "deploy"`,
			expected: `/bin/bash -l -c 'cd /data/web && echo "deploy"'`,
		},
		{
			name:     "no shell",
			dir:      "/data/web",
			command:  "ls",
			expected: "cd /data/web && ls",
		},
		{
			name:     "no dir",
			command:  "ls",
			expected: "ls",
		},
		{
			name:     "dir with spaces",
			dir:      "/data/my web",
			command:  "ls",
			expected: "cd '/data/my web' && ls",
		},
		{
			name:     "command with single quotes",
			shell:    "sh -c",
			dir:      "/d",
			command:  "echo 'x'",
			expected: `sh -c 'cd /d && echo '"'"'x'"'"''`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCommand(tt.shell, tt.dir, tt.command)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target   string
		wantUser string
		wantAddr string
	}{
		{"prov-04.adm.dc3.dailymotion.com", "jenkins-ci", "prov-04.adm.dc3.dailymotion.com:22"},
		{"root@example.com", "root", "example.com:22"},
		{"example.com:2222", "jenkins-ci", "example.com:2222"},
		{"deploy@example.com:2200", "deploy", "example.com:2200"},
		{"::1", "jenkins-ci", "[::1]:22"},
		{"[::1]:2022", "jenkins-ci", "[::1]:2022"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			user, addr := SplitTarget(tt.target, "jenkins-ci", 22)
			if user != tt.wantUser || addr != tt.wantAddr {
				t.Errorf("expected %s %s, got %s %s", tt.wantUser, tt.wantAddr, user, addr)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	err := error(&ExitError{Status: 3, Stderr: "nope"})

	if !errors.Is(err, ErrCommandFailed) {
		t.Error("ExitError should unwrap to ErrCommandFailed")
	}
	if err.Error() != "exit status 3: nope" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNewSSH_NoAuth(t *testing.T) {
	_, err := NewSSH(Config{InsecureHostKey: true})
	if !errors.Is(err, ErrNoAuthMethod) {
		t.Errorf("expected ErrNoAuthMethod, got %v", err)
	}
}

func TestNewSSH_BadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewSSH(Config{KeyFile: path, InsecureHostKey: true})
	if err == nil {
		t.Error("expected error for invalid key")
	}
}

func TestNewSSH_MissingKnownHosts(t *testing.T) {
	_, err := NewSSH(Config{
		KeyFile:    writeTestKey(t),
		KnownHosts: filepath.Join(t.TempDir(), "missing"),
	})
	if !errors.Is(err, ErrHostKey) {
		t.Errorf("expected ErrHostKey, got %v", err)
	}
}

func TestDryRun(t *testing.T) {
	d := NewDryRun("/bin/sh -c", nil)
	ctx := context.Background()

	remote, err := d.Upload(ctx, "h1", "dist/all.js", "/tmp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote != "/tmp/all.js" {
		t.Errorf("expected /tmp/all.js, got %s", remote)
	}

	if _, err := d.Run(ctx, "h1", "/data/web", "ls"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := d.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Op != "upload" || calls[1].Op != "run" || calls[1].Dir != "/data/web" {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

// writeTestKey генерирует ed25519 ключ и сохраняет его в PEM.
func writeTestKey(t *testing.T) string {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := marshalPrivateKey(priv)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
