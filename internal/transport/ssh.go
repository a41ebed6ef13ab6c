package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Config — конфигурация SSH транспорта.
type Config struct {
	// User — пользователь по умолчанию (перекрывается "user@host").
	User string

	// Port — порт по умолчанию (перекрывается "host:port").
	Port int

	// KeyFile — путь к приватному ключу без пароля.
	KeyFile string

	// AgentSocket — сокет ssh-agent.
	AgentSocket string

	// KnownHosts — путь к known_hosts.
	KnownHosts string

	// InsecureHostKey — отключить проверку ключа хоста.
	InsecureHostKey bool

	// Shell — оболочка для команд ("/bin/bash -l -c"). Пусто — команда без обёртки.
	Shell string

	// DialTimeout — таймаут подключения. 0 — без таймаута.
	DialTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// SSH — транспорт поверх SSH/SFTP.
type SSH struct {
	cfg       Config
	auth      []ssh.AuthMethod
	hostKey   ssh.HostKeyCallback
	agentConn net.Conn
	logger    *slog.Logger
}

// NewSSH подготавливает методы аутентификации и проверку ключа хоста.
// Соединения с хостами открываются только при вызове операций.
func NewSSH(cfg Config) (*SSH, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}

	s := &SSH{cfg: cfg, logger: logger}

	if cfg.KeyFile != "" {
		signer, err := loadSigner(cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		s.auth = append(s.auth, ssh.PublicKeys(signer))
	}

	if cfg.AgentSocket != "" {
		conn, err := net.Dial("unix", cfg.AgentSocket)
		if err != nil {
			logger.Warn("ssh-agent not available", "socket", cfg.AgentSocket, "error", err)
		} else {
			s.agentConn = conn
			s.auth = append(s.auth, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if len(s.auth) == 0 {
		return nil, ErrNoAuthMethod
	}

	if cfg.InsecureHostKey {
		s.hostKey = ssh.InsecureIgnoreHostKey()
	} else {
		cb, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("%w: %v", ErrHostKey, err)
		}
		s.hostKey = cb
	}

	return s, nil
}

// Close освобождает соединение с ssh-agent.
func (s *SSH) Close() error {
	if s.agentConn != nil {
		return s.agentConn.Close()
	}
	return nil
}

// Upload копирует файл по SFTP.
func (s *SSH) Upload(ctx context.Context, host, localPath, remoteDir string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUpload, localPath, err)
	}
	defer src.Close()

	client, err := s.dial(ctx, host)
	if err != nil {
		return "", err
	}
	defer client.Close()

	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	sc, err := sftp.NewClient(client)
	if err != nil {
		return "", fmt.Errorf("%w: start sftp: %v", ErrUpload, err)
	}
	defer sc.Close()

	remotePath := path.Join(remoteDir, filepath.Base(localPath))

	dst, err := sc.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrUpload, remotePath, err)
	}

	n, err := dst.ReadFrom(src)
	if err != nil {
		dst.Close()
		return "", fmt.Errorf("%w: write %s: %v", ErrUpload, remotePath, contextErr(ctx, err))
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", ErrUpload, remotePath, err)
	}

	s.logger.Debug("file uploaded", "host", host, "path", remotePath, "bytes", n)

	return remotePath, nil
}

// Run выполняет команду в отдельной SSH-сессии.
func (s *SSH) Run(ctx context.Context, host, dir, command string) (*Result, error) {
	client, err := s.dial(ctx, host)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	// Отмена контекста обрывает сессию
	stop := context.AfterFunc(ctx, func() {
		_ = session.Signal(ssh.SIGTERM)
		client.Close()
	})
	defer stop()

	full := BuildCommand(s.cfg.Shell, dir, command)
	s.logger.Debug("running remote command", "host", host, "command", full)

	runErr := session.Run(full)

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *ssh.ExitError
	switch {
	case runErr == nil:
		return result, nil
	case errors.As(runErr, &exitErr):
		result.ExitStatus = exitErr.ExitStatus()
		return result, &ExitError{Status: result.ExitStatus, Stderr: strings.TrimSpace(result.Stderr)}
	default:
		result.ExitStatus = -1
		return result, fmt.Errorf("run %q: %w", command, contextErr(ctx, runErr))
	}
}

// dial открывает SSH-соединение с учётом контекста.
func (s *SSH) dial(ctx context.Context, host string) (*ssh.Client, error) {
	user, addr := SplitTarget(host, s.cfg.User, s.cfg.Port)

	d := net.Dialer{Timeout: s.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDial, addr, err)
	}

	clientCfg := &ssh.ClientConfig{
		User:            user,
		Auth:            s.auth,
		HostKeyCallback: s.hostKey,
		Timeout:         s.cfg.DialTimeout,
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDial, addr, err)
	}

	return ssh.NewClient(c, chans, reqs), nil
}

// SplitTarget разбирает строку хоста в формате [user@]host[:port].
func SplitTarget(target, defaultUser string, defaultPort int) (user, addr string) {
	user = defaultUser
	host := target

	if i := strings.LastIndex(target, "@"); i >= 0 {
		user = target[:i]
		host = target[i+1:]
	}

	if h, p, err := net.SplitHostPort(host); err == nil {
		return user, net.JoinHostPort(h, p)
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	return user, net.JoinHostPort(host, strconv.Itoa(defaultPort))
}

func loadSigner(keyFile string) (ssh.Signer, error) {
	f, err := os.Open(keyFile)
	if err != nil {
		return nil, fmt.Errorf("open key: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse key %s: %w", keyFile, err)
	}
	return signer, nil
}

// contextErr предпочитает ошибку контекста, если операция была отменена.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
