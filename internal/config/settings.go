package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings — настройки транспорта и интеграций.
//
// Значения читаются из переменных окружения; флаги CLI их переопределяют.
type Settings struct {
	// SSHPort — порт SSH (DEPLOYER_SSH_PORT, default: 22).
	SSHPort int

	// SSHKey — путь к приватному ключу (DEPLOYER_SSH_KEY).
	SSHKey string

	// AgentSocket — сокет ssh-agent (SSH_AUTH_SOCK).
	AgentSocket string

	// KnownHosts — путь к known_hosts (DEPLOYER_KNOWN_HOSTS, default: ~/.ssh/known_hosts).
	KnownHosts string

	// InsecureHostKey — не проверять ключ хоста (DEPLOYER_INSECURE_HOST_KEY).
	InsecureHostKey bool

	// Shell — оболочка для удалённых команд (DEPLOYER_SHELL, default: /bin/bash -l -c).
	Shell string

	// DialTimeout — таймаут TCP-подключения (DEPLOYER_DIAL_TIMEOUT, 0 — без таймаута).
	DialTimeout time.Duration

	// Parallel — сколько хостов обрабатывается одновременно внутри шага (DEPLOYER_PARALLEL, default: 1).
	Parallel int

	// DBURL — DSN журнала release в PostgreSQL (DB_URL). Пусто — журнал выключен.
	DBURL string

	// RabbitMQURL — адрес RabbitMQ для событий (RABBITMQ_URL). Пусто — события выключены.
	RabbitMQURL string

	// PushgatewayURL — адрес Prometheus Pushgateway (PUSHGATEWAY_URL). Пусто — метрики не отправляются.
	PushgatewayURL string
}

// DefaultShell — оболочка, в которой выполняются удалённые команды.
const DefaultShell = "/bin/bash -l -c"

// LoadSettings читает настройки из переменных окружения.
func LoadSettings() (Settings, error) {
	var s Settings
	var err error

	if s.SSHPort, err = Int("DEPLOYER_SSH_PORT", 22); err != nil {
		return s, err
	}
	if s.InsecureHostKey, err = Bool("DEPLOYER_INSECURE_HOST_KEY", false); err != nil {
		return s, err
	}
	if s.DialTimeout, err = Duration("DEPLOYER_DIAL_TIMEOUT", 0); err != nil {
		return s, err
	}
	if s.Parallel, err = Int("DEPLOYER_PARALLEL", 1); err != nil {
		return s, err
	}

	s.SSHKey = String("DEPLOYER_SSH_KEY", "")
	s.AgentSocket = String("SSH_AUTH_SOCK", "")
	s.KnownHosts = String("DEPLOYER_KNOWN_HOSTS", defaultKnownHosts())
	s.Shell = String("DEPLOYER_SHELL", DefaultShell)
	s.DBURL = String("DB_URL", "")
	s.RabbitMQURL = String("RABBITMQ_URL", "")
	s.PushgatewayURL = String("PUSHGATEWAY_URL", "")

	return s, nil
}

func defaultKnownHosts() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.ssh/known_hosts"
}

// String возвращает значение переменной или fallback.
func String(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Int возвращает целое значение переменной или fallback.
func Int(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return n, nil
}

// Bool возвращает булево значение переменной или fallback.
func Bool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return b, nil
}

// Duration возвращает длительность из переменной или fallback.
func Duration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, v)
	}
	return d, nil
}
