// Package audit emits one structured record per CLI invocation so build logs
// show which project, directory, and side outputs a run used.
//
// Paths under the user's home directory are logged with the home prefix
// replaced by "~".
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ilove8790/nextplay/internal/config"
)

// auditEntry defines an env var to include in the audit log.
type auditEntry struct {
	// key is the environment variable name.
	key string
	// path indicates the value is a filesystem path to be home-redacted.
	path bool
}

// auditKeys is the ordered list of env vars included in every audit record.
var auditKeys = []auditEntry{
	{config.EnvDir, true},
	{config.EnvProject, false},
	{config.EnvGit, true},
	{config.EnvGitTimeout, false},
	{config.EnvHistoryDB, true},
	{config.EnvMetricsFile, true},
	{config.EnvLogLevel, false},
	{config.EnvLogFormat, false},
}

// LogCommandStart emits a structured audit log entry when a CLI command begins.
// It records the command name, config file source, and operational env vars.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", orNone(redactHome(configPath))),
	}

	for _, entry := range auditKeys {
		val := os.Getenv(entry.key)
		if entry.path {
			val = redactHome(val)
		}
		attrs = append(attrs, slog.String(entry.key, valOrUnset(val)))
	}

	log.LogAttrs(context.TODO(), slog.LevelDebug, "audit: command start", attrs...)
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// orNone returns p or "none" if empty.
func orNone(p string) string {
	if p == "" {
		return "none"
	}
	return p
}

// redactHome replaces a leading home directory with "~".
func redactHome(p string) string {
	if p == "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
