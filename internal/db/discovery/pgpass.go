package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// PgPassEntry represents a line in .pgpass file. Every field but Password
// may be the wildcard "*".
type PgPassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Matches reports whether the entry applies to a connection
func (e PgPassEntry) Matches(host string, port int, database, user string) bool {
	return matches(e.Host, host) &&
		matches(e.Port, strconv.Itoa(port)) &&
		matches(e.Database, database) &&
		matches(e.User, user)
}

// PgPassPath returns PGPASSFILE when set, ~/.pgpass otherwise
func PgPassPath() (string, error) {
	if p := os.Getenv("PGPASSFILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pgpass"), nil
}

// ParsePgPass reads and parses a password file. A missing file yields no
// entries.
func ParsePgPass(path string) ([]PgPassEntry, error) {
	// Check file permissions on non-Windows systems
	if runtime.GOOS != "windows" {
		fileInfo, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return []PgPassEntry{}, nil
			}
			return nil, err
		}

		if perm := fileInfo.Mode().Perm(); perm&0077 != 0 {
			return nil, fmt.Errorf("%s has insecure permissions %v, must be 0600", path, perm)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []PgPassEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []PgPassEntry
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parsePgPassLine(line)
		if err != nil {
			continue
		}

		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

// parsePgPassLine parses hostname:port:database:username:password, where
// \: and \\ are escapes
func parsePgPassLine(line string) (PgPassEntry, error) {
	parts := make([]string, 0, 5)
	var current strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]

		switch {
		case escaped:
			current.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == ':':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	parts = append(parts, current.String())

	if len(parts) != 5 {
		return PgPassEntry{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}

	if parts[1] != "*" {
		p, err := strconv.Atoi(parts[1])
		if err != nil {
			return PgPassEntry{}, fmt.Errorf("invalid port: %s", parts[1])
		}
		if p < 1 || p > 65535 {
			return PgPassEntry{}, fmt.Errorf("port out of range: %d", p)
		}
	}

	return PgPassEntry{
		Host:     parts[0],
		Port:     parts[1],
		Database: parts[2],
		User:     parts[3],
		Password: parts[4],
	}, nil
}

// FindPassword looks up the password of a connection in the password
// file. The first matching line wins; "" when nothing matches.
func FindPassword(host string, port int, database, user string) string {
	path, err := PgPassPath()
	if err != nil {
		return ""
	}
	entries, err := ParsePgPass(path)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.Matches(host, port, database, user) {
			return entry.Password
		}
	}
	return ""
}

// matches checks if pattern matches value (* is wildcard)
func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
