package database

import (
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const applicationName = "studyhub"

var errMissingCredentials = errors.New("database configuration requires user and database name")

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(gormmysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// buildPostgresDSN renders a libpq keyword/value connection string. Extra
// options are appended in key order after the connection fields.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errMissingCredentials
	}

	host, port := endpoint(cfg, "localhost", 5432)
	pairs := [][2]string{
		{"host", host},
		{"port", strconv.Itoa(port)},
		{"user", cfg.User},
		{"dbname", cfg.Name},
	}
	if cfg.Password != "" {
		pairs = append(pairs, [2]string{"password", cfg.Password})
	}

	options := withDefaults(cfg.Options, map[string]string{
		"sslmode":          "disable",
		"application_name": applicationName,
	})
	for _, key := range sortedKeys(options) {
		pairs = append(pairs, [2]string{key, options[key]})
	}

	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		parts[i] = pair[0] + "=" + quoteLibpq(pair[1])
	}
	return strings.Join(parts, " "), nil
}

// buildMySQLDSN relies on the driver's own formatter so escaping and
// parameter encoding match what the driver parses back.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errMissingCredentials
	}

	host, port := endpoint(cfg, "127.0.0.1", 3306)

	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = withDefaults(cfg.Options, map[string]string{"charset": "utf8mb4"})

	return mc.FormatDSN(), nil
}

func endpoint(cfg Config, defaultHost string, defaultPort int) (string, int) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	return host, port
}

func withDefaults(options, defaults map[string]string) map[string]string {
	merged := make(map[string]string, len(options)+len(defaults))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range options {
		merged[key] = value
	}
	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// quoteLibpq wraps values containing spaces or quotes, as libpq requires.
func quoteLibpq(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
