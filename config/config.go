// Package config loads named database connection profiles from YAML
// and renders them as driver-ready DSNs for the four supported
// backends. A profile file can be watched for changes, see Watch.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/syssam/sqlbridge/dialect"
	"github.com/syssam/sqlbridge/dialect/sql"
)

// Profile describes one named database connection. Either the
// field-wise form or URL can be used; URL wins when both are set.
type Profile struct {
	// Dialect selects the backend. Driver aliases such as "mariadb" or
	// "postgresql" are accepted.
	Dialect string `yaml:"dialect"`
	// URL is a complete connection URL or DSN, passed to the driver as
	// is. PostgreSQL URLs are normalized to the key=value form first.
	URL      string `yaml:"url,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	// Path is the database file of SQLite profiles.
	Path string `yaml:"path,omitempty"`
	// SSLMode applies to PostgreSQL and defaults to "disable".
	SSLMode string `yaml:"sslmode,omitempty"`
	// ConnectTimeout is in seconds.
	ConnectTimeout int `yaml:"connect_timeout,omitempty"`
	// Params carries extra driver parameters verbatim.
	Params map[string]string `yaml:"params,omitempty"`
}

// File is a parsed profile file: named profiles plus an optional
// default profile name.
type File struct {
	Default  string             `yaml:"default,omitempty"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads and parses a profile file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses profile YAML. Every profile must name a supported
// dialect and the default, when set, must exist.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, errors.New("config: no profiles defined")
	}
	for name, p := range f.Profiles {
		if _, ok := dialect.Normalize(p.Dialect); !ok {
			return nil, fmt.Errorf("config: profile %q: unsupported dialect %q", name, p.Dialect)
		}
	}
	if f.Default != "" {
		if _, ok := f.Profiles[f.Default]; !ok {
			return nil, fmt.Errorf("config: default profile %q not defined", f.Default)
		}
	}
	return &f, nil
}

// Profile returns the named profile. An empty name selects the
// default, or the only profile of a single-profile file.
func (f *File) Profile(name string) (Profile, error) {
	if name == "" {
		name = f.Default
	}
	if name == "" && len(f.Profiles) == 1 {
		for only := range f.Profiles {
			name = only
		}
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("config: unknown profile %q (have %s)", name, strings.Join(f.Names(), ", "))
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (f *File) Names() []string {
	out := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DriverName returns the database/sql driver name of the profile. The
// canonical dialect names match the names the bundled drivers register
// under.
func (p Profile) DriverName() string {
	d, _ := dialect.Normalize(p.Dialect)
	return d
}

// DSN renders the profile as a DSN in the form the dialect driver
// parses.
func (p Profile) DSN() (string, error) {
	d, ok := dialect.Normalize(p.Dialect)
	if !ok {
		return "", fmt.Errorf("config: unsupported dialect %q", p.Dialect)
	}
	switch d {
	case dialect.MySQL:
		return p.mysqlDSN(), nil
	case dialect.Postgres:
		return p.postgresDSN()
	case dialect.SQLServer:
		return p.sqlserverDSN(), nil
	default:
		return p.sqliteDSN()
	}
}

// Open opens a driver for the profile. Importing this package
// registers the database/sql drivers of all four dialects.
func (p Profile) Open() (*sql.Driver, error) {
	dsn, err := p.DSN()
	if err != nil {
		return nil, err
	}
	return sql.Open(p.DriverName(), dsn)
}

func (p Profile) mysqlDSN() string {
	if p.URL != "" {
		return p.URL
	}
	cfg := mysqldriver.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.host(), strconv.Itoa(p.port(3306)))
	cfg.DBName = p.Database
	// Time columns scan into time.Time instead of []byte.
	cfg.ParseTime = true
	if p.ConnectTimeout > 0 {
		cfg.Timeout = time.Duration(p.ConnectTimeout) * time.Second
	}
	if len(p.Params) > 0 {
		cfg.Params = make(map[string]string, len(p.Params))
		for k, v := range p.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

func (p Profile) postgresDSN() (string, error) {
	if p.URL != "" {
		return pq.ParseURL(p.URL)
	}
	parts := []string{
		"host=" + p.host(),
		fmt.Sprintf("port=%d", p.port(5432)),
	}
	if p.User != "" {
		parts = append(parts, "user="+p.User)
	}
	if p.Password != "" {
		parts = append(parts, "password="+p.Password)
	}
	if p.Database != "" {
		parts = append(parts, "dbname="+p.Database)
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts = append(parts, "sslmode="+sslMode)
	if p.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", p.ConnectTimeout))
	}
	for _, k := range sortedKeys(p.Params) {
		parts = append(parts, k+"="+p.Params[k])
	}
	return strings.Join(parts, " "), nil
}

func (p Profile) sqlserverDSN() string {
	if p.URL != "" {
		return p.URL
	}
	q := url.Values{}
	if p.Database != "" {
		q.Set("database", p.Database)
	}
	if p.ConnectTimeout > 0 {
		q.Set("dial timeout", strconv.Itoa(p.ConnectTimeout))
	}
	for k, v := range p.Params {
		q.Set(k, v)
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(p.host(), strconv.Itoa(p.port(1433))),
		RawQuery: q.Encode(),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

// sqliteDSN takes Path (or URL) verbatim. Params turn a bare path into
// a file: URI; paths already in URI form carry their own options.
func (p Profile) sqliteDSN() (string, error) {
	path := p.Path
	if path == "" {
		path = p.URL
	}
	if path == "" {
		return "", errors.New("config: sqlite profile requires a path")
	}
	if len(p.Params) == 0 || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	q := url.Values{}
	for k, v := range p.Params {
		q.Set(k, v)
	}
	return "file:" + path + "?" + q.Encode(), nil
}

func (p Profile) host() string {
	if p.Host == "" {
		return "localhost"
	}
	return p.Host
}

func (p Profile) port(def int) int {
	if p.Port <= 0 {
		return def
	}
	return p.Port
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
