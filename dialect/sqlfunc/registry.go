package sqlfunc

import (
	"fmt"
	"sync"

	"github.com/syssam/sqlbridge"
	"github.com/syssam/sqlbridge/dialect"
)

// Registry resolves dialect names to their function translators. Resolution
// is deterministic and cached: repeated lookups of one dialect return the
// identical translator instance. A Registry is safe for concurrent use.
//
// The registry is an explicit dependency: construct one per connection (or
// use DefaultRegistry) and pass it to the components that render SQL, so
// tests can install fakes through Register.
type Registry struct {
	mu          sync.RWMutex
	translators map[string]Translator
}

// NewRegistry returns a Registry populated with the four built-in
// translators.
func NewRegistry() *Registry {
	return &Registry{
		translators: map[string]Translator{
			dialect.MySQL:     &MySQL{},
			dialect.Postgres:  &Postgres{},
			dialect.SQLServer: &SQLServer{},
			dialect.SQLite:    &SQLite{},
		},
	}
}

// DefaultRegistry is the registry used by convenience helpers across the
// module.
var DefaultRegistry = NewRegistry()

// Translator returns the function translator for the named dialect. Driver
// and vendor aliases are accepted (mariadb, postgresql, pgx, sqlite3, mssql,
// azuresql). Unknown names, including the empty string, return an
// unsupported-dialect error: callers that want the historical silent MySQL
// fallback must opt in through Legacy.
func (r *Registry) Translator(name string) (Translator, error) {
	d, ok := dialect.Normalize(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", sqlbridge.ErrUnsupportedDialect, name)
	}
	r.mu.RLock()
	tr, ok := r.translators[d]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", sqlbridge.ErrUnsupportedDialect, name)
	}
	return tr, nil
}

// Register installs or replaces the translator for a canonical dialect name.
// It exists for tests and for callers extending the module with additional
// backends.
func (r *Registry) Register(name string, tr Translator) {
	r.mu.Lock()
	r.translators[name] = tr
	r.mu.Unlock()
}

// Legacy returns the MySQL translator from the registry. It is the
// backward-compatibility facade for call sites written before connections
// declared their backend; new code should resolve translators through
// Translator with an explicit dialect name.
func (r *Registry) Legacy() Translator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.translators[dialect.MySQL]
}
