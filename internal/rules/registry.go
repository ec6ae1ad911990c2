package rules

import (
	"log/slog"
	"sync"
)

// Registry holds the current RuleBook for a rule file and swaps it whole on
// reload. Readers always see either the old book or the new one.
//
// Thread Safety: safe for concurrent use.
type Registry struct {
	path   string
	logger *slog.Logger

	mu         sync.RWMutex
	book       *RuleBook
	generation uint64
}

// NewRegistry creates an empty registry for path. Call Reload before use.
func NewRegistry(path string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{path: path, logger: logger}
}

// NewStaticRegistry wraps an already compiled book. Reload re-reads
// book.Source.
func NewStaticRegistry(book *RuleBook, logger *slog.Logger) *Registry {
	r := NewRegistry(book.Source, logger)
	r.Swap(book)
	return r
}

// Path returns the rule file the registry loads from.
func (r *Registry) Path() string { return r.path }

// Book returns the current book, or nil before the first successful load.
func (r *Registry) Book() *RuleBook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.book
}

// Generation counts successful loads.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Swap installs book as the current book.
func (r *Registry) Swap(book *RuleBook) {
	r.mu.Lock()
	r.book = book
	r.generation++
	r.mu.Unlock()
}

// Reload re-reads and compiles the rule file. On failure the previous book
// stays in place and the error is returned.
func (r *Registry) Reload() error {
	book, err := Load(r.path)
	if err != nil {
		r.logger.Warn("Rule reload failed, keeping previous rules",
			"path", r.path,
			"error", err)
		return err
	}
	r.Swap(book)
	r.logger.Info("Rules loaded",
		"path", r.path,
		"rulesets", len(book.names),
		"generation", r.Generation())
	return nil
}
