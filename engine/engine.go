// Package engine mines free-form chat text for durable facts, persists
// them through the storage layer and renders the subset relevant to a
// new utterance as a prompt-injectable context block. Matching is
// lexical throughout; the taxonomy supplies the vocabulary.
package engine

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"memweave/storage"
	"memweave/taxonomy"
)

type Engine struct {
	Config  *Config
	Storage *storage.Manager

	tax   *taxonomy.Taxonomy
	match *matchers
	log   *log.Logger
}

type Option func(*Engine)

func New(opts ...Option) *Engine {
	e := &Engine{
		Config: newConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	// Defaults
	if e.Storage == nil {
		e.Storage = storage.NewManager()
	}
	if e.tax == nil {
		e.tax = taxonomy.Default()
	}
	if e.log == nil {
		e.log = log.NewWithOptions(os.Stderr, log.Options{
			Level:  log.WarnLevel,
			Prefix: "memweave",
		})
	}

	e.match = newMatchers(e.tax)
	return e
}

func WithStorageConn(conn any) Option {
	return func(e *Engine) {
		e.Storage = storage.NewManager()
		if err := e.Storage.Start(conn); err != nil {
			panic(err)
		}
	}
}

func WithStorage(m *storage.Manager) Option {
	return func(e *Engine) { e.Storage = m }
}

func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(e *Engine) { e.tax = t }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithRecallLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.Config.RecallLimit = n
		}
	}
}

// Taxonomy returns the active vocabulary table.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy { return e.tax }

// Build applies pending storage migrations.
func (e *Engine) Build() error {
	if e.Storage == nil {
		return ErrNoStorage
	}
	return e.Storage.Build()
}

func (e *Engine) repos() storage.Repos {
	if e.Storage == nil {
		return nil
	}
	return e.Storage.Repos()
}

var ErrNoStorage = errors.New("engine: no storage configured")
