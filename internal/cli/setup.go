package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ppiankov/glosshover/internal/cache"
	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/sirupsen/logrus"
)

var errNoGlossary = errors.New("no glossary configured: use --glossary <file> or --db <path>")

// termSource is the opened glossary plus whatever it needs released
type termSource struct {
	source    glossary.Source
	store     *glossary.Store           // set for --db
	overrides *glossary.RenderOverrides // from the glossary file, if any
}

func (s *termSource) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// openSource opens the term store when configured, else the glossary file
func openSource(cfg *model.Config, log *logrus.Logger) (*termSource, error) {
	switch {
	case cfg.Glossary.DB != "":
		store, err := glossary.OpenStore(cfg.Glossary.DB, log)
		if err != nil {
			return nil, err
		}
		log.WithField("db", cfg.Glossary.DB).Debug("using term store")
		return &termSource{source: store, store: store}, nil

	case cfg.Glossary.File != "":
		src := glossary.NewFileSource(cfg.Glossary.File)
		f, err := src.Load()
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"file":  cfg.Glossary.File,
			"terms": len(f.Terms),
		}).Debug("using glossary file")
		return &termSource{source: src, overrides: f.Render}, nil

	default:
		return nil, errNoGlossary
	}
}

// openStore opens the term store, which some commands require
func openStore(cfg *model.Config, log *logrus.Logger) (*glossary.Store, error) {
	if cfg.Glossary.DB == "" {
		return nil, fmt.Errorf("a term store is required: use --db <path>")
	}
	return glossary.OpenStore(cfg.Glossary.DB, log)
}

// openCache builds the output cache. The returned cache is nil when caching is off.
func openCache(cfg *model.Config, log *logrus.Logger) (cache.Cache, func(), error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if closer, ok := c.(io.Closer); ok {
		closeFn = func() {
			if err := closer.Close(); err != nil {
				log.WithError(err).Warn("failed to close cache")
			}
		}
	}
	if c != nil {
		log.WithField("backend", cfg.Cache.Backend).Debug("output cache enabled")
	}
	return c, closeFn, nil
}
