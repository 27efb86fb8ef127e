package container

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"adlens/adapters/api"
	"adlens/adapters/excel"
	"adlens/adapters/postgres"
	"adlens/internal"
	"adlens/internal/config"
	"adlens/internal/engine"
	"adlens/internal/errors"
	"adlens/internal/knowledge"
	"adlens/ports"
)

// Container holds all application dependencies and manages their lifecycle.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB // nil when persistence is disabled

	// Core engine and collaborators
	Engine    *engine.Engine
	Knowledge ports.KnowledgeBase
	Repo      ports.ResultRepository
	Reader    ports.DataReader // nil when DATA_FILE is not configured

	// Transport
	API *api.Service

	log *internal.Logger
}

// New wires the application. Persistence is optional: with no DATABASE_URL
// the API runs stateless and the analyze endpoint simply skips saving.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	c := &Container{
		Config:    cfg,
		Knowledge: knowledge.NewStaticBase(),
		log:       internal.DefaultLogger,
	}
	c.Engine = engine.New(c.Knowledge)

	if cfg.Data.File != "" {
		c.Reader = excel.NewDataReader(cfg.Data.File)
	}

	if cfg.Database.URL != "" {
		db, err := sqlx.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return nil, errors.Wrap(err, "pinging database")
		}

		repo := postgres.NewAnalysisRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		c.DB = db
		c.Repo = repo
		c.log.Info("persistence enabled")
	} else {
		c.log.Info("DATABASE_URL not set, running without persistence")
	}

	c.API = api.NewService(c.Engine, c.Repo)
	return c, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
