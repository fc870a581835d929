package cmd

import (
	"fmt"

	"reviewero/internal/catalog"
	"reviewero/internal/config"
	"reviewero/internal/credentials"
	"reviewero/internal/httputil"
	"reviewero/internal/pipeline"
	"reviewero/internal/review"
)

// services bundles the clients built from the current configuration.
type services struct {
	store *credentials.Store
	tmdb  *catalog.TMDB
	omdb  *catalog.OMDb
	synth *review.Synthesizer
	orch  *pipeline.Orchestrator
}

// openServices opens the credential store and wires every client to it.
// Callers must call close.
func openServices() (*services, error) {
	path, err := config.CredentialsPath()
	if err != nil {
		return nil, fmt.Errorf("resolving credential store: %w", err)
	}
	store, err := credentials.Open(path)
	if err != nil {
		return nil, err
	}
	debugf("credential store: %s", store.Path())

	client := httputil.NewClient()
	omdb := catalog.NewOMDb(cfg.OMDbBase, store, client, obs)
	tmdb := catalog.NewTMDB(cfg.TMDBBase, store, client, omdb, obs)
	synth := review.New(review.Options{
		Base:        cfg.GeminiBase,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}, store, client, obs)

	return &services{
		store: store,
		tmdb:  tmdb,
		omdb:  omdb,
		synth: synth,
		orch:  pipeline.New(tmdb, synth, obs),
	}, nil
}

func (s *services) close() {
	if err := s.store.Close(); err != nil {
		debugf("closing credential store: %v", err)
	}
}
