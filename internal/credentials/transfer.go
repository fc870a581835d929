package credentials

import (
	"encoding/json"
	"fmt"
	"io"

	"reviewero/internal/apperr"
)

// File is the export format: one string field per service.
type File struct {
	TMDB   string `json:"tmdb"`
	OMDb   string `json:"omdb"`
	Gemini string `json:"gemini"`
}

func (f File) value(service string) string {
	switch service {
	case apperr.ServiceTMDB:
		return f.TMDB
	case apperr.ServiceOMDb:
		return f.OMDb
	default:
		return f.Gemini
	}
}

// Export writes the stored keys as indented JSON.
func (s *Store) Export(w io.Writer) error {
	var f File
	var err error
	if f.TMDB, err = s.Get(apperr.ServiceTMDB); err != nil {
		return err
	}
	if f.OMDb, err = s.Get(apperr.ServiceOMDb); err != nil {
		return err
	}
	if f.Gemini, err = s.Get(apperr.ServiceGemini); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// ParseFile decodes an export. All three fields must be present and strings.
func ParseFile(r io.Reader) (File, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&raw); err != nil {
		return File{}, fmt.Errorf("invalid credentials file: %w", err)
	}

	values := make(map[string]string, len(Services))
	for _, service := range Services {
		msg, ok := raw[service]
		if !ok {
			return File{}, fmt.Errorf("invalid credentials file: missing %q", service)
		}
		var v string
		if err := json.Unmarshal(msg, &v); err != nil || string(msg) == "null" {
			return File{}, fmt.Errorf("invalid credentials file: %q must be a string", service)
		}
		values[service] = v
	}
	return File{
		TMDB:   values[apperr.ServiceTMDB],
		OMDb:   values[apperr.ServiceOMDb],
		Gemini: values[apperr.ServiceGemini],
	}, nil
}

// Import replaces the stored keys with the contents of an export. Nothing is
// written unless the whole file is valid.
func (s *Store) Import(r io.Reader) error {
	f, err := ParseFile(r)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, service := range Services {
		if err := setKey(tx, service, f.value(service)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}
