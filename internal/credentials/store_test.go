package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewero/internal/apperr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	for _, s := range Services {
		t.Setenv(EnvVar(s), "")
	}
	s, err := Open(filepath.Join(t.TempDir(), "nested", "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)

	v, err := s.Get(apperr.ServiceTMDB)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Set(apperr.ServiceTMDB, "  abc123  "))
	v, err = s.Get(apperr.ServiceTMDB)
	require.NoError(t, err)
	assert.Equal(t, "abc123", v)

	require.NoError(t, s.Set(apperr.ServiceTMDB, "def456"))
	assert.Equal(t, "def456", s.Key(apperr.ServiceTMDB))

	require.NoError(t, s.Set(apperr.ServiceTMDB, ""))
	assert.Empty(t, s.Key(apperr.ServiceTMDB), "empty value removes the key")
}

func TestSetUnknownService(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Set("netflix", "x"))
}

func TestReopenKeepsKeys(t *testing.T) {
	for _, svc := range Services {
		t.Setenv(EnvVar(svc), "")
	}
	path := filepath.Join(t.TempDir(), "credentials.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(apperr.ServiceGemini, "g-key"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "g-key", s.Key(apperr.ServiceGemini))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnvOverride(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Set(apperr.ServiceOMDb, "stored"))
	assert.Equal(t, "store", s.Source(apperr.ServiceOMDb))

	t.Setenv("REVIEWERO_OMDB_KEY", "from-env")
	assert.Equal(t, "from-env", s.Key(apperr.ServiceOMDb))
	assert.Equal(t, "env", s.Source(apperr.ServiceOMDb))
	assert.Equal(t, "", s.Source(apperr.ServiceGemini))
}

func TestMask(t *testing.T) {
	tests := map[string]string{
		"":                 "(not set)",
		"short":            "*****",
		"abcd1234efgh5678": "abcd********5678",
	}
	for in, want := range tests {
		assert.Equal(t, want, Mask(in), "Mask(%q)", in)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := openTestStore(t)
	require.NoError(t, src.Set(apperr.ServiceTMDB, "t"))
	require.NoError(t, src.Set(apperr.ServiceGemini, "g"))

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf))
	assert.JSONEq(t, `{"tmdb":"t","omdb":"","gemini":"g"}`, buf.String())

	dst := openTestStore(t)
	require.NoError(t, dst.Set(apperr.ServiceOMDb, "old"))
	require.NoError(t, dst.Import(&buf))
	assert.Equal(t, "t", dst.Key(apperr.ServiceTMDB))
	assert.Equal(t, "", dst.Key(apperr.ServiceOMDb), "import replaces every key")
	assert.Equal(t, "g", dst.Key(apperr.ServiceGemini))
}

func TestImportRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `tmdb=abc`},
		{"array", `["a","b","c"]`},
		{"missing field", `{"tmdb":"a","omdb":"b"}`},
		{"number", `{"tmdb":"a","omdb":"b","gemini":42}`},
		{"null", `{"tmdb":"a","omdb":null,"gemini":"c"}`},
		{"object", `{"tmdb":{"key":"a"},"omdb":"b","gemini":"c"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			require.NoError(t, s.Set(apperr.ServiceTMDB, "keep"))

			err := s.Import(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "invalid credentials file: "), err.Error())
			assert.Equal(t, "keep", s.Key(apperr.ServiceTMDB), "a rejected file must not change stored keys")
		})
	}
}

func TestParseFileIgnoresExtraFields(t *testing.T) {
	f, err := ParseFile(strings.NewReader(`{"tmdb":"a","omdb":"b","gemini":"c","comment":1}`))
	require.NoError(t, err)
	assert.Equal(t, File{TMDB: "a", OMDb: "b", Gemini: "c"}, f)

	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tmdb":"a","omdb":"b","gemini":"c"}`, string(out))
}

type validatorFunc func(ctx context.Context) error

func (f validatorFunc) Validate(ctx context.Context) error { return f(ctx) }

func TestValidateAllRunsConcurrently(t *testing.T) {
	var running, peak int32
	slow := func(err error) Validator {
		return validatorFunc(func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return err
		})
	}

	results := ValidateAll(context.Background(), map[string]Validator{
		apperr.ServiceGemini: slow(apperr.RateLimited(apperr.ServiceGemini)),
		apperr.ServiceTMDB:   slow(nil),
		apperr.ServiceOMDb:   slow(errors.New("dial tcp: timeout")),
	})

	require.Len(t, results, 3)
	assert.Equal(t, apperr.ServiceTMDB, results[0].Service)
	assert.Equal(t, apperr.ServiceOMDb, results[1].Service)
	assert.Equal(t, apperr.ServiceGemini, results[2].Service)

	assert.True(t, results[0].OK())
	assert.Equal(t, apperr.KindGeneric, apperr.KindOf(results[1].Err))
	assert.Equal(t, apperr.KindRateLimited, apperr.KindOf(results[2].Err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&peak), "all three validations should overlap")
}

func TestValidateAllSkipsMissing(t *testing.T) {
	results := ValidateAll(context.Background(), map[string]Validator{
		apperr.ServiceTMDB: validatorFunc(func(context.Context) error { return nil }),
	})
	require.Len(t, results, 1)
	assert.Equal(t, apperr.ServiceTMDB, results[0].Service)
}
