package favorites

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/vno/internal/vno/model"
)

const sample = `
servers:
  - name: Courtroom
    description: Main courtroom
    host: court.example.org
    port: 27016
  - host: 10.0.0.5
    port: 6543
`

func TestParse(t *testing.T) {
	servers, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, servers, 2)

	assert.Equal(t, model.Server{Index: 0, Name: "Courtroom", Description: "Main courtroom", Host: "court.example.org", Port: 27016}, servers[0])
	assert.Equal(t, 1, servers[1].Index)
	assert.Equal(t, "10.0.0.5:6543", servers[1].Name)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"no host":  "servers:\n  - name: x\n    port: 1\n",
		"bad port": "servers:\n  - host: h\n    port: 70000\n",
		"no port":  "servers:\n  - host: h\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("servers: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	servers, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, servers)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	servers, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, servers, 2)
}

func TestSaveAndAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "favorites.yaml")
	court := model.Server{Name: "Courtroom", Host: "court.example.org", Port: 27016}

	servers, err := Add(path, court)
	require.NoError(t, err)
	require.Len(t, servers, 1)

	servers, err = Add(path, model.Server{Name: "Duplicate", Host: "court.example.org", Port: 27016})
	require.NoError(t, err)
	assert.Len(t, servers, 1)

	servers, err = Add(path, model.Server{Name: "Lobby", Host: "lobby.example.org", Port: 27017})
	require.NoError(t, err)
	require.Len(t, servers, 2)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, servers, loaded)
	assert.Equal(t, 1, loaded[1].Index)
}

func TestSave_RejectsInvalid(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "f.yaml"), []model.Server{{Name: "x", Port: 1}})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestProperty_SavedServersLoadBack(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(rt, "n")
		servers := make([]model.Server, n)
		for i := range servers {
			servers[i] = model.Server{
				Index: i,
				Name:  rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,15}[a-z]`).Draw(rt, "name"),
				Host:  rapid.StringMatching(`[a-z]{1,10}\.example\.org`).Draw(rt, "host"),
				Port:  rapid.IntRange(1, 65535).Draw(rt, "port"),
			}
		}
		path := filepath.Join(dir, "prop.yaml")
		if err := Save(path, servers); err != nil {
			rt.Fatalf("save: %v", err)
		}
		loaded, err := Load(path)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		if len(loaded) != n {
			rt.Fatalf("loaded %d servers, want %d", len(loaded), n)
		}
		for i := range servers {
			if loaded[i] != servers[i] {
				rt.Fatalf("server %d: got %+v want %+v", i, loaded[i], servers[i])
			}
		}
	})
}
