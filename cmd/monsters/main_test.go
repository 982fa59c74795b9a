package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oldSnapshot = `{
    "kerman": [
        {"nom": "Abrakleur", "type": "archimonstre", "quantite": "3", "propose": "1", "recherche": "0"},
        {"nom": "Bouftou", "type": "monstre", "quantite": "9", "propose": "0", "recherche": "0"}
    ],
    "lea": [
        {"nom": "Abrakleur", "type": "archimonstre", "quantite": "1", "propose": "0", "recherche": "1"},
        {"nom": "Craqueleur", "type": "archimonstre", "quantite": "2", "propose": "1", "recherche": "0"}
    ],
    "ghost": null
}`

const newSnapshot = `{
    "kerman": [
        {"nom": "Abrakleur", "type": "archimonstre", "quantite": "1", "propose": "0", "recherche": "0"}
    ],
    "lea": [
        {"nom": "Abrakleur", "type": "archimonstre", "quantite": "1", "propose": "0", "recherche": "1"},
        {"nom": "Craqueleur", "type": "archimonstre", "quantite": "2", "propose": "1", "recherche": "0"}
    ]
}`

type cliEnv struct {
	dir      string
	monsters string
	compare  string
	users    string
}

func setupCLI(t *testing.T) cliEnv {
	dir := t.TempDir()
	env := cliEnv{
		dir:      dir,
		monsters: filepath.Join(dir, "monsters.json"),
		compare:  filepath.Join(dir, "test.json"),
		users:    filepath.Join(dir, "users.json"),
	}
	require.NoError(t, os.WriteFile(env.monsters, []byte(oldSnapshot), 0o600))
	require.NoError(t, os.WriteFile(env.compare, []byte(newSnapshot), 0o600))

	t.Setenv("MONSTERS_FILE", env.monsters)
	t.Setenv("COMPARE_FILE", env.compare)
	t.Setenv("USERS_FILE", env.users)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_HOST", "")
	return env
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestStatsJSON(t *testing.T) {
	setupCLI(t)

	code, stdout, stderr := runCLI("stats", "-n", "1", "--format", "json")
	require.Equal(t, 0, code, stderr)

	type total struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	var got struct {
		Rare   []total `json:"rare"`
		Common []total `json:"common"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got.Rare, 1)
	assert.Equal(t, "Craqueleur", got.Rare[0].Name)
	assert.Equal(t, "Abrakleur", got.Common[0].Name)
	assert.Equal(t, 4, got.Common[0].Count)
}

func TestStatsMissingMetadata(t *testing.T) {
	setupCLI(t)

	code, stdout, stderr := runCLI("stats")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "monsters: ")
}

func TestMissingFile(t *testing.T) {
	env := setupCLI(t)
	missing := filepath.Join(env.dir, "absent.json")

	code, _, stderr := runCLI("hist", "--file", missing)
	assert.Equal(t, 1, code)
	assert.Equal(t, "monsters: no data available from "+missing+"\n", stderr)
}

func TestHist(t *testing.T) {
	setupCLI(t)

	code, stdout, stderr := runCLI("hist", "--width", "4")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Craqueleur | ## 2\nAbrakleur  | #### 4\n", stdout)
}

func TestCompare(t *testing.T) {
	setupCLI(t)

	code, stdout, stderr := runCLI("compare")
	require.Equal(t, 0, code, stderr)
	want := "Player 'kerman':\n" +
		"  Removed 2 of monster 'Abrakleur' (old: 3, new: 1)\n" +
		"  Removed 9 of monster 'Bouftou' (old: 9, new: 0)\n" +
		"\n"
	assert.Equal(t, want, stdout)

	code, stdout, _ = runCLI("compare", "-p")
	require.Equal(t, 0, code)
	assert.Equal(t, "Player 'kerman':\n  Removed monster 'Abrakleur' from the market\n\n", stdout)
}

func TestImbalanceInvalidFactor(t *testing.T) {
	setupCLI(t)

	code, _, stderr := runCLI("imbalance", "--factor", "-2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "factor")
}

func TestFindWithoutDirectory(t *testing.T) {
	setupCLI(t)

	code, stdout, stderr := runCLI("find-researching", "abra")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Abrakleur - metamob: lea - no data\n", stdout)
}

func TestRefreshUsersAdd(t *testing.T) {
	env := setupCLI(t)

	code, stdout, stderr := runCLI("refresh-users", "--add", "kerman,lea")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Added users: kerman, lea\n", stdout)

	raw, err := os.ReadFile(env.users)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kerman": {}`)

	code, stdout, _ = runCLI("refresh-users", "--add", "lea")
	require.Equal(t, 0, code)
	assert.Equal(t, "No new users to add.\n", stdout)
}

func TestUnknownFormat(t *testing.T) {
	setupCLI(t)

	code, _, stderr := runCLI("hist", "--format", "yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown format")
}

func TestInvalidTimestamp(t *testing.T) {
	setupCLI(t)

	code, _, stderr := runCLI("history", "Abrakleur", "--from", "last week")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "RFC 3339")
}
