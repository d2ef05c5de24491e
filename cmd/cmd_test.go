package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cbot-lab/cbot/internal/auth"
)

// run executes the root command with args against a fresh output buffer.
// Persistent flags keep values between runs, so callers pass them all.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func adminEnv(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("CBOT_ADMIN_SECRET_HASH", string(hash))
	t.Setenv("CBOT_ADMIN_SECRET", "")
	t.Setenv("CBOT_LLM_PROVIDER", "")
	return filepath.Join(t.TempDir(), "cbot.db")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cbot (devel)\n", out)
}

func TestHashSecret(t *testing.T) {
	out, err := run(t, "admin", "hash-secret", "open sesame")
	require.NoError(t, err)
	gate := auth.NewGate(strings.TrimSpace(out))
	assert.True(t, gate.CheckCredential("open sesame"))
}

func TestRosterCommands(t *testing.T) {
	db := adminEnv(t)
	common := []string{"--store", "sqlite", "--db", db, "--admin-secret", "s3cret"}

	_, err := run(t, append([]string{"lobby", "add", "--name", "North Shed", "--code", "ns01"}, common...)...)
	require.NoError(t, err)

	_, err = run(t, append([]string{"crew", "add", "--member-id", "lp042", "--name", "R. Kumar", "--lobby", "NS01", "--rank", "lp"}, common...)...)
	require.NoError(t, err)

	out, err := run(t, append([]string{"lobby", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "NS01")
	assert.Contains(t, out, "North Shed")

	out, err = run(t, append([]string{"crew", "list", "--lobby", "ns01"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "LP042")

	_, err = run(t, append([]string{"lobby", "remove", "NS01"}, common...)...)
	assert.ErrorContains(t, err, "still has 1 crew member")
}

func TestAdminSecretRequired(t *testing.T) {
	db := adminEnv(t)
	_, err := run(t, "lobby", "add", "--name", "South", "--code", "S1",
		"--store", "sqlite", "--db", db, "--admin-secret", "wrong")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestPatternImportAndAttemptsExport(t *testing.T) {
	db := adminEnv(t)
	common := []string{"--store", "sqlite", "--db", db, "--admin-secret", "s3cret"}

	dir := t.TempDir()
	patternFile := filepath.Join(dir, "pattern.json")
	require.NoError(t, os.WriteFile(patternFile, []byte(`{
		"title": "Signals refresher",
		"totalDurationMinutes": 10,
		"totalMarks": 5,
		"sections": [{"name": "Signals", "questionCount": 2, "marksPerQuestion": 2,
			"topics": ["Signals"], "conceptInterpretationCount": 2}],
		"difficultyDistribution": {"mediumPercentage": 100}
	}`), 0o600))

	out, err := run(t, append([]string{"pattern", "import", patternFile}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "totalMarks is 5 but sections add up to 4")
	assert.Contains(t, out, "no Scenario or Authority questions are drawn")
	assert.Contains(t, out, `Imported "Signals refresher"`)

	out, err = run(t, append([]string{"pattern", "list"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Signals refresher")

	xlsx := filepath.Join(dir, "out.xlsx")
	out, err = run(t, append([]string{"attempts", "export", "--out", xlsx}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 0 attempt(s)")
	_, err = os.Stat(xlsx)
	assert.NoError(t, err)
}
