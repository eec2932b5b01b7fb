package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartclaim/internal/config"
	"smartclaim/internal/pdftext/pdftest"
	"smartclaim/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writePDF(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, pdftest.Document(lines), 0o644))
	return path
}

func TestClassifyCommand(t *testing.T) {
	policyPath := writePDF(t, "policy.pdf", "Insurance Policy", "The policyholder pays the premium every year", "Claim procedure and exclusion list")
	brochurePath := writePDF(t, "brochure.pdf", "Summer travel brochure")

	out, err := execute(t, "classify", policyPath, brochurePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\tpolicy\t")
	assert.Contains(t, lines[1], "\tnot-policy\t")
}

func TestExtractCommand(t *testing.T) {
	path := writePDF(t, "policy.pdf", "Insurance Policy")
	out, err := execute(t, "extract", path)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Page 1 ---")
	assert.Contains(t, out, "Insurance Policy")
}

func TestAskCommandWithMockProvider(t *testing.T) {
	t.Setenv("SMARTCLAIM_LLM_PROVIDERS", "mock")
	path := writePDF(t, "policy.pdf", "Insurance Policy", "The policyholder pays the premium every year")
	out, err := execute(t, "ask", "-f", path, "--active", "1", "住院怎麼賠？")
	require.NoError(t, err)
	assert.Contains(t, out, "[single]")
	assert.Contains(t, out, "模擬回覆")
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("SMARTCLAIM_TOKEN_SECRET", "cli-secret")
	out, err := execute(t, "token", "--owner", "agent-1", "--role", "agent")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "owner=agent-1 role=agent")

	c, err := session.NewIssuer("cli-secret", time.Hour).Verify(lines[1])
	require.NoError(t, err)
	assert.Equal(t, session.RoleAgent, c.Role)
	assert.True(t, c.CanImport())

	_, err = execute(t, "token", "--role", "root")
	require.Error(t, err)
}

func TestAskCommandRejectsNegativeActive(t *testing.T) {
	t.Setenv("SMARTCLAIM_LLM_PROVIDERS", "mock")
	path := writePDF(t, "policy.pdf", "Insurance Policy")
	_, err := execute(t, "ask", "-f", path, "--active=-1", "住院怎麼賠？")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--active")
}

func TestTokenCommandNeedsSecretOutsideLocal(t *testing.T) {
	t.Setenv("SMARTCLAIM_ENV", "production")
	t.Setenv("SMARTCLAIM_TOKEN_SECRET", "")
	_, err := execute(t, "token", "--owner", "agent-1", "--role", "agent")
	require.ErrorIs(t, err, config.ErrMissingTokenSecret)
}

