package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/api"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/store"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "mentor.db")
}

func TestPlanGrantAndLimits(t *testing.T) {
	db := tempDB(t)

	out, err := run(t, "--db", db, "plan", "grant", "U1", "starter", "--months", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Granted starter to U1")

	out, err = run(t, "--db", db, "--json", "limits", "show", "U1")
	require.NoError(t, err)
	var status access.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, access.PlanStarter, status.Plan)
	assert.Equal(t, int64(3), status.Limits.MaxProjects)

	out, err = run(t, "--db", db, "limits", "show", "U1")
	require.NoError(t, err)
	assert.Contains(t, out, "starter")

	out, err = run(t, "--db", db, "audit", "list", "--subject", "U1")
	require.NoError(t, err)
	assert.Contains(t, out, "cli:cli")
	assert.Contains(t, out, access.ActionGrantPlan)
}

func TestPlanGrantRejectsUnknownPlan(t *testing.T) {
	_, err := run(t, "--db", tempDB(t), "plan", "grant", "U1", "gold")
	assert.Error(t, err)

	_, err = run(t, "--db", tempDB(t), "plan", "grant", "U1", "pro", "--months", "1", "--expires", "2030-01-01T00:00:00Z")
	assert.Error(t, err)
}

func TestFeatureSetAndGrantsList(t *testing.T) {
	db := tempDB(t)

	_, err := run(t, "--db", db, "feature", "set", "U1", "unlimited_ai", "--notes", "pilot")
	require.NoError(t, err)

	out, err := run(t, "--db", db, "--json", "grants", "list", "U1")
	require.NoError(t, err)
	var grants []access.Grant
	require.NoError(t, json.Unmarshal([]byte(out), &grants))
	require.Len(t, grants, 1)
	assert.Equal(t, access.FeatureUnlimitedAI, grants[0].Feature)
	assert.True(t, grants[0].Enabled)

	_, err = run(t, "--db", db, "feature", "set", "U1", "no_such_feature")
	assert.Error(t, err)
}

func TestUpgradeApprove(t *testing.T) {
	db := tempDB(t)

	ds, err := store.New(db, zerolog.Nop())
	require.NoError(t, err)
	gate := access.NewGate(access.NewSQLiteGrantStore(ds, zerolog.Nop()), nil, zerolog.Nop())
	svc := upgrade.NewService(upgrade.NewStore(ds, zerolog.Nop()), gate, nil, nil, 1, zerolog.Nop())
	req, err := svc.Request(context.Background(), "U1", access.PlanPro)
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	out, err := run(t, "--db", db, "upgrade", "list", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, req.ID)

	out, err = run(t, "--db", db, "upgrade", "approve", req.ID, "--months", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Approved "+req.ID)

	out, err = run(t, "--db", db, "--json", "limits", "show", "U1")
	require.NoError(t, err)
	assert.Contains(t, out, `"plan": "pro"`)

	_, err = run(t, "--db", db, "upgrade", "reject", req.ID)
	assert.Error(t, err, "already approved")

	_, err = run(t, "--db", db, "upgrade", "list", "--status", "bogus")
	assert.Error(t, err)
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "mentor-cli")

	out, err := run(t, "token", "issue", "U1", "--role", "admin", "--ttl", "1h")
	require.NoError(t, err)

	id, err := api.ParseToken("cli-secret", "mentor-cli", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "U1", id.Subject)
	assert.True(t, id.IsAdmin())

	_, err = run(t, "token", "issue", "U1", "--role", "root")
	assert.Error(t, err)
}

func TestCatalogCommands(t *testing.T) {
	out, err := run(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: ")

	out, err = run(t, "catalog", "stages")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), 1)
	assert.Contains(t, lines[0], "STAGE")

	_, err = run(t, "catalog", "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
