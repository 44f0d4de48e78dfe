package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyhub/internal/bootstrap"
	"policyhub/internal/config"
	"policyhub/internal/infrastructure/http/v1/dto"
	"policyhub/pkg/logger"
)

const tenantA = "0191e3a0-7f6b-7c1e-9d2a-5b8c4e6f1a20"

// newTestCLI shares one memory-backed app across command runs.
func newTestCLI(t *testing.T) *cli {
	t.Helper()
	cfg := &config.Config{}
	cfg.Store.Backend = config.BackendMemory
	cfg.Store.Counters = config.BackendMemory
	cfg.Numbering.Timezone = "UTC"

	app, err := bootstrap.New(context.Background(), cfg, logger.NewNop(), bootstrap.Options{})
	require.NoError(t, err)

	return &cli{
		newApp: func(context.Context, bool) (*bootstrap.App, error) { return app, nil },
	}
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_CreateNextDecode(t *testing.T) {
	c := newTestCLI(t)

	out, err := run(t, c, "--tenant", tenantA, "generator", "create", "POL", "--mask", "POL-########", "--reset", "yearly")
	require.NoError(t, err, out)
	var g dto.GeneratorResponse
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "POL", g.ProductCode)
	assert.Equal(t, int64(999999), g.MaxValue)

	out, err = run(t, c, "--tenant", tenantA, "next", "POL", "-n", "3", "--raw")
	require.NoError(t, err)
	assert.Equal(t, []string{"POL-00000001", "POL-00000002", "POL-00000003"}, strings.Fields(out))

	out, err = run(t, c, "--tenant", tenantA, "decode", "POL", "POL-00000003")
	require.NoError(t, err)
	var decoded dto.DecodeResponse
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, int64(3), decoded.Value)
}

func TestCLI_UpdateAndHistory(t *testing.T) {
	c := newTestCLI(t)
	_, err := run(t, c, "--tenant", tenantA, "gen", "create", "AUTO", "--mask", "A-######", "--reset", "MONTHLY")
	require.NoError(t, err)

	_, err = run(t, c, "--tenant", tenantA, "gen", "update", "AUTO", "--mask", "AU-######", "--reset", "MONTHLY", "--expect-version", "1")
	require.NoError(t, err)

	_, err = run(t, c, "--tenant", tenantA, "gen", "update", "AUTO", "--mask", "AU-######", "--reset", "MONTHLY", "--expect-version", "1")
	assert.Error(t, err)

	out, err := run(t, c, "--tenant", tenantA, "gen", "history", "AUTO")
	require.NoError(t, err)
	var history dto.ListResponse[dto.RevisionResponse]
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Equal(t, 1, history.TotalCount)
	assert.Equal(t, "A-######", history.Items[0].Mask)
}

func TestCLI_ValidateReportsProblems(t *testing.T) {
	c := newTestCLI(t)

	out, err := run(t, c, "--tenant", tenantA, "gen", "validate", "BAD", "--mask", "NOFIELD")
	require.Error(t, err)
	assert.Contains(t, out, `"valid": false`)
	assert.Contains(t, out, "no_placeholder")

	out, err = run(t, c, "--tenant", tenantA, "gen", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalCount": 0`)
}

func TestCLI_CreateDescribesFieldErrors(t *testing.T) {
	c := newTestCLI(t)

	_, err := run(t, c, "--tenant", tenantA, "gen", "create", "BAD", "--mask", "##-##", "--reset", "DAILY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mask:")
	assert.Contains(t, err.Error(), "resetPolicy:")
}

func TestCLI_RequiresTenant(t *testing.T) {
	c := newTestCLI(t)

	_, err := run(t, c, "gen", "list")
	assert.ErrorContains(t, err, "--tenant")
}
