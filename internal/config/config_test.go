package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/phillip-england/tipsheet/internal/tips"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSamePolicy(t *testing.T, want, got Policy) {
	t.Helper()
	if diff := cmp.Diff(want.Rules, got.Rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	for _, pool := range tips.Pools {
		wantFractions, gotFractions := want.Allocation.Fractions(pool), got.Allocation.Fractions(pool)
		require.Len(t, gotFractions, len(wantFractions), pool)
		for role, f := range wantFractions {
			assert.True(t, f.Equal(gotFractions[role]), "%s %s: want %s, got %s", pool, role, f, gotFractions[role])
		}
	}
	assert.True(t, want.Allocation.ServersToPoolRate.Equal(got.Allocation.ServersToPoolRate))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	policy, err := Load(filepath.Join(t.TempDir(), "policy.yaml"))
	require.NoError(t, err)
	assertSamePolicy(t, DefaultPolicy(), policy)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadEmptyYAML(t *testing.T) {
	policy, err := Load(writeFile(t, "policy.yaml", ""))
	require.NoError(t, err)
	assertSamePolicy(t, DefaultPolicy(), policy)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	for _, name := range []string{"policy.yaml", "policy.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Write(path, Default(), false))

			policy, err := Load(path)
			require.NoError(t, err)
			assertSamePolicy(t, DefaultPolicy(), policy)

			err = Write(path, Default(), false)
			require.Error(t, err)
			require.NoError(t, Write(path, Default(), true))
		})
	}
}

func TestLoadPartialYAML(t *testing.T) {
	path := writeFile(t, "policy.yml", `
dinner_cutoff: "4:00PM"
salaried: []
allocation:
  servers_to_pool_rate: 0.25
  lunch:
    Busser: 0.5
`)
	policy, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16*time.Hour, policy.Rules.DinnerCutoff)
	assert.Empty(t, policy.Rules.Salaried)
	assert.Equal(t, payroll.DefaultRules().SplitRoles, policy.Rules.SplitRoles)
	assert.Equal(t, "0.25", policy.Allocation.ServersToPoolRate.String())
	require.Len(t, policy.Allocation.Lunch, 1)
	assert.Equal(t, "0.5", policy.Allocation.Lunch["Busser"].String())
	assert.Len(t, policy.Allocation.DinnerGeneral, len(tips.DefaultAllocation().DinnerGeneral))
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "policy.toml", `
dinner_cutoff = "17:30"
split_roles = ["Busser"]

[role_aliases]
"Dish" = "Kitchen"

[[salaried]]
name = "Fay Lund"
role = "Lead"
lunch_hours = 20.0
dinner_hours = 20.0
`)
	policy, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 17*time.Hour+30*time.Minute, policy.Rules.DinnerCutoff)
	assert.Equal(t, []string{"Busser"}, policy.Rules.SplitRoles)
	assert.Equal(t, map[string]string{"Dish": "Kitchen"}, policy.Rules.RoleAliases)
	assert.Equal(t, []payroll.SalariedEmployee{{Name: "Fay Lund", Role: "Lead", LunchHours: 20, DinnerHours: 20}}, policy.Rules.Salaried)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "policy.yaml", "dinner_cutof: \"17:00\"\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "policy.toml", "dinner_cutof = \"17:00\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dinner_cutof")
}

func TestLoadValidates(t *testing.T) {
	path := writeFile(t, "policy.yaml", `
dinner_cutoff: "25:99"
salaried:
  - name: ""
    role: Kitchen
    lunch_hours: -1
allocation:
  lunch:
    Busser: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "dinner_cutoff must be a time of day")
	assert.Contains(t, msg, "salaried[0].name is required")
	assert.Contains(t, msg, "salaried[0].lunch_hours must be at least 0")
	assert.Contains(t, msg, "allocation.lunch[Busser] must be at most 1")
}

func TestEncodeYAMLIsReadable(t *testing.T) {
	data, err := Encode(Default(), false)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dinner_cutoff:")
	assert.Contains(t, string(data), "17:00")
	assert.Contains(t, string(data), "servers_to_pool_rate: 0.3")
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/conf")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvCleanupDelay, "")
	t.Setenv(EnvMaxUploadMB, "")
	t.Setenv(EnvHistoryDB, "")
	t.Setenv(EnvPolicy, "")

	s, err := SettingsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, s.Addr)
	assert.Equal(t, DefaultCleanupDelay, s.CleanupDelay)
	assert.Equal(t, int64(16<<20), s.MaxUploadBytes)
	assert.Equal(t, filepath.Join("/data", "tipsheet", "history.db"), s.HistoryPath)
	assert.Equal(t, filepath.Join("/conf", "tipsheet", "policy.yaml"), s.PolicyPath)

	t.Setenv(EnvHistoryDB, "OFF")
	t.Setenv(EnvCleanupDelay, "30s")
	s, err = SettingsFromEnv()
	require.NoError(t, err)
	assert.Empty(t, s.HistoryPath)
	assert.Equal(t, 30*time.Second, s.CleanupDelay)

	t.Setenv(EnvMaxUploadMB, "0")
	_, err = SettingsFromEnv()
	assert.Error(t, err)
}
