package tipsheetcli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phillip-england/tipsheet/internal/config"
	"github.com/phillip-england/tipsheet/internal/history"
	"github.com/phillip-england/tipsheet/internal/report"
	"github.com/phillip-england/tipsheet/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const hoursCSV = `First,Last,Role,In Time,Out Time,Regular hours
Ana,Diaz,Server,5:00PM,10:00PM,5
Ben,Cole,Busser,11:00AM,2:00PM,3
`

const tipsCSV = `Tip Report
,Total Allocated General Pool,100,200
,Server Contribution to General Pool,,50
,Less Server Cash & CC Tips,,300
`

type testEnv struct {
	dir       string
	historyDB string
	out       bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir()}
	env.historyDB = filepath.Join(env.dir, "history.db")
	t.Setenv(config.EnvHistoryDB, env.historyDB)
	t.Setenv(config.EnvPolicy, filepath.Join(env.dir, "policy.yaml"))
	t.Setenv(config.EnvLogLevel, "info")
	t.Setenv(config.EnvAccessHash, "")
	t.Setenv(config.EnvCleanupDelay, "")
	t.Setenv(config.EnvMaxUploadMB, "")
	return env
}

func (e *testEnv) run(args ...string) error {
	e.out.Reset()
	a := &app{stdout: &e.out, stderr: &e.out, logger: zap.NewNop()}
	args = append([]string{"--env-file", filepath.Join(e.dir, ".env")}, args...)
	return a.execute(context.Background(), args)
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *testEnv) runs(t *testing.T) []history.Run {
	t.Helper()
	store, err := history.Open(e.historyDB)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	return runs
}

func TestGenerateWritesWorkbookAndRecordsRun(t *testing.T) {
	env := newTestEnv(t)
	hours := env.write(t, "hours.csv", hoursCSV)
	tips := env.write(t, "tips.csv", tipsCSV)
	out := filepath.Join(env.dir, "report.xlsx")

	require.NoError(t, env.run("generate", "--hours", hours, "--tips", tips, "--out", out))

	assert.Contains(t, env.out.String(), "Report written to "+out)
	assert.Contains(t, env.out.String(), "Grand total:")
	read, err := report.ReadHoursFile(out)
	require.NoError(t, err)
	assert.Contains(t, read.Employees(), "Ana Diaz")

	runs := env.runs(t)
	require.Len(t, runs, 1)
	assert.Equal(t, "cli", runs[0].Source)
	assert.Equal(t, "hours.csv", runs[0].HoursName)
	assert.Equal(t, "tips.csv", runs[0].TipsName)
	assert.True(t, runs[0].TipsIncluded)
	assert.Contains(t, env.out.String(), runs[0].ID)
}

func TestGenerateWithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	hours := env.write(t, "hours.csv", hoursCSV)

	require.NoError(t, env.run("generate", "--hours", hours, "--out", filepath.Join(env.dir, "a.xlsx"), "--no-history"))
	assert.Contains(t, env.out.String(), "Tips:")
	assert.NotContains(t, env.out.String(), "Run:")

	require.NoError(t, env.run("history", "list"))
	assert.Contains(t, env.out.String(), "no runs recorded")
}

func TestGenerateRequiresHours(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("generate")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestGenerateFailsOnBadHours(t *testing.T) {
	env := newTestEnv(t)
	hours := env.write(t, "hours.csv", "Name,Hours\nAna,5\n")
	out := filepath.Join(env.dir, "report.xlsx")

	err := env.run("generate", "--hours", hours, "--out", out)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUsageErrors(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.run("bogus"), ErrUsage)
	assert.ErrorIs(t, env.run("generate", "--no-such-flag"), ErrUsage)
}

func TestRootPrintsHelp(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run())
	assert.Contains(t, env.out.String(), "generate")
	assert.Contains(t, env.out.String(), "history")
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "tipsheet")
	assert.Contains(t, buf.String(), "serve")
}

func TestHistoryShowAndRerun(t *testing.T) {
	env := newTestEnv(t)
	hours := env.write(t, "hours.csv", hoursCSV)
	tips := env.write(t, "tips.csv", tipsCSV)
	require.NoError(t, env.run("generate", "--hours", hours, "--tips", tips, "--out", filepath.Join(env.dir, "report.xlsx")))
	id := env.runs(t)[0].ID

	require.NoError(t, env.run("history", "list"))
	assert.Contains(t, env.out.String(), id[:8])
	assert.Contains(t, env.out.String(), "hours.csv")

	require.NoError(t, env.run("history", "show", id[:8]))
	assert.Contains(t, env.out.String(), id)
	assert.Contains(t, env.out.String(), "Tips file:")

	// Remove the originals to prove the stored copies are used.
	require.NoError(t, os.Remove(hours))
	require.NoError(t, os.Remove(tips))

	rerun := filepath.Join(env.dir, "rerun.xlsx")
	require.NoError(t, env.run("history", "rerun", id, "--out", rerun))
	assert.Contains(t, env.out.String(), "Grand total:")
	_, err := os.Stat(rerun)
	require.NoError(t, err)

	runs := env.runs(t)
	require.Len(t, runs, 2)
	assert.Equal(t, "rerun", runs[0].Source)
	assert.True(t, runs[0].GrandTotal.Equal(runs[1].GrandTotal))
}

func TestHistoryShowUnknownRun(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("history", "show", "deadbeef")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t)
	t.Setenv(config.EnvHistoryDB, config.HistoryOff)

	assert.ErrorIs(t, env.run("history", "list"), errHistoryDisabled)
}

func TestEnvFileIsLoaded(t *testing.T) {
	env := newTestEnv(t)
	// t.Setenv restores the variable; unset it so the .env value applies.
	require.NoError(t, os.Unsetenv(config.EnvHistoryDB))
	env.write(t, ".env", config.EnvHistoryDB+"=off\n")

	assert.ErrorIs(t, env.run("history", "list"), errHistoryDisabled)
}

func TestSetupWritesEnvFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run("setup", "--access-password", "correct-horse-battery"))

	data, err := os.ReadFile(filepath.Join(env.dir, ".env"))
	require.NoError(t, err)
	values := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		key, value, _ := strings.Cut(line, "=")
		values[key] = value
	}
	assert.Equal(t, config.DefaultAddr, values[config.EnvAddr])
	assert.Equal(t, "5m0s", values[config.EnvCleanupDelay])
	assert.Equal(t, "16", values[config.EnvMaxUploadMB])
	assert.True(t, security.VerifyPassword("correct-horse-battery", values[config.EnvAccessHash]))

	err = env.run("setup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	require.NoError(t, env.run("setup", "--force"))
}

func TestSetupRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("setup", "--access-password", "short")
	assert.ErrorIs(t, err, security.ErrPasswordTooShort)
	_, statErr := os.Stat(filepath.Join(env.dir, ".env"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "conf", "policy.yaml")

	require.NoError(t, env.run("config", "init", path))
	assert.Contains(t, env.out.String(), "wrote "+path)

	err := env.run("config", "init", path)
	require.Error(t, err)
	require.NoError(t, env.run("config", "init", path, "--force"))

	require.NoError(t, env.run("--config", path, "config", "show"))
	assert.Contains(t, env.out.String(), "# "+path)
	assert.Contains(t, env.out.String(), "dinner_cutoff")

	require.NoError(t, env.run("--config", path, "config", "show", "--toml"))
	assert.Contains(t, env.out.String(), "dinner_cutoff =")
}

func TestConfigInitDefaultsToPolicyPath(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.run("config", "init"))
	_, err := os.Stat(filepath.Join(env.dir, "policy.yaml"))
	assert.NoError(t, err)
}

func TestGenerateUsesPolicyFile(t *testing.T) {
	env := newTestEnv(t)
	policy := env.write(t, "policy.yaml", "dinner_cutoff: \"4:00PM\"\nsalaried: []\n")
	hours := env.write(t, "hours.csv", hoursCSV)

	require.NoError(t, env.run("--config", policy, "generate", "--hours", hours, "--out", filepath.Join(env.dir, "r.xlsx"), "--no-history"))
	assert.NotContains(t, env.out.String(), "Salaried:")
}

func TestBadPolicyFails(t *testing.T) {
	env := newTestEnv(t)
	policy := env.write(t, "policy.yaml", "bogus_key: 1\n")
	hours := env.write(t, "hours.csv", hoursCSV)

	err := env.run("--config", policy, "generate", "--hours", hours, "--out", filepath.Join(env.dir, "r.xlsx"))
	assert.Error(t, err)
}

func TestRerunOutputName(t *testing.T) {
	run := history.Run{ID: "0123456789abcdef", OutputName: "week.xlsx"}
	assert.Equal(t, "01234567_week.xlsx", rerunOutput(run))
	run.OutputName = ""
	assert.Equal(t, "01234567_"+defaultOutput, rerunOutput(run))
}
