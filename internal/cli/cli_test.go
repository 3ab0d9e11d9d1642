package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/app"
	"gopherai-training/internal/bootstrap"
	"gopherai-training/internal/config"
)

const misfireSOP = `MISFIRE PROCEDURES
A misfire is a failure to fire after the firing mechanism is actuated. After a misfire the
crew waits two minutes before opening the breech and reports the misfire to the FDC.`

const doctrineExcerpt = "Indirect fire is delivered on a target that cannot be seen by the gunner. " +
	"The fire direction center converts observer corrections into firing data."

func setupTestEngine(t *testing.T) {
	t.Helper()
	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.LLM.Provider = "mock"
	cfg.Knowledge.SeedFile = ""
	cfg.Knowledge.WatchDir = ""
	cfg.MySQL.Enabled = false
	cfg.Redis.Enabled = false
	cfg.RabbitMQ.Enabled = false
	cfg.Archive.Type = "none"

	a, err := bootstrap.New(context.Background(), cfg)
	require.NoError(t, err)
	engine = a

	t.Cleanup(func() {
		_ = engine.Close()
		engine = nil
		loadFiles = nil
		outputJSON = false
		ingestName = ""
		ingestCategory = "reference"
		rootCmd.SetArgs(nil)
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	setupTestEngine(t)

	_, err := run(t, "search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_LoadsFilesFirst(t *testing.T) {
	setupTestEngine(t)
	path := writeFile(t, "ft-155-sop.md", misfireSOP)

	out, err := run(t, "search", "--load", path, "misfire")
	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "ft-155-sop.md")
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestEngine(t)

	out, err := run(t, "search", "misfire")
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestIngestCmd(t *testing.T) {
	setupTestEngine(t)
	path := writeFile(t, "sop.txt", misfireSOP)

	out, err := run(t, "ingest", "--category", "sop", "--name", "FT-155-SOP", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested FT-155-SOP")

	docs := engine.Store.DocumentsByName("FT-155-SOP")
	require.Len(t, docs, 1)
	assert.Equal(t, "sop", string(docs[0].Metadata.Category))
}

func TestIngestCmd_RejectsUnsupportedFile(t *testing.T) {
	setupTestEngine(t)
	path := writeFile(t, "photo.png", misfireSOP)

	_, err := run(t, "ingest", path)
	assert.Error(t, err)
}

func TestQuestionsCmd_JSON(t *testing.T) {
	setupTestEngine(t)

	out, err := run(t, "questions", "--json", "-n", "3", doctrineExcerpt)
	require.NoError(t, err)

	var res app.QuestionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Questions, 3)
	assert.Equal(t, "mock", res.Provider)
}

func TestAskCmd(t *testing.T) {
	setupTestEngine(t)
	path := writeFile(t, "ft-155-sop.md", misfireSOP)

	out, err := run(t, "ask", "--load", path, "What happens after a misfire?")
	require.NoError(t, err)
	assert.Contains(t, out, "Confidence:")
	assert.Contains(t, out, "ft-155-sop.md")
}

func TestHealthCmd_Mock(t *testing.T) {
	setupTestEngine(t)

	out, err := run(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "available: true")
}

func TestPurgeCacheCmd_RequiresRedis(t *testing.T) {
	setupTestEngine(t)

	_, err := run(t, "purge-cache")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
