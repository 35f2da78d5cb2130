package e2e_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/osrsbingo/internal/api/response"
	"github.com/mcoot/osrsbingo/internal/config"
	"github.com/mcoot/osrsbingo/internal/factory"
	"github.com/mcoot/osrsbingo/internal/model"
)

const (
	adminPassword = "e2e-password"
	ingestKey     = "e2e-key"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "bingo-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/bingo")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--api-key", ingestKey,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "BINGO_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// runJSON runs a command and decodes its JSON output
func (r *cliRunner) runJSON(t *testing.T, result any, args ...string) {
	t.Helper()

	out, err := r.run(args...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), result), out)
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the full application over memory storage
func startTestServer(t *testing.T) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Auth.AdminPassword = adminPassword
	cfg.Auth.IngestAPIKey = ingestKey
	cfg.Auth.TokenSecret = "e2e-secret"

	app, err := factory.New(cfg, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router())
	t.Cleanup(func() {
		// Ends open event streams before the server waits on them
		_ = app.Close()
		srv.Close()
	})
	return srv.URL
}

func TestCLIHealth(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	var health response.Health
	cli.runJSON(t, &health, "health")
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, config.StorageMemory, health.Storage)
}

func TestCLIBoardRequiresLogin(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	out, err := cli.run("board", "resize", "3")
	assert.Error(t, err)
	assert.Contains(t, out, "ADMIN_REQUIRED")

	out, err = cli.run("admin", "login", "--password", "wrong")
	assert.Error(t, err)
	assert.Contains(t, out, "INVALID_CREDENTIALS")
}

func TestCLIBingoFlow(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	// Log in and keep the token in the token file
	var token response.Token
	cli.runJSON(t, &token, "admin", "login", "--password", adminPassword)
	require.NotEmpty(t, token.Token)

	// Build a 2x2 board
	var board model.Board
	cli.runJSON(t, &board, "board", "resize", "2")
	assert.Equal(t, 2, board.Size)

	cli.runJSON(t, &board, "board", "tile", "0", "--items", "Abyssal whip", "--value", "20")
	cli.runJSON(t, &board, "board", "tile", "1", "--items", "Dragon bones", "--value", "10")
	cli.runJSON(t, &board, "board", "bonuses", "--rows", "100,50", "--cols", "50,50", "--diags", "200,200")
	assert.Equal(t, []int{100, 50}, board.LineBonuses.Rows)

	// Record drops through the ingest route
	var drop response.DropResult
	cli.runJSON(t, &drop, "drop", "record", "--player", "Alice", "--item", "Abyssal whip", "--value", "1500000")
	require.Len(t, drop.TilesCompleted, 1)

	cli.runJSON(t, &drop, "drop", "record", "--player", "Alice", "--item", "Dragon bones", "--value", "2000")
	require.Len(t, drop.TilesCompleted, 1)

	cli.runJSON(t, &drop, "drop", "import", "--player", "Bob", "--item", "Twisted bow", "--value", "1000000000")
	assert.Empty(t, drop.TilesCompleted)

	// Alice has both tiles of the top row
	var leaderboard response.Leaderboard
	cli.runJSON(t, &leaderboard, "leaderboard")
	assert.Equal(t, "Alice", leaderboard.Leader)
	require.Len(t, leaderboard.Players, 1)
	assert.Equal(t, 130, leaderboard.Players[0].TotalPoints)

	var lines model.PlayerScore
	cli.runJSON(t, &lines, "lines", "Alice")
	assert.Equal(t, []int{0}, lines.Lines.Rows)

	// History with a value filter
	var history response.History
	cli.runJSON(t, &history, "history", "--value", ">1m")
	assert.Equal(t, 2, history.Count)

	cli.runJSON(t, &history, "history", "--player", "alice", "--value", "<10k")
	require.Equal(t, 1, history.Count)
	assert.Equal(t, "Dragon bones", history.Drops[0].Item)

	// Shuffle and undo
	cli.runJSON(t, &board, "board", "shuffle")
	cli.runJSON(t, &board, "board", "undo-shuffle")
	assert.Equal(t, []string{"Abyssal whip"}, board.Tiles[0].Items)

	// Log out revokes the saved token
	_, err := cli.run("admin", "logout")
	require.NoError(t, err)

	out, err := cli.run("board", "clear")
	assert.Error(t, err)
	assert.Contains(t, out, "ADMIN_REQUIRED")
}

func TestCLIRank(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	out, err := cli.run("rank")
	assert.Error(t, err)
	assert.Contains(t, out, "RANK_NOT_FOUND")

	var history response.RankHistory
	cli.runJSON(t, &history, "rank", "--history", "5")
	assert.Empty(t, history.Snapshots)
}

func TestCLIDeaths(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	var stats model.DeathStats
	cli.runJSON(t, &stats, "deaths")
	assert.Zero(t, stats.TotalDeaths)

	var byNPC []model.NPCDeathStats
	cli.runJSON(t, &byNPC, "deaths", "--by-npc")
	assert.Empty(t, byNPC)
}
