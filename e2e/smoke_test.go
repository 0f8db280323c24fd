//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."   // relative to ./e2e
const mainPkgRel = "./cmd" // main.go lives in cmd/

const datasetSQL = `
CREATE TABLE measurement (id INTEGER PRIMARY KEY, station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);
CREATE TABLE station (id INTEGER PRIMARY KEY, station TEXT, name TEXT, latitude FLOAT, longitude FLOAT, elevation FLOAT);
INSERT INTO station (station, name) VALUES ('USC00519397', 'WAIKIKI 717.2, HI US'), ('USC00519281', 'WAIHEE 837.5, HI US');
INSERT INTO measurement (station, date, prcp, tobs) VALUES
  ('USC00519397', '2016-08-22', 0.4, 76),
  ('USC00519397', '2016-08-24', NULL, 79),
  ('USC00519281', '2016-08-23', 1.79, 77),
  ('USC00519281', '2017-01-01', 0.0, 70);
`

func TestSmoke_Endpoints(t *testing.T) {
	repoRoot := repoRootPath(t)

	sqlitePath := startSQLite(t, datasetSQL)

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)

	cmd := startServer(t, bin, addr, sqlitePath)

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + addr

	waitForOK(t, client, base+"/healthz", 5*time.Second)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{path: "/healthz", status: http.StatusOK, body: `{"status":"ok"}`},
		{path: "/api/v1.0/stations", status: http.StatusOK, body: `["USC00519281","USC00519397"]`},
		{path: "/api/v1.0/precipitation", status: http.StatusOK, body: `[{"date":"2016-08-24","prcp":null},{"date":"2017-01-01","prcp":0}]`},
		{path: "/api/v1.0/tobs", status: http.StatusOK, body: `[{"date":"2016-08-23","tobs":77},{"date":"2017-01-01","tobs":70}]`},
		{path: "/api/v1.0/2017-01-01/2017-01-01", status: http.StatusOK, body: `[{"min_temp":70,"avg_temp":70,"max_temp":70}]`},
		{path: "/api/v1.0/start/2017-01-01", status: http.StatusOK, body: `[{"min_temp":70,"avg_temp":70,"max_temp":70}]`},
		{path: "/api/v1.0/2018-01-01", status: http.StatusOK, body: `[{"min_temp":null,"avg_temp":null,"max_temp":null}]`},
		{path: "/api/v1.0/a/b/c", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := client.Get(base + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status=%d want=%d", resp.StatusCode, tt.status)
			}
			if tt.body == "" {
				return
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("content-type=%q", ct)
			}
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read body: %v", err)
			}
			if got := strings.TrimSpace(string(b)); got != tt.body {
				t.Errorf("body=%s want=%s", got, tt.body)
			}
		})
	}

	t.Run("index", func(t *testing.T) {
		resp, err := client.Get(base + "/")
		if err != nil {
			t.Fatalf("GET /: %v", err)
		}
		defer resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("content-type=%q", ct)
		}
	})

	t.Run("dataset untouched", func(t *testing.T) {
		resp, err := client.Get(base + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz: %v", err)
		}
		defer resp.Body.Close()
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode json: %v", err)
		}
		if _, err := os.Stat(sqlitePath + "-wal"); err == nil {
			t.Errorf("server created a WAL file next to a read-only dataset")
		}
	})

	stopServer(t, cmd)
}

func TestSmoke_MissingTableFailsStartup(t *testing.T) {
	repoRoot := repoRootPath(t)

	sqlitePath := startSQLite(t, `CREATE TABLE measurement (station TEXT, date TEXT, prcp FLOAT, tobs FLOAT);`)

	bin := buildBinary(t, repoRoot)
	cmd := exec.Command(bin)
	cmd.Env = serverEnv(pickFreeAddr(t), sqlitePath)

	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("server exit err=%v want non-zero exit; output:\n%s", err, out)
	}
	if !strings.Contains(string(out), "station table") {
		t.Errorf("output does not name the missing table:\n%s", out)
	}
}

func serverEnv(addr, sqlitePath string) []string {
	return append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=info",
		"HTTP_ADDR="+addr,
		"DB_DRIVER=sqlite3",
		"SQLITE_PATH="+sqlitePath,
	)
}

func startServer(t *testing.T, bin, addr, sqlitePath string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command(bin)
	cmd.Env = serverEnv(addr, sqlitePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	return cmd
}

// startSQLite uses the sqlite3 CLI in a container to build a dataset file in a
// host temp dir and returns its host path.
func startSQLite(t *testing.T, schema string) string {
	t.Helper()

	hostDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(hostDir, "seed.sql"), []byte(schema), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	dbPath := filepath.Join(hostDir, "hawaii.sqlite")

	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:      "nouchka/sqlite3:latest",
		WorkingDir: "/data",
		Entrypoint: []string{"sh", "-c"},
		Cmd: []string{
			"sqlite3 /data/hawaii.sqlite < /data/seed.sql && " +
				"chmod 644 /data/hawaii.sqlite && " +
				"echo 'sqlite ready' && " +
				"tail -f /dev/null",
		},

		HostConfigModifier: func(hc *container.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/data")
		},
		WaitingFor: wait.ForLog("sqlite ready").WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start sqlite container: %v", err)
	}

	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("sqlite db file not created: %v", err)
	}

	return dbPath
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}

	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	tmp := t.TempDir()
	out := filepath.Join(tmp, "climate-server")

	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	b, err := build.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}

	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()

	return ln.Addr().String()
}

func waitForOK(t *testing.T, client *http.Client, url string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server not healthy after %s: %s", timeout, url)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}
