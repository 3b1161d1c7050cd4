package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/landmark"
)

func classifier(t *testing.T, prediction string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"prediction":"`+prediction+`"}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// setEnv points the CLI at endpoint and a fresh history database.
func setEnv(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	t.Setenv(config.EnvEndpoint, endpoint)
	t.Setenv(config.EnvPlugins, filepath.Join(dir, "plugins"))
	t.Setenv(config.EnvBindings, filepath.Join(dir, "bindings.json"))
	t.Setenv(config.EnvDBPath, db)
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvEncoders, "normalized")
	return db
}

// run executes the CLI with args against an empty env file.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o644))

	out, _, err := runRaw(t, stdin, append([]string{"--env-file", envFile}, args...)...)
	return out, err
}

func runRaw(t *testing.T, stdin string, args ...string) (string, *env, error) {
	t.Helper()
	var out bytes.Buffer
	cmd, e := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := execute(context.Background(), cmd, e)
	return out.String(), e, err
}

func writeLandmarks(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hand.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParseLandmarks(t *testing.T) {
	bare, err := json.Marshal(landmark.OpenPalm())
	require.NoError(t, err)

	t.Run("bare array", func(t *testing.T) {
		got, err := parseLandmarks(bare)
		require.NoError(t, err)
		assert.Equal(t, landmark.OpenPalm(), got)
	})

	t.Run("wrapped object", func(t *testing.T) {
		got, err := parseLandmarks([]byte(`  {"landmarks":` + string(bare) + "}\n"))
		require.NoError(t, err)
		assert.Len(t, got, landmark.NumLandmarks)
	})

	t.Run("short sets are passed through", func(t *testing.T) {
		got, err := parseLandmarks([]byte(`[{"x":1,"y":2,"z":3}]`))
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("rejects empty and garbage input", func(t *testing.T) {
		for _, in := range []string{"", "   ", "hello", `{"landmarks":"up"}`, `[1,2,3]`} {
			_, err := parseLandmarks([]byte(in))
			assert.Error(t, err, "input %q", in)
		}
	})
}

func TestPredictCommand(t *testing.T) {
	t.Run("prints the label from a file", func(t *testing.T) {
		srv, calls := classifier(t, "Up")
		setEnv(t, srv.URL)

		out, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()))

		require.NoError(t, err)
		assert.Equal(t, "up\n", out)
		assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	})

	t.Run("reads stdin", func(t *testing.T) {
		srv, _ := classifier(t, "left")
		setEnv(t, srv.URL)
		body, err := json.Marshal(map[string]interface{}{"landmarks": landmark.PointingLeft()})
		require.NoError(t, err)

		out, err := run(t, string(body), "predict", "-")

		require.NoError(t, err)
		assert.Equal(t, "left\n", out)
	})

	t.Run("unknown label prints none", func(t *testing.T) {
		srv, _ := classifier(t, "sideways")
		setEnv(t, srv.URL)

		out, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()))

		require.NoError(t, err)
		assert.Equal(t, "none\n", out)
	})

	t.Run("wrong length prints none without a request", func(t *testing.T) {
		srv, calls := classifier(t, "up")
		setEnv(t, srv.URL)

		out, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()[:10]))

		require.NoError(t, err)
		assert.Equal(t, "none\n", out)
		assert.EqualValues(t, 0, atomic.LoadInt32(calls))
	})

	t.Run("endpoint flag overrides the environment", func(t *testing.T) {
		srv, calls := classifier(t, "down")
		setEnv(t, "http://127.0.0.1:1/predict")

		out, err := run(t, "", "--endpoint", srv.URL, "predict", writeLandmarks(t, landmark.OpenPalm()))

		require.NoError(t, err)
		assert.Equal(t, "down\n", out)
		assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	})

	t.Run("invalid config fails", func(t *testing.T) {
		setEnv(t, "ftp://example.com/predict")

		_, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()))

		assert.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		srv, _ := classifier(t, "up")
		setEnv(t, srv.URL)

		_, err := run(t, "", "predict", filepath.Join(t.TempDir(), "nope.json"))

		assert.Error(t, err)
	})
}

func TestEnvFileFlag(t *testing.T) {
	t.Run("explicit missing file fails", func(t *testing.T) {
		srv, calls := classifier(t, "up")
		setEnv(t, srv.URL)
		missing := filepath.Join(t.TempDir(), "missing.env")

		_, _, err := runRaw(t, "", "--env-file", missing, "predict", writeLandmarks(t, landmark.OpenPalm()))

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), "missing.env")
		assert.EqualValues(t, 0, atomic.LoadInt32(calls))
	})

	t.Run("explicit file is loaded", func(t *testing.T) {
		srv, calls := classifier(t, "down")
		setEnv(t, "http://127.0.0.1:1/predict")
		os.Unsetenv(config.EnvEndpoint)
		envFile := filepath.Join(t.TempDir(), "mudra.env")
		require.NoError(t, os.WriteFile(envFile, []byte(config.EnvEndpoint+"="+srv.URL+"\n"), 0o644))

		out, _, err := runRaw(t, "", "--env-file", envFile, "predict", writeLandmarks(t, landmark.OpenPalm()))

		require.NoError(t, err)
		assert.Equal(t, "down\n", out)
		assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	})
}

func TestExecute_ClosesHistoryOnFailure(t *testing.T) {
	srv, _ := classifier(t, "up")
	db := setEnv(t, srv.URL)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o644))

	_, e, err := runRaw(t, "", "--env-file", envFile, "predict", filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	_, statErr := os.Stat(db)
	require.NoError(t, statErr, "history should have been opened before the command failed")
	assert.Nil(t, e.store, "history should be closed after a failing command")
}

func TestHistoryCommand(t *testing.T) {
	t.Run("lists recorded predictions", func(t *testing.T) {
		srv, _ := classifier(t, "Right")
		setEnv(t, srv.URL)

		_, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()))
		require.NoError(t, err)

		out, err := run(t, "", "history")

		require.NoError(t, err)
		assert.Contains(t, out, "LABEL")
		assert.Contains(t, out, "right")
		assert.Contains(t, out, "normalized")
	})

	t.Run("empty history", func(t *testing.T) {
		srv, _ := classifier(t, "up")
		setEnv(t, srv.URL)

		out, err := run(t, "", "history")

		require.NoError(t, err)
		assert.Equal(t, "No predictions recorded.\n", out)
	})

	t.Run("clear", func(t *testing.T) {
		srv, _ := classifier(t, "up")
		setEnv(t, srv.URL)

		_, err := run(t, "", "predict", writeLandmarks(t, landmark.OpenPalm()))
		require.NoError(t, err)

		out, err := run(t, "", "history", "--clear")
		require.NoError(t, err)
		assert.Equal(t, "Deleted 1 predictions.\n", out)

		out, err = run(t, "", "history")
		require.NoError(t, err)
		assert.Equal(t, "No predictions recorded.\n", out)
	})

	t.Run("disabled history", func(t *testing.T) {
		srv, _ := classifier(t, "up")
		setEnv(t, srv.URL)

		_, err := run(t, "", "--db", config.HistoryOff, "history")

		assert.ErrorIs(t, err, errHistoryDisabled)
	})
}

func TestPluginsCommand(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		setEnv(t, "http://127.0.0.1:1/predict")

		out, err := run(t, "", "plugins")

		require.NoError(t, err)
		assert.Contains(t, out, "No plugins found")
		assert.Contains(t, out, "No bindings")
	})

	t.Run("lists plugins and bindings", func(t *testing.T) {
		setEnv(t, "http://127.0.0.1:1/predict")
		pluginDir := os.Getenv(config.EnvPlugins)
		require.NoError(t, os.MkdirAll(filepath.Join(pluginDir, "keyboard"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "keyboard", "plugin.json"),
			[]byte(`{"name":"keyboard","version":"1.0.0","executable":"keyboard","actions":["arrow","keystroke"]}`), 0o644))
		require.NoError(t, os.WriteFile(os.Getenv(config.EnvBindings),
			[]byte(`{"bindings":[{"label":"left","plugin":"keyboard","action":"arrow"}]}`), 0o644))

		out, err := run(t, "", "plugins")

		require.NoError(t, err)
		assert.Contains(t, out, "arrow,keystroke")
		assert.Contains(t, out, "LABEL")
		assert.Contains(t, out, "left")
	})
}
