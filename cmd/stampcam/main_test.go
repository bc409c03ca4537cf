package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	framePath  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()

	configPath := filepath.Join(base, "stampcam.toml")
	cfg := "data_dir = " + quote(filepath.Join(base, "data")) + "\n" +
		"log_level = \"error\"\n\n[export]\ntimezone = \"UTC\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	framePath := filepath.Join(base, "frame.png")
	writeFrame(t, framePath)

	return &cliTestEnv{baseDir: base, configPath: configPath, framePath: framePath}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}

func writeFrame(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			c := color.RGBA{10, 10, 10, 255}
			if (x/5+y/5)%2 == 0 {
				c = color.RGBA{240, 240, 240, 255}
			}
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "stampcam %s\n%s", strings.Join(args, " "), out)
	return out
}

func TestCLISurveyFlow(t *testing.T) {
	env := setupCLITestEnv(t)

	env.mustRun(t, "project", "set", "Acme")
	out := env.mustRun(t, "room", "add", "Server Room")
	assert.Contains(t, out, `Room "Server Room" active`)

	out = env.mustRun(t, "device", "add", "7")
	assert.Contains(t, out, "Server Room::007")

	for _, kind := range []string{"overview", "lamp", "port"} {
		env.mustRun(t, "shoot", "--kind", kind, "--image", env.framePath)
	}
	out = env.mustRun(t, "shoot", "--kind", "label", "--image", env.framePath)
	assert.Contains(t, out, "Device Server Room::007 is complete")

	out = env.mustRun(t, "device", "list")
	assert.Contains(t, out, "Server Room_device007")
	assert.Contains(t, out, "yes")

	out = env.mustRun(t, "shot", "list")
	assert.Contains(t, out, "overview")

	out = env.mustRun(t, "status")
	assert.Contains(t, out, "Devices:  1 (1 checked)")
	assert.Contains(t, out, "Shots:    4")

	exportDir := filepath.Join(env.baseDir, "out")
	out = env.mustRun(t, "export", "--out", exportDir)
	assert.Contains(t, out, "1 devices, 4 photos")
	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "Acme_"))
}

func TestCLIShootWithoutDevice(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "shoot", "--kind", "overview", "--image", env.framePath)
	assert.ErrorContains(t, err, "no active selection")
}

func TestCLIRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := env.run(t, "room", "add", "A::B")
	assert.Error(t, err)
	_, err = env.run(t, "device", "add", "--room", "Lab", "abc")
	assert.ErrorContains(t, err, "not a number")
	_, err = env.run(t, "device", "add", "--room", "Lab", "200")
	assert.Error(t, err)
	_, err = env.run(t, "shoot", "--kind", "free", "--image", env.framePath)
	assert.Error(t, err)
}

func TestCLIWipeNeedsConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "room", "add", "Lab")

	_, err := env.run(t, "wipe")
	assert.ErrorContains(t, err, "--yes")

	env.mustRun(t, "wipe", "--yes")
	out := env.mustRun(t, "status")
	assert.Contains(t, out, "Rooms:    0")
}

func TestCLIConfigFromEnv(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv(configEnv, env.configPath)

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"room", "add", "Lab"})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(env.baseDir, "data", "stampcam.db"))
	assert.NoError(t, err)
}

func TestRenderTablePlain(t *testing.T) {
	got := renderTable([]string{"ID", "Kind"}, [][]string{{"1", "lamp"}}, []columnAlignment{alignRight}, false)
	assert.Contains(t, got, "ID")
	assert.Contains(t, got, "lamp")
	assert.NotContains(t, got, "╭")
}
