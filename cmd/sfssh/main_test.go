package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestShell(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "disk.img")

	out := mustRun(t, "-i", img, "format", "20")
	assert.Contains(t, out, "disk formatted.")
	out = mustRun(t, "-i", img, "mount")
	assert.Contains(t, out, "20 blocks, 17 free, 128 inodes")

	out = mustRun(t, "-i", img, "create")
	assert.Contains(t, out, "created inode 0.")

	data := make([]byte, 10000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, data, 0644))
	out = mustRun(t, "-i", img, "copyin", src, "0")
	assert.Contains(t, out, "10000 bytes copied")

	out = mustRun(t, "-i", img, "stat", "0")
	assert.Contains(t, out, "inode 0 has size 10000 bytes.")

	dst := filepath.Join(dir, "dst")
	mustRun(t, "-i", img, "copyout", "0", dst)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	out = mustRun(t, "-i", img, "cat", "0")
	assert.Equal(t, string(data), out)

	out = mustRun(t, "-i", img, "debug")
	assert.Contains(t, out, "magic number is valid")
	assert.Contains(t, out, "direct blocks: 3 4 5")

	mustRun(t, "-i", img, "remove", "0")
	_, err = run(t, "-i", img, "stat", "0")
	assert.Error(t, err)
}

func TestShellExportImport(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "disk.img")
	mustRun(t, "-i", img, "format", "30")
	mustRun(t, "-i", img, "create")

	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("hello, world"), 0644))
	mustRun(t, "-i", img, "copyin", src, "0")

	for _, codec := range []string{"none", "xz", "bzip2"} {
		exp := filepath.Join(dir, "disk."+codec)
		out := mustRun(t, "-i", img, "export", "--codec", codec, exp)
		assert.Contains(t, out, codec)

		copyImg := filepath.Join(dir, "copy-"+codec+".img")
		mustRun(t, "-i", copyImg, "import", exp)
		out = mustRun(t, "-i", copyImg, "cat", "0")
		assert.Equal(t, "hello, world", out)
	}
}

func TestShellEnvImage(t *testing.T) {
	img := filepath.Join(t.TempDir(), "disk.img")
	t.Setenv("SFS_IMAGE", img)
	t.Setenv("SFS_BLOCKS", "40")
	mustRun(t, "format")
	out := mustRun(t, "mount")
	assert.Contains(t, out, "40 blocks")
}

func TestShellErrors(t *testing.T) {
	_, err := run(t, "create")
	assert.Error(t, err, "no image")

	img := filepath.Join(t.TempDir(), "disk.img")
	_, err = run(t, "-i", img, "format")
	assert.Error(t, err, "no block count")

	mustRun(t, "-i", img, "format", "10")
	_, err = run(t, "-i", img, "stat", "x")
	assert.Error(t, err)
	_, err = run(t, "-i", img, "stat", "3")
	assert.Error(t, err)
	_, err = run(t, "-i", img, "--log-format", "xml", "mount")
	assert.Error(t, err)
}
