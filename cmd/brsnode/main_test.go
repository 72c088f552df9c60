package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	brs "github.com/dep2p/go-brs"
	"github.com/dep2p/go-brs/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, brs.Version)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brs.json")

	_, err := execute(t, "config", "init", path)
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig().Server, cfg.Server)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)
	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestConfigShow_EnvOverrides(t *testing.T) {
	t.Setenv("BRS_HTTP_LISTEN", "127.0.0.1:18123")
	t.Setenv("BRS_WELL_KNOWN_PEERS", " 1.2.3.4 , ,grpc://5.6.7.8")

	out, err := execute(t, "config", "show")
	require.NoError(t, err)

	cfg, err := config.FromJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:18123", cfg.Server.HTTPListen)
	assert.Equal(t, []string{"1.2.3.4", "grpc://5.6.7.8"}, cfg.Peer.WellKnownPeers)
}

func TestBuildOptions_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brs.json")
	cfg := config.NewConfig()
	cfg.Server.HTTPListen = ":7000"
	require.NoError(t, cfg.SaveFile(path))

	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", path,
		"--http-listen", "127.0.0.1:0",
		"--in-memory",
		"--peer", "1.2.3.4",
	}))

	f := &runFlags{}
	f.configFile, _ = cmd.Flags().GetString("config")
	f.httpListen, _ = cmd.Flags().GetString("http-listen")
	f.inMemory, _ = cmd.Flags().GetBool("in-memory")
	f.peers, _ = cmd.Flags().GetStringSlice("peer")

	opts, err := buildOptions(cmd, f)
	require.NoError(t, err)

	node, err := brs.New(append(opts, brs.WithoutServers(), brs.WithSyncInterval(0))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = node.Close() })

	got := node.Config()
	assert.Equal(t, "127.0.0.1:0", got.Server.HTTPListen)
	assert.True(t, got.Storage.InMemory)
	assert.Equal(t, []string{"1.2.3.4"}, got.Peer.WellKnownPeers)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a,, b ,", ","))
	assert.Empty(t, splitAndTrim("", ","))
}
