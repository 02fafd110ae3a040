package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	Version = "1.2.3"
	Commit = "abc123"

	info := Get()
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(t *testing.T, output string)
	}{
		{
			name: "plain text",
			args: []string{},
			validate: func(t *testing.T, output string) {
				assert.Contains(t, output, "Version: "+Version)
				assert.Contains(t, output, "Go: "+runtime.Version())
			},
		},
		{
			name: "json",
			args: []string{"--json"},
			validate: func(t *testing.T, output string) {
				var info Info
				require.NoError(t, json.Unmarshal([]byte(output), &info))
				assert.Equal(t, Version, info.Version)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Command()
			var buf bytes.Buffer
			cmd.SetOut(&buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			tt.validate(t, buf.String())
		})
	}
}

func TestCommandRejectsArgs(t *testing.T) {
	cmd := Command()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
