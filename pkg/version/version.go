// Package version exposes build metadata injected at link time and a cobra
// command that prints it.
//
// Values are set with -ldflags, for example:
//
//	go build -ldflags "-X github.com/toozej/greenstripes/pkg/version.Version=1.0.0"
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version of the build.
	Version = "local"
	// Commit is the git commit the build was made from.
	Commit = ""
	// Branch is the git branch the build was made from.
	Branch = ""
	// BuiltAt is the build timestamp.
	BuiltAt = ""
	// Builder identifies who or what produced the build.
	Builder = ""
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuiltAt   string `json:"built_at"`
	Builder   string `json:"builder"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuiltAt:   BuiltAt,
		Builder:   Builder,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Command returns the version subcommand.
func Command() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := Get()
			if asJSON {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version info: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nCommit: %s\nBranch: %s\nBuiltAt: %s\nBuilder: %s\nGo: %s\nPlatform: %s\n",
				info.Version, info.Commit, info.Branch, info.BuiltAt, info.Builder, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}
