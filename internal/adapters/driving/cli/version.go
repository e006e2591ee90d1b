package cli

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionJSON bool

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	CGO       bool   `json:"cgo"`
}

// readBuildInfo reads the VCS stamp the go toolchain embeds. cgo decides
// whether OCR is compiled in.
func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "CGO_ENABLED":
			info.CGO = s.Value == "1"
		}
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := readBuildInfo()

		if versionJSON {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("encode version: %w", err)
			}
			cmd.Println(string(data))
			return nil
		}

		cmd.Printf("palimpsest version %s\n", info.Version)
		if info.Commit != "" {
			dirty := ""
			if info.Modified {
				dirty = " (modified)"
			}
			cmd.Printf("  commit:   %s%s\n", info.Commit, dirty)
		}
		cmd.Printf("  go:       %s %s\n", info.GoVersion, info.Platform)
		if !info.CGO {
			cmd.Println("  ocr:      unavailable (built without cgo)")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)
}
