package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/willfong/sqlimport/internal/ui"
)

// Version information - set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		u := ui.New()
		u.SetNoColor(v.GetBool("no_color"))

		u.Println(u.Header("sqlimport"))
		u.Println("")
		u.Println(u.KeyValue("Version", Version))
		u.Println(u.KeyValue("Git Commit", GitCommit))
		u.Println(u.KeyValue("Built", BuildDate))
		u.Println(u.KeyValue("Go Version", runtime.Version()))
		u.Println(u.KeyValue("OS/Arch", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddCommand(versionCmd)
}
