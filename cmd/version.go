package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

// stackModules are the backends an operator cares about when reporting issues.
var stackModules = map[string]string{
	"google.golang.org/genai":  "gemini",
	"github.com/jackc/pgx/v5":  "postgres",
	"go.uber.org/zap":          "logging",
	"github.com/spf13/viper":   "config",
	"gopkg.in/yaml.v3":         "question bank",
	"github.com/spf13/cobra":   "cli",
	"golang.org/x/sync":        "simulation",
	"github.com/google/uuid":   "ids",
	"github.com/joho/godotenv": "dotenv",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the backends compiled in",
	Run: func(cmd *cobra.Command, _ []string) {
		info, _ := debug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(out io.Writer, info *debug.BuildInfo) {
	fmt.Fprintf(out, "%s %s (%s %s/%s)\n", app, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if info == nil {
		return
	}

	for _, dep := range info.Deps {
		role, ok := stackModules[dep.Path]
		if !ok {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		fmt.Fprintf(out, "  %-14s %s %s\n", role+":", dep.Path, dep.Version)
	}
}
