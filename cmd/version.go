package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"reviewero/internal/review"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reviewero %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Printf("default model: %s\n", review.DefaultModel)
	},
}
