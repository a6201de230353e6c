package cli

import (
	"fmt"
	"os"

	"github.com/guiyumin/teradl/internal/core/updater"
	"github.com/spf13/cobra"
)

var updateCheckOnly bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update teradl to the latest release",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signalContext()
		defer stop()

		if updateCheckOnly {
			status, err := updater.Check(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if status.Available {
				fmt.Printf("Update available: v%s -> v%s\n", status.Current, status.Latest)
			} else {
				fmt.Printf("Already up to date (v%s)\n", status.Current)
			}
			return
		}

		status, err := updater.Update(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if status.Available {
			fmt.Printf("Successfully updated to v%s\n", status.Latest)
		} else {
			fmt.Printf("Already up to date (v%s)\n", status.Current)
		}
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "only check whether an update is available")
	rootCmd.AddCommand(updateCmd)
}
