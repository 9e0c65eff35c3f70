// quartz: clipboard format conversion and delivery.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "quartz",
		Short: "Clipboard format conversion and delivery",
		Long: `quartz detects rich-text formats, converts between them, and places
the result on the system clipboard in the format the receiving application
handles best (RTF, CF_HTML, plain text).

Use "quartz detect/convert" as filters over stdin. Use "quartz copy/paste"
to move rich content through the clipboard. Use "quartz send" to paste
converted content straight into the foreground application, restoring the
previous clipboard afterwards.

Config file search order (first found wins):
  /etc/quartz/quartz.toml
  $HOME/.config/quartz/quartz.toml
  path supplied via --config

All flags can be set via QUARTZ_<FLAG> env vars or config-file keys.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDetectCmd(),
		newConvertCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newSendCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("quartz %s\n", Version)
		},
	}
}
