package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/clipboard"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/convert"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/send"
)

func newSendCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "send [file]",
		Short: "Paste content into the foreground application",
		Long: `Reads content from a file or stdin, places it on the clipboard in
the format the foreground application handles best, and triggers a paste
keystroke. With --restore the previous clipboard content returns after
--restore-delay.

RTF content headed for a browser window is converted to HTML first;
markdown is converted to RTF with a plain-text companion.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(v)
			return runSend(cmd.Context(), v, args)
		},
	}

	f := cmd.Flags()
	f.Bool("restore", false, "restore the previous clipboard content after the paste")
	f.Duration("restore-delay", send.DefaultRestoreDelay, "delay before the clipboard is restored")
	addPandocFlag(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)
	return cmd
}

func runSend(ctx context.Context, v *viper.Viper, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}

	eng := convert.New(convert.Options{PandocPath: v.GetString("pandoc")})
	sender := send.New(
		clipboard.System(),
		eng,
		send.NewForegroundInspector(),
		send.NewPaster(),
	)

	restore := v.GetBool("restore")
	if restore {
		// The process exits after this function returns; block until the
		// restore has fired. A failed paste still arms the restore, so the
		// wait must happen on error paths too.
		defer sender.WaitRestore()
	}
	return sender.Send(ctx, content, send.Options{
		Restore:      restore,
		RestoreDelay: v.GetDuration("restore-delay"),
	})
}
