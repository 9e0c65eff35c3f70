package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/clipboard"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/convert"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/send"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy [file]",
		Short: "Copy content to the system clipboard (like pbcopy)",
		Long: `Reads content from a file or stdin and places it on the system
clipboard in its native format: RTF content becomes the "Rich Text Format"
clipboard entry, HTML becomes a CF_HTML payload, everything else is plain
text. Use --as to convert before copying.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(v)
			return runCopy(cmd.Context(), v, args)
		},
	}

	f := cmd.Flags()
	f.String("as", "", "convert to this format before copying (rtf|html|text)")
	addPandocFlag(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)
	return cmd
}

func runCopy(ctx context.Context, v *viper.Viper, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}
	if content == "" {
		return nil
	}

	eng := convert.New(convert.Options{PandocPath: v.GetString("pandoc")})
	if as := v.GetString("as"); as != "" {
		switch as {
		case "rtf":
			content, err = eng.ToRTF(ctx, content)
		case "html":
			content, err = eng.ToHTML(ctx, content)
		case "text", "plain":
			content, err = eng.ToPlain(ctx, content)
		default:
			return fmt.Errorf("copy: unknown --as format %q", as)
		}
		if err != nil {
			return err
		}
	}

	clip := clipboard.System()
	if err := clip.Open(ctx, send.OpenAttempts, send.OpenRetryDelay); err != nil {
		return err
	}
	defer clip.Close()
	if err := clip.Clear(); err != nil {
		return err
	}

	switch format.Detect(content) {
	case format.TagRTF:
		if err := clipboard.SetRTF(clip, content); err != nil {
			return err
		}
		setPlainCompanion(ctx, eng, clip, content)
		return nil
	case format.TagHTML:
		if err := clipboard.SetHTML(clip, content); err != nil {
			return err
		}
		setPlainCompanion(ctx, eng, clip, content)
		return nil
	default:
		return clip.SetText(content)
	}
}

// setPlainCompanion adds a plain-text rendering next to a rich write so
// plain-text consumers still get something. Best effort.
func setPlainCompanion(ctx context.Context, eng *convert.Engine, clip clipboard.Clipboard, content string) {
	plain, err := eng.ToPlain(ctx, content)
	if err != nil {
		slog.Debug("plain-text companion skipped", "err", err)
		return
	}
	if err := clip.SetText(plain); err != nil {
		slog.Debug("plain-text companion write failed", "err", err)
	}
}
