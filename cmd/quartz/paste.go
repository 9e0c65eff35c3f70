package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/clipboard"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/send"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print clipboard content (like pbpaste)",
		Long: `Reads the system clipboard and writes it to stdout (or --output).

By default the richest available representation wins: RTF, then the HTML
fragment extracted from CF_HTML, then plain text. Use --as to request a
specific one.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(v)
			return runPaste(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.String("as", "", "representation to read (rtf|html|text)")
	f.StringP("output", "o", "", "output file (default: stdout)")
	addConfigFlag(cmd)
	addLoggingFlags(cmd)
	return cmd
}

func runPaste(ctx context.Context, v *viper.Viper) error {
	clip := clipboard.System()
	if err := clip.Open(ctx, send.OpenAttempts, send.OpenRetryDelay); err != nil {
		return err
	}
	defer clip.Close()

	content, err := readClip(clip, v.GetString("as"))
	if err != nil {
		return err
	}
	return writeOutput(v.GetString("output"), content)
}

func readClip(clip clipboard.Clipboard, as string) (string, error) {
	switch as {
	case "rtf":
		return clipboard.GetRTF(clip)
	case "html":
		return clipboard.GetHTML(clip)
	case "text", "plain":
		return clip.Text()
	case "":
		if rtf, err := clipboard.GetRTF(clip); err == nil && rtf != "" {
			return rtf, nil
		}
		if html, err := clipboard.GetHTML(clip); err == nil && html != "" {
			return html, nil
		}
		text, err := clip.Text()
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", errors.New("paste: clipboard is empty")
		}
		return text, nil
	default:
		return "", fmt.Errorf("paste: unknown --as format %q", as)
	}
}
