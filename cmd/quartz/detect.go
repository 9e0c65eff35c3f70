package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
)

func newDetectCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "detect [file]",
		Short: "Classify content by format",
		Long: `Reads content from a file or stdin and prints its detected format
tag: rtf, html, markdown, json, xml, csv, plaintext, or unknown. A path
argument pointing at an existing file is classified by extension.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(_ *cobra.Command, args []string) error {
			setupLogging(v)
			return runDetect(args)
		},
	}

	addConfigFlag(cmd)
	addLoggingFlags(cmd)
	return cmd
}

func runDetect(args []string) error {
	// A path argument is classified as a path even if the file is empty,
	// so read the content only for the stdin case.
	if len(args) > 0 {
		fmt.Println(format.Detect(args[0]))
		return nil
	}
	content, err := readInput(nil)
	if err != nil {
		return err
	}
	fmt.Println(format.Detect(content))
	return nil
}
