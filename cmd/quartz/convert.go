package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/convert"
	"github.com/OvercastBTC/Quartz-RTE-sub000/internal/format"
)

func newConvertCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert content between formats",
		Long: `Converts content from a file or stdin into the target format and
writes the result to stdout (or --output).

The source format is auto-detected unless --from is given. Conversions
other than html→markdown and plaintext→rtf shell out to pandoc.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(v)
			return runConvert(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.String("from", "", "source format (default: auto-detect)")
	f.String("to", "markdown", "target format")
	f.StringP("output", "o", "", "output file (default: stdout)")
	addPandocFlag(cmd)
	addConfigFlag(cmd)
	addLoggingFlags(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command, v *viper.Viper, args []string) error {
	content, err := readInput(args)
	if err != nil {
		return err
	}

	source := v.GetString("from")
	if source == "" {
		source = convert.SourceName(format.Detect(content))
	}

	eng := convert.New(convert.Options{PandocPath: v.GetString("pandoc")})
	out, err := eng.Convert(cmd.Context(), source, v.GetString("to"), content)
	if err != nil {
		return err
	}
	return writeOutput(v.GetString("output"), out)
}
