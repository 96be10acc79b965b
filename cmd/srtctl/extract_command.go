package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"subtitle-translate/internal/infra/media"
)

func newExtractCommand() *cobra.Command {
	var stream int
	var outPath string
	var list bool
	cmd := &cobra.Command{
		Use:   "extract <video>",
		Short: "Pull a subtitle stream out of a video file as SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			ex := media.NewExtractor(&logger)
			out := cmd.OutOrStdout()

			if list {
				streams, err := ex.ListSubtitleStreams(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(streams) == 0 {
					fmt.Fprintln(out, "no subtitle streams")
					return nil
				}
				for _, s := range streams {
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", s.Index, s.Codec, s.Language, s.Title)
				}
				return nil
			}

			data, err := ex.ExtractSRT(cmd.Context(), args[0], stream)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = out.Write(data)
				return err
			}
			if err := writeSRT(outPath, string(data)); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&stream, "stream", 0, "Subtitle stream number (0 is the first subtitle stream)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (stdout when empty)")
	cmd.Flags().BoolVar(&list, "list", false, "List subtitle streams instead of extracting")
	return cmd
}
