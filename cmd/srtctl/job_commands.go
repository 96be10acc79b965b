package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subtitle-translate/internal/infra/api/apiv1"
)

func newSubmitCommand(newClient func() *apiClient) *cobra.Command {
	var lang, note string
	cmd := &cobra.Command{
		Use:   "submit <file.srt>",
		Short: "Create a translation job from an SRT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSRT(args[0])
			if err != nil {
				return err
			}
			resp, err := newClient().Submit(cmd.Context(), text, lang, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s created (%d cues)\n", resp.JobID, resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Target language (server default when empty)")
	cmd.Flags().StringVar(&note, "note", "", "Extra instruction passed with every cue")
	return cmd
}

func newPollCommand(newClient func() *apiClient) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "poll <jobId>",
		Short: "Advance a job by one batch and print its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProgress(cmd.OutOrStdout(), args[0], p)
			if p.Status == "completed" && outPath != "" {
				return writeSRT(outPath, p.SRT)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the translated SRT here once completed")
	return cmd
}

func newRunCommand(newClient func() *apiClient) *cobra.Command {
	var lang, note, outPath string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "run <file.srt>",
		Short: "Submit a file and poll until the translation is complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSRT(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = defaultOutputPath(args[0], lang)
			}
			client := newClient()
			out := cmd.OutOrStdout()

			created, err := client.Submit(cmd.Context(), text, lang, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "job %s created (%d cues)\n", created.JobID, created.Total)

			p, err := pollUntilDone(cmd.Context(), client, created.JobID, interval, func(p *apiv1.PollResponse) {
				printProgress(out, created.JobID, p)
			})
			if err != nil {
				return err
			}
			if err := writeSRT(outPath, p.SRT); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Target language (server default when empty)")
	cmd.Flags().StringVar(&note, "note", "", "Extra instruction passed with every cue")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default <input>.<lang>.srt)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Pause between polls")
	return cmd
}

// pollUntilDone polls jobID until it completes. Each poll does one batch of
// work on the server, so the loop is what drives the job forward.
func pollUntilDone(ctx context.Context, client *apiClient, jobID string, interval time.Duration, onProgress func(*apiv1.PollResponse)) (*apiv1.PollResponse, error) {
	for {
		p, err := client.Poll(ctx, jobID)
		if err != nil {
			return nil, err
		}
		onProgress(p)
		if p.Status == "completed" {
			return p, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func printProgress(w io.Writer, jobID string, p *apiv1.PollResponse) {
	fmt.Fprintf(w, "%s: %s %d/%d (translated %d)\n", jobID, p.Status, p.Cursor, p.Total, p.Processed)
}

func readSRT(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read subtitle: %w", err)
	}
	return string(b), nil
}

func writeSRT(path, text string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write subtitle: %w", err)
	}
	return nil
}

func defaultOutputPath(input, lang string) string {
	if lang == "" {
		lang = "translated"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "." + lang + ".srt"
}
