// Package media drives the ffmpeg/ffprobe binaries to pull subtitle tracks
// out of video containers.
package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type Extractor struct {
	FFmpeg  string
	FFprobe string
	log     *zerolog.Logger
}

func NewExtractor(logger *zerolog.Logger) *Extractor {
	compLog := logger.With().Str("component", "MediaExtractor").Logger()
	return &Extractor{FFmpeg: "ffmpeg", FFprobe: "ffprobe", log: &compLog}
}

// ExtractArgs renders the ffmpeg argv that writes subtitle stream n of input
// to stdout as SRT.
func ExtractArgs(input string, stream int) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-map", "0:s:" + strconv.Itoa(stream),
		"-f", "srt",
		"pipe:1",
	}
}

// ExtractSRT runs ffmpeg and returns the subtitle blob. Each stderr line is
// logged at warn level.
func (e *Extractor) ExtractSRT(ctx context.Context, input string, stream int) ([]byte, error) {
	if stream < 0 {
		return nil, fmt.Errorf("invalid subtitle stream %d", stream)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.FFmpeg, ExtractArgs(input, stream)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	sc := bufio.NewScanner(&stderr)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			e.log.Warn().Str("input", input).Msg(line)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ffmpeg extract stream %d: %w", stream, err)
	}
	return stdout.Bytes(), nil
}

type SubtitleStream struct {
	Index    int    // position among subtitle streams, as used by -map 0:s:N
	Codec    string
	Language string
	Title    string
}

type probeOutput struct {
	Streams []struct {
		CodecName string            `json:"codec_name"`
		CodecType string            `json:"codec_type"`
		Tags      map[string]string `json:"tags,omitempty"`
	} `json:"streams"`
}

func (e *Extractor) ListSubtitleStreams(ctx context.Context, input string) ([]SubtitleStream, error) {
	cmd := exec.CommandContext(ctx, e.FFprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "s",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", input, err)
	}
	return parseProbe(out)
}

func parseProbe(data []byte) ([]SubtitleStream, error) {
	var res probeOutput
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	streams := make([]SubtitleStream, 0, len(res.Streams))
	for _, s := range res.Streams {
		if s.CodecType != "subtitle" {
			continue
		}
		streams = append(streams, SubtitleStream{
			Index:    len(streams),
			Codec:    s.CodecName,
			Language: s.Tags["language"],
			Title:    s.Tags["title"],
		})
	}
	return streams, nil
}
