// Package srt reads and writes the SubRip subtitle format.
package srt

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"subtitle-translate/internal/domain/model"
)

var (
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)
	timingRe    = regexp.MustCompile(`^\s*(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})\s*$`)
)

// Parse splits text into cues. Blocks that do not start with a numeric index
// followed by a timing line are dropped. An empty result means the input held
// no usable subtitle.
func Parse(text string) []model.Cue {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var cues []model.Cue
	for _, block := range blankLineRe.Split(text, -1) {
		if cue, ok := parseBlock(block); ok {
			cues = append(cues, cue)
		}
	}
	return cues
}

func parseBlock(block string) (model.Cue, bool) {
	lines := strings.Split(block, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) < 2 {
		return model.Cue{}, false
	}

	index, ok := parseIndex(lines[0])
	if !ok {
		return model.Cue{}, false
	}
	m := timingRe.FindStringSubmatch(lines[1])
	if m == nil {
		return model.Cue{}, false
	}

	body := lines[2:]
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	return model.Cue{
		Index:      index,
		Start:      m[1],
		End:        m[2],
		SourceText: strings.Join(body, "\n"),
	}, true
}

func parseIndex(line string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// Serialize renders cues in sequence order. Cues without a translation fall
// back to their source text, so the output always has one block per cue.
func Serialize(cues []model.Cue) string {
	var sb strings.Builder
	for i, c := range cues {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(c.Index))
		sb.WriteString("\n")
		sb.WriteString(c.Start)
		sb.WriteString(" --> ")
		sb.WriteString(c.End)
		sb.WriteString("\n")
		sb.WriteString(CompactText(c.Text()))
		sb.WriteString("\n")
	}
	return sb.String()
}

// CompactText drops whitespace-only lines and normalizes line endings. A blank
// line inside cue text would end the block early.
func CompactText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
