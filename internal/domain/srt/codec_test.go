//go:build !integration

package srt

import (
	"strings"
	"testing"

	"subtitle-translate/internal/domain/model"
)

const twoCues = "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld\n"

func TestParse(t *testing.T) {
	t.Run("should parse well-formed blocks", func(t *testing.T) {
		cues := Parse(twoCues)
		if len(cues) != 2 {
			t.Fatalf("expected 2 cues, got %d", len(cues))
		}
		want := model.Cue{Index: 2, Start: "00:00:02,000", End: "00:00:04,000", SourceText: "World"}
		if cues[1] != want {
			t.Errorf("expected %+v, got %+v", want, cues[1])
		}
	})

	t.Run("should keep multi-line text", func(t *testing.T) {
		cues := Parse("7\n00:01:00,000 --> 00:01:03,500\nfirst line\nsecond line\n")
		if len(cues) != 1 {
			t.Fatalf("expected 1 cue, got %d", len(cues))
		}
		if cues[0].SourceText != "first line\nsecond line" {
			t.Errorf("unexpected text %q", cues[0].SourceText)
		}
	})

	t.Run("should drop malformed blocks silently", func(t *testing.T) {
		in := "abc\n00:00:00,000 --> 00:00:01,000\nbad index\n\n" +
			"2\n00:00:01,000 -> 00:00:02,000\nbad arrow\n\n" +
			"3\n00:00:02,000-->00:00:03,000\nok\n\n" +
			"1.5\n00:00:03,000 --> 00:00:04,000\nfraction\n"
		cues := Parse(in)
		if len(cues) != 1 || cues[0].Index != 3 || cues[0].SourceText != "ok" {
			t.Fatalf("expected only cue 3 to survive, got %+v", cues)
		}
	})

	t.Run("should normalize CRLF and ignore a BOM", func(t *testing.T) {
		in := "\ufeff" + strings.ReplaceAll(twoCues, "\n", "\r\n")
		cues := Parse(in)
		if len(cues) != 2 || cues[0].Index != 1 || cues[0].SourceText != "Hello" {
			t.Fatalf("unexpected parse result %+v", cues)
		}
	})

	t.Run("should return no cues for empty input", func(t *testing.T) {
		if cues := Parse(""); len(cues) != 0 {
			t.Fatalf("expected no cues, got %d", len(cues))
		}
		if cues := Parse("just some text\nwithout timing"); len(cues) != 0 {
			t.Fatalf("expected no cues, got %d", len(cues))
		}
	})

	t.Run("should preserve non-contiguous indices in order", func(t *testing.T) {
		in := "10\n00:00:00,000 --> 00:00:01,000\na\n\n4\n00:00:01,000 --> 00:00:02,000\nb\n"
		cues := Parse(in)
		if len(cues) != 2 || cues[0].Index != 10 || cues[1].Index != 4 {
			t.Fatalf("indices not preserved: %+v", cues)
		}
	})
}

func TestSerialize(t *testing.T) {
	t.Run("should fall back to source text", func(t *testing.T) {
		cues := Parse(twoCues)
		cues[0].TranslatedText = "你好"
		got := Serialize(cues)
		want := "1\n00:00:00,000 --> 00:00:02,000\n你好\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld\n"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("should round-trip through parse", func(t *testing.T) {
		in := "3\n00:00:00,000 --> 00:00:01,000\nline one\nline two\n\n1\n00:00:01,000 --> 00:00:02,500\nsolo\n"
		first := Parse(in)
		second := Parse(Serialize(first))
		if len(first) != len(second) {
			t.Fatalf("cue count changed: %d -> %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("cue %d changed: %+v -> %+v", i, first[i], second[i])
			}
		}
		if Serialize(second) != in {
			t.Errorf("serialize not stable:\n%q\n%q", Serialize(second), in)
		}
	})

	t.Run("should keep a multi-paragraph translation inside one block", func(t *testing.T) {
		cues := Parse(twoCues)
		cues[0].TranslatedText = "first para\n\n  \nsecond para"
		out := Serialize(cues)
		want := "1\n00:00:00,000 --> 00:00:02,000\nfirst para\nsecond para\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld\n"
		if out != want {
			t.Fatalf("expected %q, got %q", want, out)
		}
		again := Parse(out)
		if len(again) != 2 || again[0].SourceText != "first para\nsecond para" {
			t.Fatalf("re-parse lost text: %+v", again)
		}
	})

	t.Run("should render nothing for no cues", func(t *testing.T) {
		if got := Serialize(nil); got != "" {
			t.Errorf("expected empty output, got %q", got)
		}
	})
}

func TestCompactText(t *testing.T) {
	cases := map[string]string{
		"a\n\nb":         "a\nb",
		"a\r\n \t\r\nb": "a\nb",
		"\n\nonly\n\n":   "only",
		"   ":            "",
		"one line":       "one line",
	}
	for in, want := range cases {
		if got := CompactText(in); got != want {
			t.Errorf("CompactText(%q) = %q, want %q", in, got, want)
		}
	}
}
