package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{7.25, "00:00:07,250"},
		{61.5, "00:01:01,500"},
		{3661.5, "01:01:01,500"},
		{-1, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSplitChunksPacksSentences(t *testing.T) {
	text := "안녕하세요. 오늘은 반도체 8대 공정에 대해 알아보겠습니다. 먼저 웨이퍼 제조 공정부터 시작합니다."
	chunks := SplitChunks(text, 42)

	if len(chunks) != 2 {
		t.Fatalf("chunks = %d (%q), want 2", len(chunks), chunks)
	}
	// First two sentences fit in one 42-rune chunk, the third starts a new one.
	if !strings.HasPrefix(chunks[0], "안녕하세요.") || !strings.Contains(chunks[0], "알아보겠습니다.") {
		t.Errorf("first chunk = %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "먼저") {
		t.Errorf("second chunk = %q", chunks[1])
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 42 {
			t.Errorf("chunk exceeds limit: %q (%d runes)", c, utf8.RuneCountInString(c))
		}
	}
}

func TestSplitChunksKeepsLongSentenceWhole(t *testing.T) {
	long := strings.Repeat("가", 60)
	chunks := SplitChunks(long, 42)
	if len(chunks) != 1 || chunks[0] != long {
		t.Errorf("long sentence must stay whole, got %q", chunks)
	}
}

func TestGenerateSRT(t *testing.T) {
	entries := []Entry{
		{Script: "안녕하세요", Start: 0, Duration: 2},
		{Script: "다음 슬라이드", Start: 2, Duration: 3},
	}
	got := GenerateSRT(entries)
	want := "1\n00:00:00,000 --> 00:00:02,000\n안녕하세요\n\n" +
		"2\n00:00:02,000 --> 00:00:05,000\n다음 슬라이드\n\n"
	if got != want {
		t.Errorf("GenerateSRT:\n got %q\nwant %q", got, want)
	}
}

func TestGenerateSRTSplitsDurationByChunkLength(t *testing.T) {
	// Sentences of 40 and 24 runes exceed one 42-rune chunk together, so
	// the 8s slide splits 40/64 and 24/64: the boundary falls at 5s.
	script := strings.Repeat("가", 39) + ". " + strings.Repeat("나", 23) + "."
	entries := []Entry{{Script: script, Start: 0, Duration: 8}}

	got := GenerateSRT(entries)
	if !strings.Contains(got, "00:00:00,000 --> 00:00:05,000") {
		t.Errorf("first chunk window wrong:\n%s", got)
	}
	if !strings.Contains(got, "00:00:05,000 --> 00:00:08,000") {
		t.Errorf("second chunk window wrong:\n%s", got)
	}
}

func TestGenerateSRTSkipsBlankScripts(t *testing.T) {
	entries := []Entry{
		{Script: "   ", Start: 0, Duration: 2},
		{Script: "본문", Start: 2, Duration: 2},
	}
	got := GenerateSRT(entries)
	if strings.Contains(got, "00:00:00,000") {
		t.Errorf("blank script produced an entry:\n%s", got)
	}
	if !strings.HasPrefix(got, "1\n") {
		t.Errorf("numbering must stay contiguous:\n%s", got)
	}
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.srt")
	entries := []Entry{{Script: "테스트", Start: 0, Duration: 1}}
	if err := WriteSRT(entries, path); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), " --> ") {
		t.Errorf("file content:\n%s", data)
	}
}
