package narration

import (
	"strings"
	"testing"

	"github.com/menta2k/slidecast/pkg/types"
)

func TestBuildPrompt(t *testing.T) {
	slide := types.SlideText{
		Index: 3,
		Title: "반도체 8대 공정",
		Body:  "웨이퍼 제조\n산화 공정",
		Notes: "도입부",
	}
	prompt := BuildPrompt(slide, "반도체 제조 입문 강의")

	for _, want := range []string{"반도체 8대 공정", "웨이퍼 제조", "도입부", "반도체 제조 입문 강의"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Notes line is omitted entirely when empty.
	slide.Notes = ""
	if strings.Contains(BuildPrompt(slide, ""), "Speaker notes") {
		t.Error("prompt must omit notes section for slides without notes")
	}
}

func TestParseScript(t *testing.T) {
	raw := `{
		"script": "반도체 하나가 만들어지려면 여덟 가지 과정을 거칩니다.",
		"keywords": [
			{"text": "8대 공정", "timing": 2.0},
			{"text": "   ", "timing": 5.0}
		],
		"highlight": {"text": "8대 공정", "timing": 2.0}
	}`
	script, err := ParseScript(raw)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(script.Keywords) != 1 {
		t.Fatalf("blank keyword not dropped: %+v", script.Keywords)
	}
	if script.Keywords[0].TimingHint != 2.0 {
		t.Errorf("timing hint = %v, want 2.0", script.Keywords[0].TimingHint)
	}
	if script.Highlight == nil || script.Highlight.Text != "8대 공정" {
		t.Errorf("highlight = %+v", script.Highlight)
	}
}

func TestParseScriptNullHighlight(t *testing.T) {
	script, err := ParseScript(`{"script":"내용 설명입니다.","keywords":[],"highlight":null}`)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if script.Highlight != nil {
		t.Errorf("highlight = %+v, want nil", script.Highlight)
	}
	if len(script.Keywords) != 0 {
		t.Errorf("keywords = %+v, want empty", script.Keywords)
	}
}

func TestParseScriptEmptyScript(t *testing.T) {
	if _, err := ParseScript(`{"script":"  ","keywords":[],"highlight":null}`); err == nil {
		t.Error("expected error for empty script")
	}
}

func TestParseScriptBadJSON(t *testing.T) {
	if _, err := ParseScript("sorry, no"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}
