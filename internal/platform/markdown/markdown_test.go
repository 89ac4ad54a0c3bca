package markdown_test

import (
	"strings"
	"testing"

	"pahm/internal/platform/markdown"
)

type noteMeta struct {
	ID    string `yaml:"id"`
	Stage int    `yaml:"stage"`
}

func TestRenderThenSplitKeepsFieldsAndBody(t *testing.T) {
	t.Parallel()
	content, err := markdown.Render(noteMeta{ID: "s-1", Stage: 3}, "# Session\n")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(content, "---\nid: s-1\nstage: 3\n---\n") {
		t.Fatalf("unexpected frontmatter layout:\n%s", content)
	}
	var meta noteMeta
	body, err := markdown.Split(content, &meta)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if meta.ID != "s-1" || meta.Stage != 3 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if strings.TrimSpace(body) != "# Session" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestSplitRejectsUnclosedFrontmatter(t *testing.T) {
	t.Parallel()
	var meta noteMeta
	if _, err := markdown.Split("---\nid: x\n", &meta); err == nil {
		t.Fatalf("expected missing separator error")
	}
}

func TestBlockReplaceKeepsSurroundingText(t *testing.T) {
	t.Parallel()
	block := markdown.Block{Start: "<!-- a:start -->", End: "<!-- a:end -->"}
	body := block.Replace("# Log\n", "one")
	if !strings.Contains(body, "# Log") || !strings.Contains(body, "one") {
		t.Fatalf("append failed: %q", body)
	}
	body = block.Replace(body+"tail\n", "two")
	if strings.Contains(body, "one") || !strings.Contains(body, "two") || !strings.HasSuffix(body, "tail\n") {
		t.Fatalf("replace failed: %q", body)
	}
	if strings.Count(body, block.Start) != 1 {
		t.Fatalf("expected single block, got %q", body)
	}
}
