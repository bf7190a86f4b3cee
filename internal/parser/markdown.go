package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// docMeta is what the heuristic extractor can pull out of one markdown
// document: first level-1 heading as name, first paragraph after it as
// description, a Topics section as tags, frontmatter and fenced json
// blocks as config.
type docMeta struct {
	Name        string
	Description string
	Role        string
	Tags        []string
	Config      map[string]any
}

var markdown = goldmark.New()

// parseMarkdownDoc applies the legacy extraction heuristics to a markdown
// document. Lower-confidence by design: it guesses, it does not validate.
func parseMarkdownDoc(content string) docMeta {
	meta := docMeta{Config: map[string]any{}}

	front, body := splitFrontmatter([]byte(content))
	if front != nil {
		var fm map[string]any
		if err := yaml.Unmarshal(front, &fm); err == nil {
			for k, v := range fm {
				meta.Config[k] = v
			}
		}
	}

	doc := markdown.Parser().Parse(text.NewReader(body))

	var (
		sawTitle bool
		wantDesc bool
		section  string
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 && !sawTitle {
				meta.Name = nodeText(node, body)
				sawTitle = true
				wantDesc = true
				section = ""
				continue
			}
			section = strings.ToLower(strings.TrimSuffix(nodeText(node, body), "s"))
			wantDesc = false
		case *ast.Paragraph:
			txt := nodeText(node, body)
			switch {
			case wantDesc:
				meta.Description = txt
				wantDesc = false
			case section == "topic":
				meta.Tags = append(meta.Tags, splitTopics(txt)...)
			case section == "role" && meta.Role == "":
				meta.Role = txt
			}
		case *ast.List:
			if section == "topic" {
				for item := node.FirstChild(); item != nil; item = item.NextSibling() {
					if t := strings.TrimSpace(nodeText(item, body)); t != "" {
						meta.Tags = append(meta.Tags, t)
					}
				}
			}
		case *ast.FencedCodeBlock:
			if string(node.Language(body)) != "json" {
				continue
			}
			var block map[string]any
			if err := json.Unmarshal(blockBytes(node, body), &block); err == nil {
				for k, v := range block {
					meta.Config[k] = v
				}
			}
		}
	}

	return meta
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// document body. Returns (nil, src) when there is none.
func splitFrontmatter(src []byte) ([]byte, []byte) {
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return nil, src
	}
	rest := src[4:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, src
	}
	body := rest[end+4:]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return rest[:end], body
}

// nodeText collects the raw text content of a node's text descendants.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// blockBytes concatenates the lines of a fenced code block.
func blockBytes(n *ast.FencedCodeBlock, src []byte) []byte {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.Bytes()
}

// parseJSONConfig parses a standalone JSON component file into a config
// map, or nil when the document is not a JSON object.
func parseJSONConfig(content string) map[string]any {
	var cfg map[string]any
	if err := json.Unmarshal([]byte(content), &cfg); err != nil {
		return nil
	}
	return cfg
}

// splitTopics splits a comma or newline separated topics paragraph into
// individual tags, trimming list markers.
func splitTopics(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		t := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(part), "-* "))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
