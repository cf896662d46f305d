// Package retrieval implements the engine's local, network-free lexical
// retriever: document chunking, TF-IDF indexing, and cosine-similarity
// search over a directory of reference Markdown/text documents, per
// spec §4.12.
package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Document is one chunked unit of a source file, addressable by DocID.
type Document struct {
	DocID      string `json:"doc_id"`
	SourcePath string `json:"source_path"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
}

// LoadDocuments walks dir for *.md and *.txt files (sorted by path),
// chunks each by heading/blank-line boundaries, and assigns
// doc_id = "doc_%04d#chunk_%04d" using the file's index in the sorted
// walk and the chunk's index within that file.
func LoadDocuments(dir string) ([]Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".md" || ext == ".txt" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval: walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []Document
	for fileIdx, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("retrieval: read %s: %w", path, err)
		}

		var chunks []chunk
		if strings.ToLower(filepath.Ext(path)) == ".md" {
			chunks = chunkMarkdown(string(raw))
		} else {
			chunks = chunkPlainText(string(raw))
		}

		chunkIdx := 0
		for _, c := range chunks {
			trimmed := strings.TrimSpace(c.text)
			if trimmed == "" {
				continue
			}
			docs = append(docs, Document{
				DocID:      fmt.Sprintf("doc_%04d#chunk_%04d", fileIdx, chunkIdx),
				SourcePath: path,
				Title:      c.title,
				Text:       trimmed,
			})
			chunkIdx++
		}
	}
	return docs, nil
}

type chunk struct {
	title string
	text  string
}

// chunkMarkdown splits Markdown into chunks at heading boundaries, using
// goldmark's AST so headings and blank-line-separated paragraphs both
// act as chunk boundaries; each chunk's title is its nearest preceding
// heading (empty for content before the first heading).
func chunkMarkdown(src string) []chunk {
	reader := text.NewReader([]byte(src))
	parser := goldmark.DefaultParser()
	root := parser.Parse(reader)

	var chunks []chunk
	var curTitle string
	var curLines []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(curLines, "\n\n"))
		if joined != "" {
			chunks = append(chunks, chunk{title: curTitle, text: joined})
		}
		curLines = nil
	}

	srcBytes := []byte(src)
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Parent() != root {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			curTitle = strings.TrimSpace(string(node.Text(srcBytes)))
		default:
			segLines := n.Lines()
			for i := 0; i < segLines.Len(); i++ {
				seg := segLines.At(i)
				curLines = append(curLines, strings.TrimRight(string(seg.Value(srcBytes)), "\n"))
			}
			flush()
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return chunkPlainText(src)
	}
	flush()
	return chunks
}

var reBlankLine = regexp.MustCompile(`\n\s*\n+`)

// chunkPlainText splits on blank lines, the .txt chunking rule.
func chunkPlainText(src string) []chunk {
	parts := reBlankLine.Split(src, -1)
	chunks := make([]chunk, 0, len(parts))
	for _, p := range parts {
		text := strings.TrimSpace(p)
		if text == "" {
			continue
		}
		chunks = append(chunks, chunk{text: text})
	}
	return chunks
}

// BuildSnippet collapses whitespace in text and truncates to max_chars,
// right-stripping the cut, per spec §4.12.
func BuildSnippet(text string, maxChars int) (snippet string, truncated bool) {
	collapsed := collapseWhitespace(text)
	if maxChars <= 0 || len(collapsed) <= maxChars {
		return collapsed, false
	}
	cut := strings.TrimRight(collapsed[:maxChars], " \t\r\n")
	return cut, true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
