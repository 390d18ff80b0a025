package extractor

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"norm-check/internal/model"
)

// BinarySignature opens every PostgreSQL custom-format dump
const BinarySignature = "PGDMP"

// DefaultMaxLineSize bounds a single scanned line. Binary dumps can hold long lines.
const DefaultMaxLineSize = 64 * 1024 * 1024

var (
	createTableStart = regexp.MustCompile(`(?i)CREATE\s+(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMPORARY|TEMP|UNLOGGED)\s+)?TABLE(?:\s+|$)(?:IF\s+NOT\s+EXISTS\s+)?`)
	tableName        = regexp.MustCompile(`^(?:"(?:[^"]|"")+"|[\w$]+)(?:\s*\.\s*(?:"(?:[^"]|"")+"|[\w$]+))?`)
	copyStart        = regexp.MustCompile(`(?i)^COPY\s.*\bFROM\s+stdin\s*;\s*$`)
)

// DumpExtractor pulls CREATE TABLE blocks out of text or binary dumps. It never
// interprets the columns of a block.
type DumpExtractor struct {
	MaxLineSize int
}

func NewDumpExtractor() *DumpExtractor {
	return &DumpExtractor{MaxLineSize: DefaultMaxLineSize}
}

// DetectFormat reports binary for content carrying the custom-format signature.
func DetectFormat(content []byte) model.DumpFormat {
	if bytes.HasPrefix(content, []byte(BinarySignature)) {
		return model.DumpFormatBinary
	}
	return model.DumpFormatText
}

// block accumulates one CREATE TABLE statement across lines
type block struct {
	text      strings.Builder
	line      int
	depth     int
	seenParen bool
	inSingle  bool
	inDouble  bool
}

// feed consumes s and returns the index just past the terminating semicolon,
// or -1 when the statement continues on the next line.
func (b *block) feed(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case b.inSingle:
			if c == '\'' {
				b.inSingle = false
			}
		case b.inDouble:
			if c == '"' {
				b.inDouble = false
			}
		case c == '\'':
			b.inSingle = true
		case c == '"':
			b.inDouble = true
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			b.text.WriteString(s[:i])
			b.text.WriteByte('\n')
			return -1
		case c == '(':
			b.depth++
			b.seenParen = true
		case c == ')':
			b.depth--
		case c == ';' && b.depth <= 0:
			b.text.WriteString(s[:i+1])
			return i + 1
		}
	}
	b.text.WriteString(s)
	b.text.WriteByte('\n')
	return -1
}

// Extract scans content line by line. Problems are reported in Errors and never stop the
// scan; whatever was extracted is returned.
func (e *DumpExtractor) Extract(content []byte) model.ExtractionResult {
	res := model.ExtractionResult{
		Success: true,
		Tables:  make([]model.ExtractedTable, 0),
		Errors:  make([]string, 0),
		Metadata: model.ExtractionMetadata{
			TotalSize:      len(content),
			DetectedFormat: DetectFormat(content),
		},
	}

	maxLine := e.MaxLineSize
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	initial := 64 * 1024
	if maxLine < initial {
		initial = maxLine
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, initial), maxLine)

	var cur *block
	inCopy := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		// COPY data sections in text dumps are row data, never DDL
		if cur == nil && res.Metadata.DetectedFormat == model.DumpFormatText {
			if inCopy {
				if line == `\.` {
					inCopy = false
				}
				continue
			}
			if copyStart.MatchString(line) {
				inCopy = true
				continue
			}
		}

		for {
			if cur == nil {
				loc := createTableStart.FindStringIndex(line)
				if loc == nil {
					break
				}
				cur = &block{line: lineNo}
				line = line[loc[0]:]
			}
			end := cur.feed(line)
			if end < 0 {
				break
			}
			e.finish(cur, &res)
			cur = nil
			line = line[end:]
		}
	}
	if err := scanner.Err(); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("read stopped after line %d: %v", lineNo, err))
	}
	if cur != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("unclosed CREATE TABLE block starting at line %d", cur.line))
	}
	if len(res.Tables) == 0 {
		res.Errors = append(res.Errors, "no CREATE TABLE statements found")
	}

	for _, t := range res.Tables {
		res.Metadata.ExtractedSize += len(t.Statement)
	}
	return res
}

// finish records a completed block as an ExtractedTable.
func (e *DumpExtractor) finish(b *block, res *model.ExtractionResult) {
	stmt := strings.TrimSpace(b.text.String())
	if !b.seenParen {
		res.Errors = append(res.Errors, fmt.Sprintf("skipped CREATE TABLE without column list at line %d", b.line))
		return
	}

	loc := createTableStart.FindStringIndex(stmt)
	raw := tableName.FindString(stmt[loc[1]:])
	if raw == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("skipped CREATE TABLE without table name at line %d", b.line))
		return
	}
	schema, name := model.SplitQualifiedName(raw)
	if schema == "" {
		schema = model.DefaultSchema
	}

	res.Tables = append(res.Tables, model.ExtractedTable{
		Schema:    schema,
		Name:      name,
		Statement: stmt,
		Line:      b.line,
	})
}

// Manager selects the appropriate extractor based on file extension
type Manager struct {
	extractors map[string]model.Extractor
}

func NewManager() *Manager {
	return &Manager{
		extractors: make(map[string]model.Extractor),
	}
}

func (m *Manager) Register(ext string, extr model.Extractor) {
	m.extractors[strings.ToLower(strings.TrimPrefix(ext, "."))] = extr
}

// Extract reads filePath and runs the extractor registered for its extension, falling
// back to the dump extractor.
func (m *Manager) Extract(filePath string) (model.ExtractionResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return model.ExtractionResult{}, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if extr, ok := m.extractors[ext]; ok {
		return extr.Extract(content), nil
	}
	return NewDumpExtractor().Extract(content), nil
}
