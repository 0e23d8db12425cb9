package importer

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for any file that is not .xlsx, .csv or .docx.
	ErrUnsupportedFormat = errors.New("unsupported file format, only .xlsx, .csv and .docx are accepted")

	errMissingDocumentPart = errors.New("word/document.xml not found")
)

const (
	FormatXLSX = ".xlsx"
	FormatCSV  = ".csv"
	FormatDOCX = ".docx"
)

// RawBlock is the source text of one question, in document order.
type RawBlock struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type ExtractOptions struct {
	// SkipHeader drops the first row of tabular files (column names).
	SkipHeader bool
}

func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{SkipHeader: true}
}

// DetectFormat returns the lower-cased extension of filename or ErrUnsupportedFormat.
func DetectFormat(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case FormatXLSX, FormatCSV, FormatDOCX:
		return ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Extract splits the file into raw question blocks. The extension is checked before
// anything is read from r.
func Extract(filename string, r io.Reader, opts ExtractOptions) ([]RawBlock, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var texts []string
	switch format {
	case FormatXLSX:
		rows, err := readXLSXRows(r)
		if err != nil {
			return nil, err
		}
		texts = rowBlocks(rows, opts.SkipHeader)
	case FormatCSV:
		rows, err := readCSVRows(r)
		if err != nil {
			return nil, err
		}
		texts = rowBlocks(rows, opts.SkipHeader)
	case FormatDOCX:
		paragraphs, err := readDocxParagraphs(r)
		if err != nil {
			return nil, err
		}
		texts = paragraphBlocks(paragraphs)
	}

	blocks := make([]RawBlock, len(texts))
	for i, text := range texts {
		blocks[i] = RawBlock{Index: i, Text: text}
	}
	return blocks, nil
}

// rowBlocks turns each row into one block: non-empty cells in column order, space separated.
func rowBlocks(rows [][]string, skipHeader bool) []string {
	if skipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	var blocks []string
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				cells = append(cells, cell)
			}
		}
		if text := strings.TrimSpace(strings.Join(cells, " ")); text != "" {
			blocks = append(blocks, text)
		}
	}
	return blocks
}

// paragraphBlocks accumulates paragraphs until a blank one, which closes the block.
// A pending block at the end of the document is emitted as well.
func paragraphBlocks(paragraphs []string) []string {
	var (
		blocks  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		if text := strings.TrimSpace(current.String()); text != "" {
			blocks = append(blocks, text)
		}
		current.Reset()
	}

	for _, p := range paragraphs {
		text := strings.TrimSpace(p)
		if text == "" {
			flush()
			continue
		}
		current.WriteString(text)
		current.WriteString("\n")
	}
	flush()

	return blocks
}

func readXLSXRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

func readCSVRows(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// readDocxParagraphs returns the text of every body-level paragraph of a .docx file.
func readDocxParagraphs(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("open docx: %w", errMissingDocumentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open docx document part: %w", err)
	}
	defer rc.Close()

	var (
		dec        = xml.NewDecoder(rc)
		stack      []string
		paragraphs []string
		current    strings.Builder
		paraDepth  = -1
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse docx document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if name == "p" && paraDepth < 0 && len(stack) > 0 && stack[len(stack)-1] == "body" {
				paraDepth = len(stack)
				current.Reset()
			}
			if paraDepth >= 0 {
				switch name {
				case "t":
					inText = true
				case "tab":
					current.WriteByte('\t')
				case "br", "cr":
					current.WriteByte('\n')
				}
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case t.Name.Local == "t":
				inText = false
			case t.Name.Local == "p" && len(stack) == paraDepth:
				paragraphs = append(paragraphs, current.String())
				paraDepth = -1
			}
		case xml.CharData:
			if inText && paraDepth >= 0 {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
