package ingest

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/ekisa-team/campus-assistant/internal/xfs"
)

// Document is one PDF page or one spreadsheet sheet.
type Document struct {
	Source  string
	Page    int
	Content string
}

type sheet struct {
	name string
	rows [][]string
}

// LoadDocuments loads every PDF and Excel file directly under dir.
// PDF pages and sheets without text are skipped.
func LoadDocuments(dir string) ([]Document, error) {
	files, err := xfs.ListFiles(dir, ".pdf", ".xlsx")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDocuments, dir)
	}

	var docs []Document
	for _, path := range files {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded document", "file", filepath.Base(path), "parts", len(loaded))
		docs = append(docs, loaded...)
	}

	return docs, nil
}

func loadFile(path string) ([]Document, error) {
	source := filepath.Base(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err := readPDFPages(path)
		if err != nil {
			return nil, err
		}
		var docs []Document
		for i, text := range pages {
			if strings.TrimSpace(text) == "" {
				continue
			}
			docs = append(docs, Document{Source: source, Page: i + 1, Content: text})
		}
		return docs, nil

	case ".xlsx":
		sheets, err := readSheets(path)
		if err != nil {
			return nil, err
		}
		var docs []Document
		for i, sh := range sheets {
			text := sheetText(sh)
			if text == "" {
				continue
			}
			docs = append(docs, Document{Source: source, Page: i + 1, Content: text})
		}
		return docs, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// readPDFPages returns the plain text of every page, in order.
func readPDFPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}

func readSheets(path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s of %s: %w", name, path, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}

	return sheets, nil
}

// sheetText renders a sheet as tab-separated lines, one per non-empty row.
func sheetText(sh sheet) string {
	var b strings.Builder
	for _, row := range sh.rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}
