package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	quotedRecord  = regexp.MustCompile(`"(IT\d{3})","([^"]+)"`)
	plainRecord   = regexp.MustCompile(`^(IT\d{3})\s+(.*)$`)
	examNoCell    = regexp.MustCompile(`^IT\d{3}$`)
	studentIDWord = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// Record is one student parsed from the roll-number roster.
type Record struct {
	ExamNo    string
	Name      string
	StudentID string
}

// LoadRoster reads a PDF or Excel roster and returns its records sorted by exam number.
func LoadRoster(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err := readPDFPages(path)
		if err != nil {
			return nil, err
		}
		return ParseRosterText(strings.Join(pages, "")), nil
	case ".xlsx", ".xlsm":
		sheets, err := readSheets(path)
		if err != nil {
			return nil, err
		}
		return parseRosterRows(sheets), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// ParseRosterText extracts records from roster text. Each line is matched
// against the quoted CSV-like form first, then the plain "IT001 NAME" form.
// The first occurrence of an exam number wins.
func ParseRosterText(text string) []Record {
	seen := make(map[string]bool)
	var records []Record

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "\r", ""))
		if line == "" {
			continue
		}

		var examNo, raw string
		if m := quotedRecord.FindStringSubmatch(line); m != nil {
			examNo, raw = m[1], m[2]
		} else if m := plainRecord.FindStringSubmatch(line); m != nil {
			examNo, raw = m[1], m[2]
		}
		if examNo == "" || raw == "" || seen[examNo] {
			continue
		}

		seen[examNo] = true
		records = append(records, newRecord(examNo, raw))
	}

	sortRecords(records)
	return records
}

func parseRosterRows(sheets []sheet) []Record {
	seen := make(map[string]bool)
	var records []Record

	for _, sh := range sheets {
		for _, row := range sh.rows {
			if len(row) == 0 {
				continue
			}
			examNo := strings.TrimSpace(row[0])
			if !examNoCell.MatchString(examNo) || seen[examNo] {
				continue
			}
			for _, cell := range row[1:] {
				if raw := strings.TrimSpace(cell); raw != "" {
					seen[examNo] = true
					records = append(records, newRecord(examNo, raw))
					break
				}
			}
		}
	}

	sortRecords(records)
	return records
}

// newRecord splits a leading student ID off the raw name when present,
// e.g. "22ITUON059 AGHERA AAYUSH" -> ("22ITUON059", "AGHERA AAYUSH").
func newRecord(examNo, raw string) Record {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)

	r := Record{ExamNo: examNo, Name: strings.TrimSpace(raw)}
	if first, rest, ok := strings.Cut(raw, " "); ok && studentIDWord.MatchString(first) {
		r.StudentID = first
		r.Name = strings.TrimSpace(rest)
	}

	return r
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ExamNo < records[j].ExamNo
	})
}
