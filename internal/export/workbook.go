// Package export builds the XLSX attachment of a dispatch.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName     = 31
	fallbackSheet    = "Planilha"
	invalidSheetRune = "[]:*?/\\'"
	maxSuffixTries   = 200
)

// Sheet is one tab of the workbook. Header may be empty.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// SheetName sanitizes name for Excel and, when used is non-nil, makes it
// unique among the names already recorded there.
func SheetName(name string, used map[string]struct{}) string {
	base := sheetNameBase(name)
	if used == nil {
		return base
	}
	if _, taken := used[base]; !taken {
		used[base] = struct{}{}
		return base
	}

	for i := 2; i < maxSuffixTries; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		candidate := strings.TrimRight(truncateRunes(base, maxSheetName-len(suffix)), " ") + suffix
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
	}

	fallback := fmt.Sprintf("%s (%d)", truncateRunes(base, 27), len(used)+1)
	used[fallback] = struct{}{}
	return fallback
}

func sheetNameBase(name string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetRune, r) {
			return '-'
		}
		return r
	}, name)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = fallbackSheet
	}
	return truncateRunes(clean, maxSheetName)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Workbook writes every sheet in order and returns the encoded file.
func Workbook(sheets []Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]struct{})
	defaultSheet := f.GetSheetName(0)

	for i, sheet := range sheets {
		name := SheetName(sheet.Name, used)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeSheet(f, name, sheet, headerStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet, headerStyle int) error {
	row := 1
	if len(sheet.Header) > 0 {
		header := make([]any, len(sheet.Header))
		for i, h := range sheet.Header {
			header[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", name, err)
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", name, err)
		}
		row++
	}

	for _, values := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := values
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", row, name, err)
		}
		row++
	}
	return nil
}
