package output

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx/v2"

	"github.com/genomenote/rsclass/internal/classify"
)

// SheetName is the worksheet the report is written to.
const SheetName = "variations"

// XLSXWriter collects classified calls into a single-sheet workbook. Numeric
// columns are stored as numbers.
type XLSXWriter struct {
	file  *xlsx.File
	sheet *xlsx.Sheet
}

// NewXLSXWriter creates a workbook with a header row.
func NewXLSXWriter() (*XLSXWriter, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}
	return &XLSXWriter{file: f, sheet: sheet}, nil
}

// Write appends one classified call.
func (xw *XLSXWriter) Write(cc classify.ClassifiedCall) {
	c, r := cc.Call, cc.Row
	row := xw.sheet.AddRow()
	row.AddCell().SetString(c.SampleID)
	row.AddCell().SetString(c.Identifier)
	row.AddCell().SetString(c.Chromosome)
	row.AddCell().SetInt64(c.Position)
	row.AddCell().SetString(c.Alleles)
	row.AddCell().SetString(cc.Classification)
	row.AddCell().SetString(string(r.Type))
	row.AddCell().SetString(r.Description)
	row.AddCell().SetString(r.Deleted)
	row.AddCell().SetString(r.Inserted)
	row.AddCell().SetInt64(r.AlleleCount)
	row.AddCell().SetInt64(r.TotalCount)
	row.AddCell().SetFloat(r.ObservedFrequency)
	row.AddCell().SetString(r.Diseases)
	row.AddCell().SetString(r.Significance)
	row.AddCell().SetInt64(r.Submissions)
	row.AddCell().SetString(r.GeneLocus)
	row.AddCell().SetString(r.GeneName)
}

// Save writes the workbook to path.
func (xw *XLSXWriter) Save(path string) error {
	if err := xw.file.Save(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// Encode writes the workbook to w.
func (xw *XLSXWriter) Encode(w io.Writer) error {
	if err := xw.file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
