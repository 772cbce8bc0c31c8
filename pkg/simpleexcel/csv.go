package simpleexcel

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
)

// ToCSV writes every sheet as plain CSV: a "# sheet" marker line, then each
// section as title, header and data rows, with a blank line between
// sections. Styles and positions are ignored.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	csvWriter := csv.NewWriter(w)
	for _, sheet := range e.sheets {
		e.bind(sheet)
		if err := csvWriter.Write([]string{"# " + sheet.name}); err != nil {
			return err
		}
		for _, sec := range sheet.sections {
			if err := e.writeCSVSection(csvWriter, sec); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func (e *DataExporter) writeCSVSection(csvWriter *csv.Writer, sec *SectionConfig) error {
	if sec.Title != "" {
		if err := csvWriter.Write([]string{sec.Title}); err != nil {
			return err
		}
	}
	if sec.Type == SectionTypeTitleOnly {
		return nil
	}

	cols := mergeColumns(sec.Data, sec.Columns)
	if sec.ShowHeader && len(cols) > 0 {
		headerArr := make([]string, len(cols))
		for i, col := range cols {
			headerArr[i] = col.Header
			if headerArr[i] == "" {
				headerArr[i] = col.FieldName
			}
		}
		if err := csvWriter.Write(headerArr); err != nil {
			return err
		}
	}

	v := indirect(reflect.ValueOf(sec.Data))
	if v.IsValid() && v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			rowArr := make([]string, len(cols))
			for j, col := range cols {
				rowArr[j] = fmt.Sprintf("%v", e.format(col, extractValue(item, col.FieldName)))
			}
			if err := csvWriter.Write(rowArr); err != nil {
				return err
			}
		}
	}

	return csvWriter.Write([]string{""})
}
