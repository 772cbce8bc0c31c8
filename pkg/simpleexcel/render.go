package simpleexcel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// Rendering Logic
// =============================================================================

var (
	defaultTitleStyle = &StyleTemplate{
		Font:      &FontTemplate{Bold: true},
		Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
	}
	defaultHeaderStyle = &StyleTemplate{
		Font:      &FontTemplate{Bold: true},
		Fill:      &FillTemplate{Color: "D9E1F2"},
		Alignment: &AlignmentTemplate{Horizontal: "center", Vertical: "top"},
	}
)

// placement tracks where the next section goes. Vertical sections stack
// below everything rendered so far; horizontal ones continue to the right of
// the previous section, starting on its first row.
type placement struct {
	maxRow  int // first free row below all rendered sections
	bandRow int // first row of the previous section
	nextCol int // first free column right of the previous section
	count   int
}

func (p *placement) start(sec *SectionConfig) (col, row int) {
	if sec.Position != "" {
		if c, r, err := excelize.CellNameToCoordinates(sec.Position); err == nil {
			return c, r
		}
	}
	if p.count == 0 {
		return 1, 1
	}
	if sec.Direction == SectionDirectionHorizontal {
		return p.nextCol + 1, p.bandRow
	}
	return 1, p.maxRow + 1
}

func (p *placement) done(col, row, width, endRow int) {
	p.count++
	p.bandRow = row
	p.nextCol = col + width
	if endRow > p.maxRow {
		p.maxRow = endRow
	}
}

func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []*SectionConfig) error {
	p := &placement{maxRow: 1, bandRow: 1, nextCol: 1}
	styles := newStyleCache(f)

	for _, sec := range sections {
		cols := mergeColumns(sec.Data, sec.Columns)
		sCol, sRow := p.start(sec)
		currentRow := sRow

		width := len(cols)
		if sec.Type == SectionTypeTitleOnly || width == 0 {
			width = sec.ColSpan
		}
		if width < 1 {
			width = 1
		}

		if sec.Title != "" {
			cell, _ := excelize.CoordinatesToCellName(sCol, currentRow)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			styleID, err := styles.get(resolveStyle(sec.TitleStyle, defaultTitleStyle))
			if err != nil {
				return err
			}
			endCell := cell
			if width > 1 {
				endCell, _ = excelize.CoordinatesToCellName(sCol+width-1, currentRow)
				if err := f.MergeCell(sheet, cell, endCell); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, endCell, styleID); err != nil {
				return err
			}
			currentRow++
		}

		if sec.Type == SectionTypeTitleOnly {
			p.done(sCol, sRow, width, currentRow)
			continue
		}

		headerRow := currentRow
		if sec.ShowHeader {
			styleID, err := styles.get(resolveStyle(sec.HeaderStyle, defaultHeaderStyle))
			if err != nil {
				return err
			}
			for i, col := range cols {
				cell, _ := excelize.CoordinatesToCellName(sCol+i, currentRow)
				header := col.Header
				if header == "" {
					header = col.FieldName
				}
				if err := f.SetCellValue(sheet, cell, header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					colName, _ := excelize.ColumnNumberToName(sCol + i)
					if err := f.SetColWidth(sheet, colName, colName, col.Width); err != nil {
						return err
					}
				}
			}
			currentRow++
		}

		colStyles := make([]int, len(cols))
		for j, col := range cols {
			base := sec.DataStyle
			if col.Style != nil {
				base = col.Style
			}
			id, err := styles.get(resolveStyle(base, nil))
			if err != nil {
				return err
			}
			colStyles[j] = id
		}

		dataVal := indirect(reflect.ValueOf(sec.Data))
		if dataVal.IsValid() && dataVal.Kind() == reflect.Slice {
			for i := 0; i < dataVal.Len(); i++ {
				item := dataVal.Index(i)
				for j, col := range cols {
					cell, _ := excelize.CoordinatesToCellName(sCol+j, currentRow)
					val := e.format(col, extractValue(item, col.FieldName))
					if err := f.SetCellValue(sheet, cell, val); err != nil {
						return err
					}
					if colStyles[j] != 0 {
						if err := f.SetCellStyle(sheet, cell, cell, colStyles[j]); err != nil {
							return err
						}
					}
				}
				currentRow++
			}
		}

		if sec.HasFilter && sec.ShowHeader && len(cols) > 0 {
			firstCell, _ := excelize.CoordinatesToCellName(sCol, headerRow)
			lastCell, _ := excelize.CoordinatesToCellName(sCol+len(cols)-1, currentRow-1)
			if err := f.AutoFilter(sheet, fmt.Sprintf("%s:%s", firstCell, lastCell), nil); err != nil {
				return err
			}
		}

		p.done(sCol, sRow, width, currentRow)
	}
	return nil
}

// format applies the column formatter, falling back to the named one.
func (e *DataExporter) format(col ColumnConfig, val interface{}) interface{} {
	if col.Formatter != nil {
		return col.Formatter(val)
	}
	if col.FormatterName != "" {
		if fn, ok := e.formatters[col.FormatterName]; ok {
			return fn(val)
		}
	}
	return val
}

// resolveStyle fills the unset parts of base from the default style.
func resolveStyle(base, defaultStyle *StyleTemplate) *StyleTemplate {
	if base == nil {
		return defaultStyle
	}
	s := *base
	if defaultStyle != nil {
		if s.Font == nil {
			s.Font = defaultStyle.Font
		}
		if s.Fill == nil {
			s.Fill = defaultStyle.Fill
		}
		if s.Alignment == nil {
			s.Alignment = defaultStyle.Alignment
		}
		if s.NumFmt == 0 {
			s.NumFmt = defaultStyle.NumFmt
		}
	}
	return &s
}

// styleCache avoids registering one excelize style per cell.
type styleCache struct {
	f   *excelize.File
	ids map[StyleTemplate]int
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, ids: make(map[StyleTemplate]int)}
}

func (c *styleCache) get(tmpl *StyleTemplate) (int, error) {
	if tmpl == nil {
		return 0, nil
	}
	if id, ok := c.ids[*tmpl]; ok {
		return id, nil
	}
	id, err := createStyle(c.f, tmpl)
	if err != nil {
		return 0, err
	}
	c.ids[*tmpl] = id
	return id, nil
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	style := &excelize.Style{NumFmt: tmpl.NumFmt}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	if tmpl.Alignment != nil {
		style.Alignment = &excelize.Alignment{
			Horizontal: tmpl.Alignment.Horizontal,
			Vertical:   tmpl.Alignment.Vertical,
		}
	}
	return f.NewStyle(style)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	item = indirect(item)
	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(fieldName); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		if val := item.MapIndex(reflect.ValueOf(fieldName)); val.IsValid() {
			return val.Interface()
		}
	}
	return ""
}

// mergeColumns returns the configured columns, or a default column for every
// field detected from data when none are configured.
func mergeColumns(data interface{}, userConfigs []ColumnConfig) []ColumnConfig {
	if len(userConfigs) > 0 {
		return userConfigs
	}
	fields := getFields(data)
	cols := make([]ColumnConfig, 0, len(fields))
	for _, field := range fields {
		cols = append(cols, ColumnConfig{FieldName: field, Header: field, Width: 20})
	}
	return cols
}

// getFields lists exported struct fields, or the sorted keys of the first
// rows when data is a slice of maps.
func getFields(data interface{}) []string {
	v := indirect(reflect.ValueOf(data))
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Struct {
		return getStructFields(v.Type())
	}
	if v.Kind() != reflect.Slice {
		return nil
	}

	elemType := v.Type().Elem()
	for elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() == reflect.Struct {
		return getStructFields(elemType)
	}

	limit := v.Len()
	if limit > 50 {
		limit = 50
	}
	seen := make(map[string]bool)
	var keys []string
	for i := 0; i < limit; i++ {
		row := indirect(v.Index(i))
		if row.Kind() != reflect.Map {
			continue
		}
		for _, key := range row.MapKeys() {
			k := fmt.Sprint(key.Interface())
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func getStructFields(t reflect.Type) []string {
	var fields []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		fields = append(fields, field.Name)
	}
	return fields
}
