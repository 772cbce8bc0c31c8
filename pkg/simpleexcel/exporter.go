// Package simpleexcel renders slices of structs or maps into sectioned
// xlsx workbooks, laid out either in code or from a YAML template.
package simpleexcel

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Constants & Types
// =============================================================================

const (
	SectionDirectionHorizontal = "horizontal"
	SectionDirectionVertical   = "vertical"
	SectionTypeFull            = "full"  // title, header and data
	SectionTypeTitleOnly       = "title" // a banner row only
)

// Formatter converts a cell value before it is written.
type Formatter func(interface{}) interface{}

// DataExporter is the main entry point for exporting data.
type DataExporter struct {
	// data holds data bound to section IDs (YAML flow)
	data map[string]interface{}
	// sheets holds template sheets first, then sheets added in code
	sheets     []*SheetBuilder
	formatters map[string]Formatter
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a section of data in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Type        string         `yaml:"type"` // "full" or "title"
	ColSpan     int            `yaml:"col_span"`
	Data        interface{}    `yaml:"-"` // bound at runtime
	ShowHeader  bool           `yaml:"show_header"`
	Direction   string         `yaml:"direction"` // "horizontal" or "vertical"
	Position    string         `yaml:"position"`  // e.g. "A1"
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	DataStyle   *StyleTemplate `yaml:"data_style"`
	HasFilter   bool           `yaml:"has_filter"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName     string         `yaml:"field_name"` // struct field name or map key
	Header        string         `yaml:"header"`
	Width         float64        `yaml:"width"`
	Formatter     Formatter      `yaml:"-"`
	FormatterName string         `yaml:"formatter"` // registered with RegisterFormatter
	Style         *StyleTemplate `yaml:"style"`     // overrides the section data style
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font      *FontTemplate      `yaml:"font"`
	Fill      *FillTemplate      `yaml:"fill"`
	Alignment *AlignmentTemplate `yaml:"alignment"`
	NumFmt    int                `yaml:"num_fmt"` // excelize built-in number format id
}

type AlignmentTemplate struct {
	Horizontal string `yaml:"horizontal"` // center, left, right
	Vertical   string `yaml:"vertical"`   // top, center, bottom
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// =============================================================================
// Constructors
// =============================================================================

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data:       make(map[string]interface{}),
		formatters: make(map[string]Formatter),
	}
}

// NewDataExporterFromYamlConfig creates an exporter whose sheets and
// sections come from a YAML template. Data is bound later by section ID.
func NewDataExporterFromYamlConfig(yamlConfig string) (*DataExporter, error) {
	if yamlConfig == "" {
		return nil, fmt.Errorf("yaml config is empty")
	}
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(yamlConfig), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("yaml config has no sheets")
	}

	exporter := NewDataExporter()
	for i := range tmpl.Sheets {
		sheetTmpl := &tmpl.Sheets[i]
		sb := exporter.AddSheet(sheetTmpl.Name)
		for j := range sheetTmpl.Sections {
			sb.AddSection(&sheetTmpl.Sections[j])
		}
	}
	return exporter, nil
}

// =============================================================================
// Fluent API
// =============================================================================

// AddSheet starts a new sheet builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{exporter: e, name: name}
	e.sheets = append(e.sheets, sb)
	return sb
}

// BindSectionData binds data to a section ID.
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// RegisterFormatter makes f available to columns by name.
func (e *DataExporter) RegisterFormatter(name string, f Formatter) *DataExporter {
	e.formatters[name] = f
	return e
}

// GetSheet returns a SheetBuilder by name, or nil if not found.
func (e *DataExporter) GetSheet(name string) *SheetBuilder {
	for _, sheet := range e.sheets {
		if sheet.name == name {
			return sheet
		}
	}
	return nil
}

// SheetNames lists the sheets in workbook order.
func (e *DataExporter) SheetNames() []string {
	names := make([]string, len(e.sheets))
	for i, sb := range e.sheets {
		names[i] = sb.name
	}
	return names
}

// BuildExcel renders every sheet into a new workbook.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}
	f := excelize.NewFile()

	for i, sb := range e.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sb.name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sb.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sb.name, err)
		}

		e.bind(sb)
		if err := e.renderSections(f, sb.name, sb.sections); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", sb.name, err)
		}
	}
	return f, nil
}

// bind copies data bound by ID into the sections of sb.
func (e *DataExporter) bind(sb *SheetBuilder) {
	for _, sec := range sb.sections {
		if sec.ID == "" {
			continue
		}
		if data, ok := e.data[sec.ID]; ok {
			sec.Data = data
		}
	}
}

// ExportToExcel generates the Excel file on disk.
func (e *DataExporter) ExportToExcel(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// ToBytes exports the Excel file to an in-memory byte slice.
func (e *DataExporter) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.ToWriter(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter exports the Excel file directly to a writer.
func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// =============================================================================
// SheetBuilder
// =============================================================================

type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(config *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, config)
	return sb
}

// Section returns the section with the given ID, or nil.
func (sb *SheetBuilder) Section(id string) *SectionConfig {
	for _, sec := range sb.sections {
		if sec.ID == id {
			return sec
		}
	}
	return nil
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}
