// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package outputs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/evertras/bubble-table/table"
	"github.com/muesli/termenv"
	"github.com/samber/lo"

	"github.com/awsfinder/awsfinder/pkg/resources"
)

const (
	// table formatting
	headerAndFooterPadding = 8
	headerPadding          = 2
	initialDimensionVal    = 30

	// controls
	tableControls = "Controls: ↑/↓ - up/down • ←/→  - left/right • shift + ←/→ - pg up/down • f - filter • q - quit"
	ellipses      = "..."

	// column keys
	colKeyName         = "Name"
	colKeyVersion      = "Version"
	colKeyImageID      = "Image ID"
	colKeyCreated      = "Created"
	colKeyCreationDate = "Creation Date"
	colKeyInstanceID   = "Instance ID"
	colKeyPrivateIP    = "Private IP"
	colKeyState        = "State"
	colKeyValue        = "Value"

	creationDateLayout = "2006-01-02 15:04:05"
)

var (
	customBorder = table.Border{
		Top:    "─",
		Left:   "│",
		Right:  "│",
		Bottom: "─",

		TopRight:    "╮",
		TopLeft:     "╭",
		BottomRight: "╯",
		BottomLeft:  "╰",

		TopJunction:    "┬",
		LeftJunction:   "├",
		RightJunction:  "┤",
		BottomJunction: "┴",
		InnerJunction:  "┼",

		InnerDivider: "│",
	}
)

// tabular is a result laid out as named columns
type tabular struct {
	headers []string
	records []table.RowData
}

// toTabular lays out a command result as columns. Creation dates are shown relative to now.
func toTabular(result interface{}, now time.Time) tabular {
	switch r := result.(type) {
	case resources.Row:
		return toTabular([]resources.Row{r}, now)
	case []resources.Row:
		t := tabular{headers: []string{colKeyName, colKeyVersion, colKeyImageID, colKeyCreated, colKeyCreationDate}}
		for _, row := range r {
			t.records = append(t.records, table.RowData{
				colKeyName:         row.Name,
				colKeyVersion:      row.Version,
				colKeyImageID:      row.ID,
				colKeyCreated:      humanize.RelTime(row.CreationDate, now, "ago", "from now"),
				colKeyCreationDate: row.CreationDate.Format(creationDateLayout),
			})
		}
		return t
	case []resources.Instance:
		t := tabular{headers: []string{colKeyInstanceID, colKeyPrivateIP, colKeyImageID, colKeyState}}
		for _, instance := range r {
			t.records = append(t.records, table.RowData{
				colKeyInstanceID: instance.InstanceID,
				colKeyPrivateIP:  instance.PrivateIPAddress,
				colKeyImageID:    instance.ImageID,
				colKeyState:      string(instance.State),
			})
		}
		return t
	}
	t := tabular{headers: []string{colKeyValue}}
	for _, word := range Words(result) {
		t.records = append(t.records, table.RowData{colKeyValue: word})
	}
	return t
}

// createRows creates a table row for each record
func createRows(t tabular) []table.Row {
	rows := []table.Row{}
	for _, record := range t.records {
		rows = append(rows, table.NewRow(record))
	}
	return rows
}

// maxColWidth finds the maximum width element in the given column
func maxColWidth(t tabular, columnHeader string) int {
	// default max width is the width of the header itself with padding
	maxWidth := len(columnHeader) + headerPadding
	for _, record := range t.records {
		currWidth := len(fmt.Sprintf("%v", record[columnHeader])) + headerPadding
		if currWidth > maxWidth {
			maxWidth = currWidth
		}
	}
	return maxWidth
}

// createColumns creates a filterable column per header
func createColumns(t tabular) []table.Column {
	columns := []table.Column{}
	for _, header := range t.headers {
		columns = append(columns, table.NewColumn(header, header, maxColWidth(t, header)).WithFiltered(true))
	}
	return columns
}

// createKeyMap creates a KeyMap with the controls for the table
func createKeyMap() table.KeyMap {
	return table.KeyMap{
		RowDown: key.NewBinding(
			key.WithKeys("down"),
		),
		RowUp: key.NewBinding(
			key.WithKeys("up"),
		),
		ScrollLeft: key.NewBinding(
			key.WithKeys("left"),
		),
		ScrollRight: key.NewBinding(
			key.WithKeys("right"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("shift+right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("shift+left"),
		),
	}
}

func baseTable(t tabular) table.Model {
	return table.New(createColumns(t)).
		WithRows(createRows(t)).
		Border(customBorder).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left)).
		HeaderStyle(lipgloss.NewStyle().Align(lipgloss.Center).Bold(true))
}

// createTable creates an interactive table with paging and filtering
func createTable(t tabular) table.Model {
	return baseTable(t).
		WithKeyMap(createKeyMap()).
		WithPageSize(initialDimensionVal).
		Focused(true).
		WithMaxTotalWidth(initialDimensionVal).
		WithHorizontalFreezeColumnCount(1).
		Filtered(true)
}

// TableOutput writes result as a bordered table. Colors follow the capabilities of w.
func TableOutput(w io.Writer, result interface{}) error {
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	_, err := fmt.Fprintln(w, baseTable(toTabular(result, time.Now())).View())
	return err
}

type tableModel struct {
	// the model for the table output
	table table.Model

	tableWidth int

	// the model for the filtering text input
	filterTextInput textinput.Model
}

// initTableModel initializes and returns a new tableModel for the result
func initTableModel(result interface{}) tableModel {
	return tableModel{
		table:           createTable(toTabular(result, time.Now())),
		tableWidth:      initialDimensionVal,
		filterTextInput: createFilterTextInput(),
	}.updateFooter()
}

// createFilterTextInput creates and styles a text input for filtering
func createFilterTextInput() textinput.Model {
	filterTextInput := textinput.New()
	filterTextInput.Prompt = "Filter: "
	filterTextInput.PromptStyle = lipgloss.NewStyle().Bold(true)
	return filterTextInput
}

// resizeView will change the dimensions of the table in order to accommodate
// the new window dimensions represented by the given tea.WindowSizeMsg
func (m tableModel) resizeView(msg tea.WindowSizeMsg) tableModel {
	m.table = m.table.WithMaxTotalWidth(msg.Width)
	m.tableWidth = msg.Width

	if headerAndFooterPadding >= msg.Height {
		// height too short to fit rows
		m.table = m.table.WithPageSize(0)
	} else {
		m.table = m.table.WithPageSize(msg.Height - headerAndFooterPadding)
	}

	return m.updateFooter()
}

// updateFooter updates the page and controls string in the table footer
func (m tableModel) updateFooter() tableModel {
	controlsStr := tableControls

	// prevent controls text from wrapping to avoid table misprints
	pageStr := fmt.Sprintf("Page: %d/%d | ", m.table.CurrentPage(), m.table.MaxPages())
	if m.tableWidth < len(pageStr)+lipgloss.Width(controlsStr) {
		controls := []rune(tableControls)
		controlsWidth := lo.Clamp(m.tableWidth-len(ellipses)-len(pageStr)-2, 0, len(controls))
		controlsStr = string(controls[:controlsWidth]) + ellipses
	}

	renderedControls := lipgloss.NewStyle().Faint(true).Render(controlsStr)
	m.table = m.table.WithStaticFooter(pageStr + renderedControls)

	return m
}

// update updates the state of the tableModel
func (m tableModel) update(msg tea.Msg) (tableModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		// update filtering input field
		if m.filterTextInput.Focused() {
			var cmd tea.Cmd
			if msg.String() == "enter" || msg.String() == "esc" {
				m.filterTextInput.Blur()
			} else {
				m.filterTextInput, cmd = m.filterTextInput.Update(msg)
			}

			m.table = m.table.WithFilterInput(m.filterTextInput)
			return m.updateFooter(), cmd
		}

		if msg.String() == "f" {
			m.filterTextInput.Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m.updateFooter(), cmd
}

// view returns a string representing the table view
func (m tableModel) view() string {
	outputStr := strings.Builder{}

	outputStr.WriteString(m.table.View())
	outputStr.WriteString("\n")

	if m.filterTextInput.Value() != "" || m.filterTextInput.Focused() {
		outputStr.WriteString(m.filterTextInput.View())
		outputStr.WriteString("\n")
	}

	return outputStr.String()
}
