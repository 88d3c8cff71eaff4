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
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
)

// BubbleTeaModel is used to hold the state of the bubble tea TUI
type BubbleTeaModel struct {
	tableModel tableModel
}

// NewBubbleTeaModel initializes a new bubble tea Model which represents
// a filterable table of the result
func NewBubbleTeaModel(result interface{}) BubbleTeaModel {
	return BubbleTeaModel{
		tableModel: initTableModel(result),
	}
}

// Init is used by bubble tea to initialize a bubble tea table
func (m BubbleTeaModel) Init() tea.Cmd {
	return nil
}

// Update is used by bubble tea to update the state of the bubble
// tea model based on user input
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// don't quit while the user is typing a filter
		if !m.tableModel.filterTextInput.Focused() {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}
		} else if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.tableModel = m.tableModel.resizeView(msg)
		return m, nil
	}

	var cmd tea.Cmd
	m.tableModel, cmd = m.tableModel.update(msg)
	return m, cmd
}

// View is used by bubble tea to render the bubble tea model
func (m BubbleTeaModel) View() string {
	return m.tableModel.view()
}

// Rows returns the rows currently visible through the filter
func (m BubbleTeaModel) Rows() []table.Row {
	return m.tableModel.table.GetVisibleRows()
}

// InteractiveOutput runs a full screen table of result until the user quits
func InteractiveOutput(w io.Writer, result interface{}) error {
	p := tea.NewProgram(NewBubbleTeaModel(result), tea.WithOutput(w), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
