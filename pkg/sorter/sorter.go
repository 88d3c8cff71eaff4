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

// Package sorter orders image listing rows by one or more JSON path fields.
package sorter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/oliveagle/jsonpath"

	"github.com/awsfinder/awsfinder/pkg/resources"
)

const (
	sortAscending  = "ascending"
	sortAsc        = "asc"
	sortDescending = "descending"
	sortDesc       = "desc"

	// NameField is the JSON path of a row's name
	NameField = "$.name"
	// VersionField is the JSON path of a row's version
	VersionField = "$.version"
	// IDField is the JSON path of a row's image id
	IDField = "$.id"
	// CreationDateField is the JSON path of a row's creation date
	CreationDateField = "$.creation_date"
)

// sorterNode represents a sortable row which holds the values
// to sort by, one per sort field
type sorterNode struct {
	row         resources.Row
	fieldValues []reflect.Value
}

// Sorter is used to sort rows based on sorting fields and a direction
type Sorter struct {
	sorters      []*sorterNode
	sortFields   []string
	isDescending bool
}

// Sort sorts the given rows by the sort fields and direction. Fields are compared
// in order and later fields only break ties of earlier ones. Rows that compare equal
// keep their input order in either direction.
//
// Each sort field is a JSON path into the JSON form of a resources.Row and must start
// with "$" (Ex: "$.creation_date").
//
// sortDirection represents the direction to sort in. Valid options: "ascending", "asc", "descending", "desc".
func Sort(rows []resources.Row, sortFields []string, sortDirection string) ([]resources.Row, error) {
	s, err := NewSorter(rows, sortFields, sortDirection)
	if err != nil {
		return nil, err
	}
	return s.Sort(), nil
}

// NewSorter creates a new Sorter object to be used to sort the given rows
// based on the sorting fields and direction
func NewSorter(rows []resources.Row, sortFields []string, sortDirection string) (*Sorter, error) {
	var isDescending bool
	switch strings.ToLower(sortDirection) {
	case sortDescending, sortDesc:
		isDescending = true
	case sortAscending, sortAsc:
		isDescending = false
	default:
		return nil, fmt.Errorf("invalid sort direction: %s (valid options: %s, %s, %s, %s)", sortDirection, sortAscending, sortAsc, sortDescending, sortDesc)
	}
	if len(sortFields) == 0 {
		return nil, fmt.Errorf("at least one sort field is required")
	}

	sorters := make([]*sorterNode, 0, len(rows))
	for _, row := range rows {
		node, err := newSorterNode(row, sortFields)
		if err != nil {
			return nil, fmt.Errorf("error creating sorting node: %w", err)
		}
		sorters = append(sorters, node)
	}

	return &Sorter{
		sorters:      sorters,
		sortFields:   sortFields,
		isDescending: isDescending,
	}, nil
}

// newSorterNode creates a new sorterNode object which represents the given row
// and can be used in sorting of rows based on the given sortFields
func newSorterNode(row resources.Row, sortFields []string) (*sorterNode, error) {
	jsonRow, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}

	// unmarshal into generic json values for json path parsing
	var jsonData interface{}
	if err := json.Unmarshal(jsonRow, &jsonData); err != nil {
		return nil, err
	}

	values := make([]reflect.Value, 0, len(sortFields))
	for _, field := range sortFields {
		result, err := jsonpath.JsonPathLookup(jsonData, field)
		if err != nil {
			return nil, err
		}
		values = append(values, reflect.ValueOf(result))
	}

	return &sorterNode{
		row:         row,
		fieldValues: values,
	}, nil
}

// Sort returns the Sorter's rows ordered by its fields and direction
func (s *Sorter) Sort() []resources.Row {
	sort.SliceStable(s.sorters, func(i, j int) bool {
		return s.less(s.sorters[i], s.sorters[j])
	})
	return s.Rows()
}

func (s *Sorter) less(nodeI, nodeJ *sorterNode) bool {
	for k := range s.sortFields {
		valI, valJ := nodeI.fieldValues[k], nodeJ.fieldValues[k]
		// values that cannot be compared always go to the end of the list
		okI, okJ := isComparable(valI), isComparable(valJ)
		switch {
		case !okI && !okJ:
			continue
		case !okI:
			return false
		case !okJ:
			return true
		}
		c := compare(valI, valJ)
		if c == 0 {
			continue
		}
		if s.isDescending {
			return c > 0
		}
		return c < 0
	}
	return false
}

func isComparable(val reflect.Value) bool {
	switch val.Kind() {
	case reflect.String, reflect.Float64, reflect.Bool:
		return true
	}
	return false
}

// compare returns -1, 0 or 1 for two values from the JSON form of a row.
// Strings that are both RFC3339 timestamps are compared as times.
func compare(valI, valJ reflect.Value) int {
	if valI.Kind() != valJ.Kind() {
		return strings.Compare(valI.Kind().String(), valJ.Kind().String())
	}
	switch valI.Kind() {
	case reflect.Float64:
		switch {
		case valI.Float() < valJ.Float():
			return -1
		case valI.Float() > valJ.Float():
			return 1
		}
		return 0
	case reflect.Bool:
		switch {
		case valI.Bool() == valJ.Bool():
			return 0
		case !valI.Bool():
			return -1
		}
		return 1
	default:
		strI, strJ := valI.String(), valJ.String()
		timeI, errI := time.Parse(time.RFC3339Nano, strI)
		timeJ, errJ := time.Parse(time.RFC3339Nano, strJ)
		if errI == nil && errJ == nil {
			return timeI.Compare(timeJ)
		}
		return strings.Compare(strI, strJ)
	}
}

// Rows returns the list of rows held in the Sorter
func (s *Sorter) Rows() []resources.Row {
	rows := make([]resources.Row, 0, len(s.sorters))
	for _, node := range s.sorters {
		rows = append(rows, node.row)
	}
	return rows
}
