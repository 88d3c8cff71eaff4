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

// Package outputs renders command results as json, yaml, text, a static table or an interactive table.
package outputs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/awsfinder/awsfinder/pkg/resources"
)

// Format names an output renderer
type Format string

// Output formats
const (
	JSON        Format = "json"
	Text        Format = "text"
	YAML        Format = "yaml"
	Table       Format = "table"
	Interactive Format = "interactive"
)

// Formats lists the accepted output format names
var Formats = []string{string(JSON), string(Text), string(YAML), string(Table), string(Interactive)}

// Render writes result to w in the given format
func Render(w io.Writer, format Format, result interface{}) error {
	switch format {
	case JSON:
		return JSONOutput(w, result)
	case YAML:
		return YAMLOutput(w, result)
	case Text:
		return TextOutput(w, result)
	case Table:
		return TableOutput(w, result)
	case Interactive:
		return InteractiveOutput(w, result)
	}
	return fmt.Errorf("unknown output format %q (valid options: %s)", format, strings.Join(Formats, ", "))
}

// JSONOutput writes result as indented JSON
func JSONOutput(w io.Writer, result interface{}) error {
	output, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("unable to convert result to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

// YAMLOutput writes result as a YAML document
func YAMLOutput(w io.Writer, result interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("unable to convert result to YAML: %w", err)
	}
	return encoder.Close()
}

// TextOutput writes result as one line of space separated, shell quoted words
func TextOutput(w io.Writer, result interface{}) error {
	_, err := fmt.Fprintln(w, shellquote.Join(Words(result)...))
	return err
}

// Worder is implemented by results which choose their own text output words
type Worder interface {
	Words() []string
}

// Words flattens result into the words of a text line
func Words(result interface{}) []string {
	switch r := result.(type) {
	case nil:
		return []string{}
	case string:
		return []string{r}
	case []string:
		return r
	case resources.Row:
		return []string{r.String()}
	case []resources.Row:
		return lo.Map(r, func(row resources.Row, _ int) string { return row.String() })
	case []resources.Instance:
		return lo.Map(r, func(instance resources.Instance, _ int) string { return instance.InstanceID })
	case Worder:
		return r.Words()
	case fmt.Stringer:
		return []string{r.String()}
	}
	return []string{fmt.Sprint(result)}
}
