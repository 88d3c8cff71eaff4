package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// fileMarker names the source file the next go code block must match
var fileMarker = regexp.MustCompile(`^<!--\s*file:\s*(\S+)\s*-->$`)

// CodeBlock is a go code block from the README and the source file it mirrors
type CodeBlock struct {
	Path string
	Code string
}

// main compares the go code blocks of a README file against the example source files they mirror.
// This is useful to ensure that code examples in the readme are up-to-date with actual example go source files
func main() {
	readme := pflag.String("readme", "README.md", "Path of the README to check")
	root := pflag.String("root", ".", "Directory the code block file paths are relative to")
	pflag.Parse()

	contents, err := os.ReadFile(*readme)
	if err != nil {
		log.Fatal("unable to read README", "path", *readme, "err", err)
	}
	mismatches, err := Check(string(contents), *root)
	if err != nil {
		log.Fatal("unable to check README code blocks", "err", err)
	}
	for _, path := range mismatches {
		log.Error("Code Block found in README.md does not match corresponding source file", "path", path)
	}
	if len(mismatches) > 0 {
		os.Exit(1)
	}
}

// Check returns the paths of the source files whose README code block differs from the file
func Check(readme string, root string) ([]string, error) {
	mismatches := []string{}
	for _, block := range ParseCodeBlocks(readme) {
		fileContents, err := os.ReadFile(filepath.Join(root, block.Path))
		if err != nil {
			return nil, fmt.Errorf("unable to read file contents at %s: %w", block.Path, err)
		}
		if removeWhitespace(string(fileContents)) != removeWhitespace(block.Code) {
			mismatches = append(mismatches, block.Path)
		}
	}
	return mismatches, nil
}

// ParseCodeBlocks returns the go code blocks which follow a file marker comment
func ParseCodeBlocks(readme string) []CodeBlock {
	blocks := []CodeBlock{}
	var current *CodeBlock
	var code strings.Builder
	path := ""
	scanner := bufio.NewScanner(strings.NewReader(readme))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case current != nil && trimmed == "```":
			current.Code = code.String()
			blocks = append(blocks, *current)
			current = nil
			code.Reset()
		case current != nil:
			fmt.Fprintln(&code, line)
		case fileMarker.MatchString(trimmed):
			path = fileMarker.FindStringSubmatch(trimmed)[1]
		case trimmed == "```go" && path != "":
			current = &CodeBlock{Path: path}
			path = ""
		}
	}
	return blocks
}

func removeWhitespace(original string) string {
	return strings.Join(strings.Fields(original), "")
}
