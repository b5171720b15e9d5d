package storage

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/tree"
)

// xmlDocument is the root element of an XML export.
type xmlDocument struct {
	XMLName xml.Name    `xml:"mindmap"`
	Root    *model.Node `xml:"node"`
}

// FormatFromPath picks the file format from the extension, defaulting to json.
func FormatFromPath(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".xml") {
		return "xml"
	}
	return "json"
}

// FileExport exports a node tree to a file in the specified format (JSON or XML).
func FileExport(root *model.Node, filename string, format string) error {
	var data []byte
	switch format {
	case "json":
		text, err := tree.SerializeIndent(root)
		if err != nil {
			return fmt.Errorf("failed to marshal mindmap: %w", err)
		}
		data = []byte(text)
	case "xml":
		out, err := xml.MarshalIndent(xmlDocument{Root: root}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal mindmap: %w", err)
		}
		data = append([]byte(xml.Header), out...)
	default:
		return model.NewError(model.ErrValidation, "export", "unsupported format: %s", format)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileImport reads a node tree from a file in the specified format (JSON or XML).
// The result is normalized but ids and parent references are left to the caller.
func FileImport(filename string, format string) (*model.Node, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var root *model.Node
	switch format {
	case "json":
		root, err = tree.Deserialize(string(data))
		if err != nil {
			return nil, err
		}
	case "xml":
		var doc xmlDocument
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, model.WrapError(model.ErrInvalidFormat, "import", err)
		}
		if doc.Root == nil {
			return nil, model.NewError(model.ErrInvalidFormat, "import", "document has no root node")
		}
		root = doc.Root
	default:
		return nil, model.NewError(model.ErrValidation, "import", "unsupported format: %s", format)
	}

	tree.Normalize(root)
	return root, nil
}
