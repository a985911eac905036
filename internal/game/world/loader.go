package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrContentUnavailable wraps every failure to read, parse, or validate base content.
// There is no fallback content: callers must surface it.
var ErrContentUnavailable = errors.New("content unavailable")

// Format identifies a content document encoding.
type Format string

// Supported content formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatForPath picks a format from a file extension, defaulting to YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// contentFile is the on-disk shape of a content document.
type contentFile struct {
	StartingRoom      string           `json:"startingRoom" yaml:"startingRoom"`
	ConfrontationRoom string           `json:"confrontationRoom,omitempty" yaml:"confrontationRoom,omitempty"`
	RequiredItems     *int             `json:"requiredItems,omitempty" yaml:"requiredItems,omitempty"`
	Rooms             map[string]*Room `json:"rooms" yaml:"rooms"`
}

// LoadContentFromFile reads and validates a content file.
//
// Precondition: path must name a YAML (.yaml/.yml) or JSON (.json) content file.
// Postcondition: Returns validated Content, or an error wrapping ErrContentUnavailable.
func LoadContentFromFile(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrContentUnavailable, path, err)
	}
	c, err := LoadContentFromBytes(data, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// LoadContentFromBytes parses and validates content.
//
// Postcondition: Returns validated Content, or an error wrapping ErrContentUnavailable.
func LoadContentFromBytes(data []byte, format Format) (*Content, error) {
	var file contentFile
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &file)
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing content: %w", ErrContentUnavailable, err)
	}

	c := convertContentFile(file)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: validating content: %w", ErrContentUnavailable, err)
	}
	return c, nil
}

// MarshalContent encodes c in the given format, the inverse of LoadContentFromBytes.
func MarshalContent(c *Content, format Format) ([]byte, error) {
	req := c.RequiredItems
	file := contentFile{
		StartingRoom:      c.StartingRoom,
		ConfrontationRoom: c.ConfrontationRoom,
		RequiredItems:     &req,
		Rooms:             c.Rooms,
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(file, "", "  ")
	case FormatYAML:
		return yaml.Marshal(file)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// convertContentFile fills defaults: room IDs come from map keys and a
// missing requiredItems means DefaultRequiredItems.
func convertContentFile(file contentFile) *Content {
	c := &Content{
		StartingRoom:      file.StartingRoom,
		ConfrontationRoom: file.ConfrontationRoom,
		RequiredItems:     DefaultRequiredItems,
		Rooms:             make(Graph, len(file.Rooms)),
	}
	if file.RequiredItems != nil {
		c.RequiredItems = *file.RequiredItems
	}
	for id, r := range file.Rooms {
		if r == nil {
			r = &Room{}
		}
		r.ID = id
		if r.Name == "" {
			r.Name = id
		}
		r.Desc = strings.TrimSpace(r.Desc)
		r.Exits = r.Exits.Live()
		c.Rooms[id] = r
	}
	return c
}
