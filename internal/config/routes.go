package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/router"
)

// RouteSpec is the file form of a route.
type RouteSpec struct {
	Path     string   `yaml:"path" toml:"path" json:"path"`
	Name     string   `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Redirect string   `yaml:"redirect,omitempty" toml:"redirect,omitempty" json:"redirect,omitempty"`
	Alias    []string `yaml:"alias,omitempty" toml:"alias,omitempty" json:"alias,omitempty"`

	// Component names the default view.
	Component string `yaml:"component,omitempty" toml:"component,omitempty" json:"component,omitempty"`

	// Components names views by slot.
	Components map[string]string `yaml:"components,omitempty" toml:"components,omitempty" json:"components,omitempty"`

	// Chunk is the key of a lazily loaded default view.
	Chunk string `yaml:"chunk,omitempty" toml:"chunk,omitempty" json:"chunk,omitempty"`

	Meta     map[string]any `yaml:"meta,omitempty" toml:"meta,omitempty" json:"meta,omitempty"`
	Children []RouteSpec    `yaml:"children,omitempty" toml:"children,omitempty" json:"children,omitempty"`
}

type routeTable struct {
	Routes []RouteSpec `yaml:"routes" toml:"routes" json:"routes"`
}

// LoadRoutes reads a route table. The extension selects the format.
func LoadRoutes(path string) ([]RouteSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeRoutesRead).
			WithDetail("Failed to read " + path).
			Wrap(err)
	}

	specs, err := ParseRoutes(data, filepath.Ext(path))
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Code == errors.CodeRoutesParse {
			if line := errorLine(data, err); line > 0 {
				e.WithLocation(path, line, 0)
			}
		}
		return nil, err
	}
	return specs, nil
}

// ParseRoutes decodes a route table. format is a file extension: ".yaml",
// ".yml", ".toml" or ".json".
func ParseRoutes(data []byte, format string) ([]RouteSpec, error) {
	var table routeTable
	var err error

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&table)
		if stderrors.Is(err, io.EOF) {
			err = nil
		}
	case "toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), &table)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown key %s", undecoded[0])
			}
		}
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&table)
	default:
		return nil, errors.New(errors.CodeRoutesFormat).
			WithDetail(fmt.Sprintf("Route tables are read by file extension; %q is not one of .yaml, .yml, .toml or .json.", format))
	}

	if err != nil {
		return nil, errors.New(errors.CodeRoutesParse).Wrap(err)
	}
	return table.Routes, nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// errorLine finds the 1-based line a decoder error points at, or 0.
func errorLine(data []byte, err error) int {
	var (
		tomlErr   toml.ParseError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case stderrors.As(err, &tomlErr):
		return tomlErr.Position.Line
	case stderrors.As(err, &syntaxErr):
		return lineAt(data, syntaxErr.Offset)
	case stderrors.As(err, &typeErr):
		return lineAt(data, typeErr.Offset)
	}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func lineAt(data []byte, offset int64) int {
	offset = min(offset, int64(len(data)))
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// ChunkSource produces lazily loaded views by key. *chunk.Loader is one.
type ChunkSource interface {
	View(key string) router.ViewFactory
}

// BuildRoutes turns specs into router configs. Named views become
// *router.Component values; chunk views are loaded through chunks.
func BuildRoutes(specs []RouteSpec, chunks ChunkSource) ([]router.RouteConfig, error) {
	out := make([]router.RouteConfig, 0, len(specs))
	for _, spec := range specs {
		cfg, err := buildRoute(spec, chunks)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func buildRoute(spec RouteSpec, chunks ChunkSource) (router.RouteConfig, error) {
	cfg := router.RouteConfig{
		Path:  spec.Path,
		Name:  spec.Name,
		Alias: spec.Alias,
		Meta:  spec.Meta,
	}
	if spec.Redirect != "" {
		cfg.Redirect = spec.Redirect
	}

	if len(spec.Components) > 0 {
		cfg.Components = make(map[string]any, len(spec.Components))
		for slot, name := range spec.Components {
			cfg.Components[slot] = &router.Component{Name: name}
		}
	}

	switch {
	case spec.Chunk != "" && spec.Component != "":
		return cfg, errors.New(errors.CodeRoutesInvalid).
			WithDetail(fmt.Sprintf("Route %s sets both component and chunk.", spec.Path))
	case spec.Chunk != "":
		if chunks == nil {
			return cfg, errors.New(errors.CodeRoutesInvalid).
				WithDetail(fmt.Sprintf("Route %s loads chunk %s but no chunk bucket is configured.", spec.Path, spec.Chunk)).
				WithSuggestion("Set chunks.bucket in the vnav config")
		}
		cfg.Component = chunks.View(spec.Chunk)
	case spec.Component != "":
		cfg.Component = &router.Component{Name: spec.Component}
	}
	if cfg.Components != nil && cfg.Component != nil {
		if _, ok := cfg.Components["default"]; !ok {
			cfg.Components["default"] = cfg.Component
		}
		cfg.Component = nil
	}

	for _, child := range spec.Children {
		c, err := buildRoute(child, chunks)
		if err != nil {
			return cfg, err
		}
		cfg.Children = append(cfg.Children, c)
	}
	return cfg, nil
}
