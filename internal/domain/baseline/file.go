package baseline

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/okian/sgengine/internal/domain/types"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultModels []byte

// ModelSpec is a complete model definition as loaded from a file or database.
type ModelSpec struct {
	Name     string
	Params   Params
	Putting  []Point
	OffGreen []Point
}

// Baseline files look like:
//
//	models:
//	  - name: tour
//	    short_game_yards: 30
//	    proxy_lie: Rough
//	    putting:
//	      - {feet: 3, expected: 1.04}
//	    off_green:
//	      Fairway:
//	        - {yards: 100, expected: 2.80}
type fileDoc struct {
	Models []fileModel `yaml:"models"`
}

type fileModel struct {
	Name           string                 `yaml:"name"`
	ShortGameYards float64                `yaml:"short_game_yards"`
	ProxyLie       string                 `yaml:"proxy_lie"`
	Putting        []filePoint            `yaml:"putting"`
	OffGreen       map[string][]filePoint `yaml:"off_green"`
}

type filePoint struct {
	Feet     *float64 `yaml:"feet"`
	Yards    *float64 `yaml:"yards"`
	Expected float64  `yaml:"expected"`
}

// LoadFile reads model definitions from a YAML file.
func LoadFile(path string) ([]ModelSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open baseline file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Default returns the bundled reference models.
func Default() ([]ModelSpec, error) {
	return Decode(bytes.NewReader(defaultModels))
}

// Decode parses YAML model definitions. Unknown lies and points carrying the
// wrong distance unit are rejected.
func Decode(r io.Reader) ([]ModelSpec, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidCurve, err)
	}

	models := make([]ModelSpec, 0, len(doc.Models))
	for i, fm := range doc.Models {
		ms, err := fm.toModelSpec()
		if err != nil {
			return nil, fmt.Errorf("models[%d]: %w", i, err)
		}
		models = append(models, ms)
	}
	return models, nil
}

func (fm fileModel) toModelSpec() (ModelSpec, error) {
	if fm.Name == "" {
		return ModelSpec{}, fmt.Errorf("%w: model name must not be empty", ErrInvalidCurve)
	}
	ms := ModelSpec{
		Name:   fm.Name,
		Params: Params{ShortGameYards: DefaultShortGameYards, ProxyLie: DefaultProxyLie},
	}
	if fm.ShortGameYards != 0 {
		ms.Params.ShortGameYards = fm.ShortGameYards
	}
	if fm.ProxyLie != "" {
		lie, err := types.ParseLie(fm.ProxyLie)
		if err != nil {
			return ModelSpec{}, fmt.Errorf("%s proxy_lie: %w", fm.Name, err)
		}
		ms.Params.ProxyLie = lie
	}
	if err := ms.Params.Validate(); err != nil {
		return ModelSpec{}, fmt.Errorf("%s: %w", fm.Name, err)
	}

	for _, p := range fm.Putting {
		if p.Feet == nil || p.Yards != nil {
			return ModelSpec{}, fmt.Errorf("%w: %s putting points take feet only", ErrInvalidCurve, fm.Name)
		}
		ms.Putting = append(ms.Putting, Point{Lie: types.LieGreen, Distance: *p.Feet, Expected: p.Expected})
	}
	for raw, pts := range fm.OffGreen {
		lie, err := types.ParseLie(raw)
		if err != nil {
			return ModelSpec{}, fmt.Errorf("%s off_green: %w", fm.Name, err)
		}
		if !lie.HasCurve() {
			return ModelSpec{}, fmt.Errorf("%w: %s off_green lie %s has no curve", ErrInvalidCurve, fm.Name, lie)
		}
		for _, p := range pts {
			if p.Yards == nil || p.Feet != nil {
				return ModelSpec{}, fmt.Errorf("%w: %s %s points take yards only", ErrInvalidCurve, fm.Name, lie)
			}
			ms.OffGreen = append(ms.OffGreen, Point{Lie: lie, Distance: *p.Yards, Expected: p.Expected})
		}
	}
	return ms, nil
}
