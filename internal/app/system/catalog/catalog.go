// Package catalog holds the stage definitions ("linha metrô") of each
// programme and the municipality list, read from YAML.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/suashub/suashub/internal/app/system/htmlsanitize"
	"github.com/suashub/suashub/internal/app/system/metroline"
	"github.com/suashub/suashub/internal/domain/models"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultYAML []byte

// StageDef is one stage definition.
type StageDef struct {
	Codigo    string `yaml:"codigo"`
	Nome      string `yaml:"nome"`
	Descricao string `yaml:"descricao"` // markdown
	Ordem     int    `yaml:"ordem"`
	SLADias   *int   `yaml:"sla_dias"`
}

func (d StageDef) StageKey() string      { return d.Codigo }
func (d StageDef) StageTitle() string    { return d.Nome }
func (d StageDef) StageSubtitle() string { return d.Descricao }

// Programa is a programme and its ordered stages.
type Programa struct {
	Codigo string     `yaml:"codigo"`
	Nome   string     `yaml:"nome"`
	Etapas []StageDef `yaml:"etapas"`
}

// Catalog is the whole file.
type Catalog struct {
	Programas  []Programa         `yaml:"programas"`
	Municipios []models.Municipio `yaml:"municipios"`
}

// Default parses the embedded catalogue.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalogue file; an empty path returns Default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a catalogue.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	for pi := range c.Programas {
		for ei := range c.Programas[pi].Etapas {
			if c.Programas[pi].Etapas[ei].Ordem == 0 {
				c.Programas[pi].Etapas[ei].Ordem = ei + 1
			}
		}
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	var problems []string
	if len(c.Programas) == 0 {
		problems = append(problems, "no programas")
	}
	progs := map[string]bool{}
	for _, p := range c.Programas {
		if p.Codigo == "" {
			problems = append(problems, "programa without codigo")
			continue
		}
		if progs[p.Codigo] {
			problems = append(problems, "duplicate programa "+p.Codigo)
		}
		progs[p.Codigo] = true
		if len(p.Etapas) == 0 {
			problems = append(problems, p.Codigo+": no etapas")
		}
		seen := map[string]bool{}
		for i, e := range p.Etapas {
			if strings.TrimSpace(e.Codigo) == "" {
				problems = append(problems, fmt.Sprintf("%s: etapa %d without codigo", p.Codigo, i))
				continue
			}
			if seen[e.Codigo] {
				problems = append(problems, fmt.Sprintf("%s: duplicate etapa %s", p.Codigo, e.Codigo))
			}
			seen[e.Codigo] = true
			if e.SLADias != nil && *e.SLADias < 0 {
				problems = append(problems, fmt.Sprintf("%s: etapa %s has negative sla_dias", p.Codigo, e.Codigo))
			}
		}
	}
	mun := map[int64]bool{}
	for _, m := range c.Municipios {
		if mun[m.ID] {
			problems = append(problems, fmt.Sprintf("duplicate municipio %d", m.ID))
		}
		mun[m.ID] = true
	}
	if len(problems) > 0 {
		return errors.New("catalog: " + strings.Join(problems, "; "))
	}
	return nil
}

// Programa looks a programme up by code.
func (c *Catalog) Programa(codigo string) (Programa, bool) {
	for _, p := range c.Programas {
		if p.Codigo == codigo {
			return p, true
		}
	}
	return Programa{}, false
}

// Stages returns the canonical stages of the programme.
func (p Programa) Stages() []metroline.Stage {
	return metroline.NormalizeStages(p.Etapas)
}

// Etapa finds a stage definition by code.
func (p Programa) Etapa(codigo string) (StageDef, bool) {
	for _, e := range p.Etapas {
		if e.Codigo == codigo {
			return e, true
		}
	}
	return StageDef{}, false
}

// First returns the code of the first stage.
func (p Programa) First() string {
	if len(p.Etapas) == 0 {
		return ""
	}
	return p.Etapas[0].Codigo
}

// StageData builds the detailed stage shape, without events.
func (p Programa) StageData() []metroline.StageData {
	out := make([]metroline.StageData, len(p.Etapas))
	for i, e := range p.Etapas {
		out[i] = metroline.StageData{
			Codigo:    e.Codigo,
			Nome:      e.Nome,
			Descricao: e.Descricao,
			Ordem:     e.Ordem,
			SLADias:   e.SLADias,
		}
	}
	return out
}

var md = goldmark.New()

// HelpHTML renders a stage description (markdown) to sanitised HTML.
func HelpHTML(markdown string) template.HTML {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return htmlsanitize.PlainTextToHTML(markdown)
	}
	return htmlsanitize.SanitizeToHTML(buf.String())
}

// HelpMap renders the help text of every stage that has one, keyed by
// stage code.
func (p Programa) HelpMap() map[string]template.HTML {
	out := make(map[string]template.HTML, len(p.Etapas))
	for _, d := range p.Etapas {
		if html := HelpHTML(d.Descricao); html != "" {
			out[d.Codigo] = html
		}
	}
	return out
}
