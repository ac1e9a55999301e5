// Package content loads the site copy, venue details and scroll reveal
// configuration from YAML.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/okian/delhihouse/internal/domain/reveal"
)

//go:embed content.yaml
var defaultYAML []byte

// Content is the whole site content document.
type Content struct {
	Site   Site    `yaml:"site"`
	Home   Home    `yaml:"home"`
	About  About   `yaml:"about"`
	Vanish Vanish  `yaml:"vanish"`
	Venues []Venue `yaml:"venues"`
}

type Site struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
}

type Home struct {
	Hero struct {
		Title string `yaml:"title"`
		Video string `yaml:"video"`
	} `yaml:"hero"`
	Sections []Section `yaml:"sections"`
	News     []News    `yaml:"news"`
}

type About struct {
	Title    string    `yaml:"title"`
	Subtitle string    `yaml:"subtitle"`
	Image    string    `yaml:"image"`
	Sections []Section `yaml:"sections"`
	// Markdown is rendered below the story sections.
	Markdown string `yaml:"markdown"`
}

type News struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
	Image string `yaml:"image"`
}

// Vanish is the letter vanish setting shared by all vanishing headings.
type Vanish struct {
	Threshold    float64       `yaml:"threshold"`
	StaggerDelay time.Duration `yaml:"stagger_delay"`
}

// Venue is one restaurant location.
type Venue struct {
	// ID is the booking provider restaurant id.
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Phone    string   `yaml:"phone"`
	Address  string   `yaml:"address"`
	Landmark string   `yaml:"landmark"`
	Hours    []string `yaml:"hours"`
}

// Section is a tracked page section. Its progress reveals the words of
// Intro and every block's Text, in order.
type Section struct {
	ID        string               `yaml:"id"`
	Mode      string               `yaml:"mode"`
	Landmarks reveal.Landmarks     `yaml:"landmarks"`
	Heading   string               `yaml:"heading"`
	Intro     string               `yaml:"intro"`
	Blocks    []Block              `yaml:"blocks"`
	Images    map[string]ImageSpec `yaml:"images"`
}

// Block is a heading, paragraph and optional image inside a section.
type Block struct {
	ID         string `yaml:"id"`
	Heading    string `yaml:"heading"`
	Vanish     bool   `yaml:"vanish"`
	Text       string `yaml:"text"`
	Image      string `yaml:"image"`
	Alt        string `yaml:"alt"`
	ImageKey   string `yaml:"image_key"`
	ImageRight bool   `yaml:"image_right"`
}

// ImageSpec names a built-in table or lists breakpoints.
type ImageSpec struct {
	Preset string         `yaml:"preset"`
	Points []reveal.Point `yaml:"points"`
}

var presets = map[string]reveal.Table{
	"restaurant_zoom": reveal.RestaurantZoom,
	"food_zoom":       reveal.FoodZoom,
}

// Table resolves the spec to a breakpoint table.
func (s ImageSpec) Table() (reveal.Table, error) {
	if s.Preset != "" {
		t, ok := presets[s.Preset]
		if !ok {
			return reveal.Table{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidContent, s.Preset)
		}
		return t, nil
	}
	return reveal.NewTable(s.Points...)
}

// Words returns the number of reveal words in the section.
func (s Section) Words() int {
	n := len(reveal.SplitWords(s.Intro))
	for _, b := range s.Blocks {
		n += len(reveal.SplitWords(b.Text))
	}
	return n
}

// Default returns the embedded content.
func Default() (*Content, error) {
	return Parse(defaultYAML)
}

// Load reads content from path, or the embedded document when path is empty.
func Load(path string) (*Content, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a content document.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContent, err)
	}
	if _, err := c.Bindings(); err != nil {
		return nil, err
	}
	if len(c.Venues) == 0 {
		return nil, fmt.Errorf("%w: no venues", ErrInvalidContent)
	}
	return &c, nil
}

// Bindings returns the reveal bindings of every tracked section and
// vanishing heading on both pages.
func (c *Content) Bindings() ([]reveal.Binding, error) {
	var out []reveal.Binding
	seen := make(map[string]bool)
	add := func(b reveal.Binding) error {
		id := b.Section.ID
		if id == "" {
			return fmt.Errorf("%w: section without id", ErrInvalidContent)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate section id %q", ErrInvalidContent, id)
		}
		seen[id] = true
		out = append(out, b)
		return nil
	}

	vanish := c.VanishConfig()
	for _, s := range c.Sections() {
		mode, err := reveal.ParseMode(s.Mode)
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %w", ErrInvalidContent, s.ID, err)
		}
		b := reveal.Binding{
			Section: reveal.Section{ID: s.ID, Mode: mode, Landmarks: s.Landmarks},
			Words:   s.Words(),
		}
		if len(s.Images) > 0 {
			b.Images = make(map[string]reveal.Table, len(s.Images))
			for key, spec := range s.Images {
				t, err := spec.Table()
				if err != nil {
					return nil, fmt.Errorf("%w: section %q image %q: %w", ErrInvalidContent, s.ID, key, err)
				}
				b.Images[key] = t
			}
		}
		if err := add(b); err != nil {
			return nil, err
		}
		for _, blk := range s.Blocks {
			if !blk.Vanish {
				continue
			}
			v := vanish
			if err := add(reveal.Binding{
				Section: reveal.Section{ID: blk.ID},
				Letters: utf8.RuneCountInString(blk.Heading),
				Vanish:  &v,
			}); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Sections returns the home page sections followed by the about page sections.
func (c *Content) Sections() []Section {
	out := make([]Section, 0, len(c.Home.Sections)+len(c.About.Sections))
	out = append(out, c.Home.Sections...)
	return append(out, c.About.Sections...)
}

// VanishConfig returns the configured vanish effect, falling back to the defaults.
func (c *Content) VanishConfig() reveal.Vanish {
	v := reveal.DefaultVanish()
	if c.Vanish.Threshold > 0 {
		v.Threshold = c.Vanish.Threshold
	}
	if c.Vanish.StaggerDelay > 0 {
		v.StaggerDelay = c.Vanish.StaggerDelay
	}
	return v
}

// VenueNames maps booking provider ids to venue names.
func (c *Content) VenueNames() map[string]string {
	out := make(map[string]string, len(c.Venues))
	for _, v := range c.Venues {
		out[v.ID] = v.Name
	}
	return out
}

// Venue finds a venue by id or case-insensitive name.
func (c *Content) Venue(key string) (Venue, bool) {
	for _, v := range c.Venues {
		if v.ID == key || strings.EqualFold(v.Name, key) {
			return v, true
		}
	}
	return Venue{}, false
}
