// Package catalog loads the arenas a wager can be fought in and the kits
// each arena allows.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// catalog.toml layout:
//
//	[[arena]]
//	name = "colosseum"
//	kits = ["iron", "diamond"]
type fileCatalog struct {
	Arenas []fileArena `toml:"arena"`
}

type fileArena struct {
	Name string   `toml:"name"`
	Kits []string `toml:"kits"`
}

// Catalog is an immutable set of arenas and their kits. It is safe for
// concurrent use.
type Catalog struct {
	arenas map[string]map[string]struct{}
}

// Load reads a catalog from a TOML file.
func Load(path string) (*Catalog, error) {
	var raw fileCatalog
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return fromFile(raw, meta)
}

// Parse reads a catalog from TOML text.
func Parse(data string) (*Catalog, error) {
	var raw fileCatalog
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return fromFile(raw, meta)
}

func fromFile(raw fileCatalog, meta toml.MetaData) (*Catalog, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog: unknown key %q", undecoded[0].String())
	}
	arenas := make(map[string][]string, len(raw.Arenas))
	for _, arena := range raw.Arenas {
		name := strings.TrimSpace(arena.Name)
		if _, ok := arenas[name]; ok {
			return nil, fmt.Errorf("catalog: duplicate arena %q", name)
		}
		arenas[name] = arena.Kits
	}
	return New(arenas)
}

// New builds a catalog from arena name to allowed kits.
func New(arenas map[string][]string) (*Catalog, error) {
	if len(arenas) == 0 {
		return nil, fmt.Errorf("catalog: at least one arena is required")
	}
	c := &Catalog{arenas: make(map[string]map[string]struct{}, len(arenas))}
	for name, kits := range arenas {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("catalog: arena name is required")
		}
		if _, ok := c.arenas[name]; ok {
			return nil, fmt.Errorf("catalog: duplicate arena %q", name)
		}
		if len(kits) == 0 {
			return nil, fmt.Errorf("catalog: arena %q allows no kits", name)
		}
		allowed := make(map[string]struct{}, len(kits))
		for _, kit := range kits {
			kit = strings.TrimSpace(kit)
			if kit == "" {
				return nil, fmt.Errorf("catalog: arena %q has an empty kit", name)
			}
			allowed[kit] = struct{}{}
		}
		c.arenas[name] = allowed
	}
	return c, nil
}

func (c *Catalog) ValidArena(arena string) bool {
	_, ok := c.arenas[arena]
	return ok
}

func (c *Catalog) ValidKit(arena, kit string) bool {
	_, ok := c.arenas[arena][kit]
	return ok
}

// Arenas returns the arena names in sorted order.
func (c *Catalog) Arenas() []string {
	names := make([]string, 0, len(c.arenas))
	for name := range c.arenas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kits returns the kits allowed in arena in sorted order.
func (c *Catalog) Kits(arena string) []string {
	kits := make([]string, 0, len(c.arenas[arena]))
	for kit := range c.arenas[arena] {
		kits = append(kits, kit)
	}
	sort.Strings(kits)
	return kits
}
