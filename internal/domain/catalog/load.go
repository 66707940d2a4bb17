package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return Load(bytes.NewReader(defaultCatalog))
})

// Default returns the built-in catalog. It is parsed once per process.
func Default() (*Registry, error) {
	return loadDefault()
}

// LoadFile reads a catalog document from path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load decodes a YAML catalog document and builds a Registry from it.
func Load(r io.Reader) (*Registry, error) {
	var data Data
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	return New(data)
}

// New validates data and indexes it.
func New(data Data) (*Registry, error) {
	var (
		r   Registry
		err error
	)
	if r.zones, err = newIndex(KindZone, data.Zones, func(z Zone) (string, string) { return z.Key, z.Name }); err != nil {
		return nil, err
	}
	if r.rucks, err = newIndex(KindRuck, data.RuckSpeeds, func(s RuckSpeed) (string, string) { return s.Key, s.Name }); err != nil {
		return nil, err
	}
	if r.defenses, err = newIndex(KindDefense, data.Defenses, func(d Defense) (string, string) { return d.Key, d.Name }); err != nil {
		return nil, err
	}
	if r.sources, err = newIndex(KindSource, data.Sources, func(s Source) (string, string) { return s.Key, s.Name }); err != nil {
		return nil, err
	}
	if r.levels, err = newIndex(KindLevel, data.Levels, func(l Level) (string, string) { return l.Key, l.Name }); err != nil {
		return nil, err
	}
	if r.archetypes, err = newIndex(KindArchetype, data.Archetypes, func(a Archetype) (string, string) { return a.Key, a.Name }); err != nil {
		return nil, err
	}
	if r.plays, err = newIndex(KindPlay, data.Plays, func(p Play) (string, string) { return p.Key, p.Name }); err != nil {
		return nil, err
	}
	// Node names are not addressable; only keys.
	if r.nodes, err = newIndex(KindNode, data.DecisionTree.Nodes, func(n TreeNode) (string, string) { return n.Key, "" }); err != nil {
		return nil, err
	}
	r.plays.clone = Play.clone
	r.nodes.clone = TreeNode.clone
	for i, p := range r.plays.items {
		r.plays.items[i] = p.clone()
	}
	for i, n := range r.nodes.items {
		r.nodes.items[i] = n.clone()
	}
	r.markers = data.Markers.clone()
	r.treeStart = data.DecisionTree.Start

	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Registry) validate() error {
	for _, key := range []string{ZoneOwnHalf, ZoneOppHalf, ZoneRedZone} {
		if _, err := r.Zone(key); err != nil {
			return invalid("missing zone %q", key)
		}
	}
	for _, key := range []string{RuckQuick, RuckNormal, RuckSlow} {
		if _, err := r.Ruck(key); err != nil {
			return invalid("missing ruck speed %q", key)
		}
	}
	for _, p := range r.plays.items {
		if p.BaseRisk < 0 || p.BaseRisk >= 1 {
			return invalid("play %q base risk %v outside [0,1)", p.Key, p.BaseRisk)
		}
		if p.BaseGain < 0 {
			return invalid("play %q has negative base gain", p.Key)
		}
	}
	for _, d := range r.defenses.items {
		for _, ref := range []string{d.Weakness, d.Strength} {
			if ref == "" {
				continue
			}
			if _, err := r.Play(ref); err != nil {
				return invalid("defense %q refers to unknown play %q", d.Key, ref)
			}
		}
	}
	for _, l := range r.levels.items {
		if l.ErrorMargin <= 0 {
			return invalid("level %q error margin must be positive", l.Key)
		}
	}
	for _, a := range r.archetypes.items {
		if a.DecisionBonus <= 0 {
			return invalid("archetype %q decision bonus must be positive", a.Key)
		}
	}
	return r.validateTree()
}

func (r *Registry) validateTree() error {
	if len(r.nodes.items) == 0 {
		return nil
	}
	if _, err := r.Node(r.treeStart); err != nil {
		return invalid("decision tree start %q is not a node", r.treeStart)
	}
	for _, n := range r.nodes.items {
		if _, err := r.Play(n.Play); err != nil {
			return invalid("tree node %q refers to unknown play %q", n.Key, n.Play)
		}
		seen := make(map[string]string, len(n.Triggers))
		for label, target := range n.Triggers {
			if _, err := r.Node(target); err != nil {
				return invalid("tree node %q trigger %q points at unknown node %q", n.Key, label, target)
			}
			norm := Normalize(label)
			if other, ok := seen[norm]; ok {
				return invalid("tree node %q triggers %q and %q differ only in case or spacing", n.Key, other, label)
			}
			seen[norm] = label
		}
	}
	return nil
}
