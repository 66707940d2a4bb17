// Package catalog holds the read-only reference data the engine runs on:
// field zones, ruck speeds, defensive systems, possession sources,
// competition levels, carrier archetypes, plays and the decision tree.
//
// A Registry is built once at start-up and shared by every component. Lookups
// accept either the stable key ("out_the_back") or the display name
// ("Out The Back"), case-insensitively.
package catalog

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// Well-known keys the engine refers to directly.
const (
	ZoneOwnHalf = "own_half"
	ZoneOppHalf = "opp_half"
	ZoneRedZone = "red_zone"

	RuckQuick  = "quick"
	RuckNormal = "normal"
	RuckSlow   = "slow"
)

// Entry kinds, used in UnknownKeyError.
const (
	KindZone      = "zone"
	KindRuck      = "ruck speed"
	KindDefense   = "defense"
	KindSource    = "source"
	KindLevel     = "level"
	KindArchetype = "archetype"
	KindPlay      = "play"
	KindNode      = "tree node"
)

// Zone is a field region with gain and risk multipliers.
type Zone struct {
	Key     string  `yaml:"key" json:"key"`
	Name    string  `yaml:"name" json:"name"`
	GainMod float64 `yaml:"gain_mod" json:"gain_mod"`
	RiskMod float64 `yaml:"risk_mod" json:"risk_mod"`
}

// RuckSpeed scales gain by how quickly the ball comes back.
type RuckSpeed struct {
	Key        string  `yaml:"key" json:"key"`
	Name       string  `yaml:"name" json:"name"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Defense is an opponent's defensive system. Weakness and Strength are play
// keys: the play the system is exposed to and the play it shuts down.
type Defense struct {
	Key             string  `yaml:"key" json:"key"`
	Name            string  `yaml:"name" json:"name"`
	RiskMod         float64 `yaml:"risk_mod" json:"risk_mod"`
	LineSpeed       float64 `yaml:"line_speed" json:"line_speed"`
	BiteProbability float64 `yaml:"bite_probability" json:"bite_probability"`
	WidthHold       float64 `yaml:"width_hold" json:"width_hold"`
	Weakness        string  `yaml:"weakness" json:"weakness"`
	Strength        string  `yaml:"strength" json:"strength"`
}

// Source is where possession came from.
type Source struct {
	Key        string `yaml:"key" json:"key"`
	Name       string `yaml:"name" json:"name"`
	Structured bool   `yaml:"structured" json:"structured"`
}

// Level tunes speed, error margin and fatigue for a competition grade.
type Level struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	SpeedMod    float64 `yaml:"speed_mod" json:"speed_mod"`
	ErrorMargin float64 `yaml:"error_margin" json:"error_margin"`
	Fatigue     float64 `yaml:"fatigue" json:"fatigue"`
}

// Archetype is a ball-carrier profile. Only CarryBonus and DecisionBonus feed
// the outcome model; the other attributes are descriptive.
type Archetype struct {
	Key                 string  `yaml:"key" json:"key"`
	Name                string  `yaml:"name" json:"name"`
	CarryBonus          float64 `yaml:"carry_bonus" json:"carry_bonus"`
	DistributionBonus   float64 `yaml:"distribution_bonus" json:"distribution_bonus"`
	CollisionResistance float64 `yaml:"collision_resistance" json:"collision_resistance"`
	DecisionBonus       float64 `yaml:"decision_bonus" json:"decision_bonus"`
}

// WithCarryBonus returns a copy of a with the carry bonus replaced.
func (a Archetype) WithCarryBonus(v float64) Archetype {
	a.CarryBonus = v
	return a
}

// Drill is coaching metadata attached to a play.
type Drill struct {
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	ReferenceURL string `yaml:"reference_url" json:"reference_url"`
}

// KPI is a target behaviour for one role in a play.
type KPI struct {
	Role   string `yaml:"role" json:"role"`
	Target string `yaml:"target" json:"target"`
}

// Play is an attacking shape with base statistics.
type Play struct {
	Key      string        `yaml:"key" json:"key"`
	Name     string        `yaml:"name" json:"name"`
	BaseRisk float64       `yaml:"base_risk" json:"base_risk"`
	BaseGain float64       `yaml:"base_gain" json:"base_gain"`
	Drill    Drill         `yaml:"drill" json:"drill"`
	KPIs     map[int][]KPI `yaml:"kpis" json:"kpis,omitempty"`
}

// Squads returns the jersey numbers with KPIs, ascending.
func (p Play) Squads() []int {
	out := make([]int, 0, len(p.KPIs))
	for n := range p.KPIs {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (p Play) clone() Play {
	if p.KPIs == nil {
		return p
	}
	kpis := make(map[int][]KPI, len(p.KPIs))
	for n, ks := range p.KPIs {
		kpis[n] = slices.Clone(ks)
	}
	p.KPIs = kpis
	return p
}

// Markers are lower-case substrings that classify a call name.
type Markers struct {
	Wide []string `yaml:"wide" json:"wide"`
	Pod  []string `yaml:"pod" json:"pod"`
}

func (m Markers) clone() Markers {
	m.Wide = slices.Clone(m.Wide)
	m.Pod = slices.Clone(m.Pod)
	return m
}

// IsWide reports whether the call name contains a wide-play marker.
func (m Markers) IsWide(call string) bool { return containsAny(call, m.Wide) }

// IsPod reports whether the call name contains a pod marker.
func (m Markers) IsPod(call string) bool { return containsAny(call, m.Pod) }

func containsAny(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// TreeNode is one pre-scripted phase. Triggers maps an opponent reaction
// label to the key of the next node; a node without triggers is terminal.
type TreeNode struct {
	Key      string            `yaml:"key" json:"key"`
	Phase    int               `yaml:"phase" json:"phase"`
	Play     string            `yaml:"play" json:"play"`
	Triggers map[string]string `yaml:"triggers" json:"triggers"`
}

// Terminal reports whether navigation ends at this node.
func (n TreeNode) Terminal() bool { return len(n.Triggers) == 0 }

func (n TreeNode) clone() TreeNode {
	n.Triggers = maps.Clone(n.Triggers)
	return n
}

// DecisionTree is the static phase graph.
type DecisionTree struct {
	Start string     `yaml:"start" json:"start"`
	Nodes []TreeNode `yaml:"nodes" json:"nodes"`
}

// Data is the document form of a catalog.
type Data struct {
	Zones        []Zone       `yaml:"zones" json:"zones"`
	RuckSpeeds   []RuckSpeed  `yaml:"ruck_speeds" json:"ruck_speeds"`
	Defenses     []Defense    `yaml:"defenses" json:"defenses"`
	Sources      []Source     `yaml:"sources" json:"sources"`
	Levels       []Level      `yaml:"levels" json:"levels"`
	Archetypes   []Archetype  `yaml:"archetypes" json:"archetypes"`
	Plays        []Play       `yaml:"plays" json:"plays"`
	Markers      Markers      `yaml:"markers" json:"markers"`
	DecisionTree DecisionTree `yaml:"decision_tree" json:"decision_tree"`
}

// Normalize folds a key or display name to its lookup form:
// "Out The Back", "out-the-back" and "out_the_back" are the same entry.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// index is an ordered set of entries addressable by key or name. Entries
// leave the index through clone when they hold maps or slices.
type index[T any] struct {
	kind   string
	items  []T
	lookup map[string]int
	clone  func(T) T
}

func newIndex[T any](kind string, items []T, ids func(T) (key, name string)) (index[T], error) {
	ix := index[T]{
		kind:   kind,
		items:  append([]T(nil), items...),
		lookup: make(map[string]int, len(items)*2),
	}
	for i, it := range ix.items {
		key, name := ids(it)
		k := Normalize(key)
		if k == "" {
			return ix, invalid("%s #%d has no key", kind, i)
		}
		if prev, ok := ix.lookup[k]; ok && prev != i {
			return ix, invalid("duplicate %s %q", kind, key)
		}
		ix.lookup[k] = i
		if n := Normalize(name); n != "" {
			if prev, ok := ix.lookup[n]; ok && prev != i {
				return ix, invalid("%s name %q collides with another entry", kind, name)
			}
			ix.lookup[n] = i
		}
	}
	return ix, nil
}

func (ix index[T]) get(s string) (T, error) {
	i, ok := ix.lookup[Normalize(s)]
	if !ok {
		var zero T
		return zero, unknown(ix.kind, s)
	}
	return ix.out(ix.items[i]), nil
}

func (ix index[T]) all() []T {
	out := make([]T, len(ix.items))
	for i, it := range ix.items {
		out[i] = ix.out(it)
	}
	return out
}

func (ix index[T]) out(it T) T {
	if ix.clone == nil {
		return it
	}
	return ix.clone(it)
}

// Registry is the immutable, indexed catalog.
type Registry struct {
	zones      index[Zone]
	rucks      index[RuckSpeed]
	defenses   index[Defense]
	sources    index[Source]
	levels     index[Level]
	archetypes index[Archetype]
	plays      index[Play]
	nodes      index[TreeNode]
	markers    Markers
	treeStart  string
}

// Zone looks up a field zone.
func (r *Registry) Zone(key string) (Zone, error) { return r.zones.get(key) }

// Ruck looks up a ruck speed.
func (r *Registry) Ruck(key string) (RuckSpeed, error) { return r.rucks.get(key) }

// Defense looks up a defensive system.
func (r *Registry) Defense(key string) (Defense, error) { return r.defenses.get(key) }

// Source looks up a possession source.
func (r *Registry) Source(key string) (Source, error) { return r.sources.get(key) }

// Level looks up a competition level.
func (r *Registry) Level(key string) (Level, error) { return r.levels.get(key) }

// Archetype looks up a carrier archetype.
func (r *Registry) Archetype(key string) (Archetype, error) { return r.archetypes.get(key) }

// Play looks up a play.
func (r *Registry) Play(key string) (Play, error) { return r.plays.get(key) }

// Node looks up a decision tree node.
func (r *Registry) Node(key string) (TreeNode, error) { return r.nodes.get(key) }

// Plays returns every play in catalog order.
func (r *Registry) Plays() []Play { return r.plays.all() }

// PlayKeys returns every play key in catalog order.
func (r *Registry) PlayKeys() []string {
	keys := make([]string, 0, len(r.plays.items))
	for _, p := range r.plays.items {
		keys = append(keys, p.Key)
	}
	return keys
}

// Markers returns the call-name markers.
func (r *Registry) Markers() Markers { return r.markers.clone() }

// TreeStart returns the key of the decision tree's entry node.
func (r *Registry) TreeStart() string { return r.treeStart }

// Snapshot returns a copy of the whole catalog in document form.
func (r *Registry) Snapshot() Data {
	return Data{
		Zones:      r.zones.all(),
		RuckSpeeds: r.rucks.all(),
		Defenses:   r.defenses.all(),
		Sources:    r.sources.all(),
		Levels:     r.levels.all(),
		Archetypes: r.archetypes.all(),
		Plays:      r.plays.all(),
		Markers:    r.markers.clone(),
		DecisionTree: DecisionTree{
			Start: r.treeStart,
			Nodes: r.nodes.all(),
		},
	}
}
