package world

import "sort"

// PropKey identifies a generic scalar entity property.
type PropKey int32

const (
	PropLevel      PropKey = 4001
	PropExp        PropKey = 4002
	PropBreakLevel PropKey = 4003 // promotion tier
)

// PropPair is one exported key/value property.
type PropPair struct {
	Key   PropKey `json:"key"`
	Value int64   `json:"value"`
}

// EntityProps is the generic keyed scalar property store (level, experience,
// promotion tier, ...). Scene-goroutine only.
type EntityProps struct {
	m map[PropKey]int64
}

func NewEntityProps() *EntityProps {
	return &EntityProps{m: make(map[PropKey]int64, 8)}
}

// Init restores the store from a persisted snapshot.
func (p *EntityProps) Init(data map[PropKey]int64) {
	clear(p.m)
	for k, v := range data {
		p.m[k] = v
	}
}

// InitNew populates the store for a fresh spawn at the given level.
func (p *EntityProps) InitNew(level int32) {
	clear(p.m)
	p.m[PropLevel] = int64(level)
	p.m[PropExp] = 0
	p.m[PropBreakLevel] = 0
}

func (p *EntityProps) Get(key PropKey) int64 {
	return p.m[key]
}

func (p *EntityProps) Set(key PropKey, value int64) {
	p.m[key] = value
}

// ExportPropPair exports a single property as a wire pair.
func (p *EntityProps) ExportPropPair(key PropKey) PropPair {
	return PropPair{Key: key, Value: p.m[key]}
}

// ExportPropList exports all properties sorted by key for a stable wire order.
func (p *EntityProps) ExportPropList() []PropPair {
	out := make([]PropPair, 0, len(p.m))
	for k, v := range p.m {
		out = append(out, PropPair{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ExportUserData exports a copy of the store for persistence.
func (p *EntityProps) ExportUserData() map[PropKey]int64 {
	out := make(map[PropKey]int64, len(p.m))
	for k, v := range p.m {
		out[k] = v
	}
	return out
}
