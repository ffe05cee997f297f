package layout

import (
	"fmt"
	"strings"
)

// Direction is the flow of ranks.
type Direction string

const (
	TopBottom Direction = "TB"
	BottomTop Direction = "BT"
	LeftRight Direction = "LR"
	RightLeft Direction = "RL"
)

// ParseDirection accepts TB, BT, LR or RL in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case TopBottom, BottomTop, LeftRight, RightLeft:
		return d, nil
	}
	return "", fmt.Errorf("invalid direction %q: must be TB, BT, LR or RL", s)
}

// Horizontal reports whether ranks run left to right or right to left.
func (d Direction) Horizontal() bool { return d == LeftRight || d == RightLeft }

// Options configures the layout. Zero fields take the defaults.
type Options struct {
	Direction    Direction `json:"direction,omitempty" toml:"direction"`
	NodeSep      float64   `json:"nodeSep,omitempty" toml:"node_sep"`
	RankSep      float64   `json:"rankSep,omitempty" toml:"rank_sep"`
	NodeWidth    float64   `json:"nodeWidth,omitempty" toml:"node_width"`
	HeaderHeight float64   `json:"headerHeight,omitempty" toml:"header_height"`
	MemberHeight float64   `json:"memberHeight,omitempty" toml:"member_height"`
	Padding      float64   `json:"padding,omitempty" toml:"padding"`

	// Passes bounds the ordering sweeps.
	Passes int `json:"passes,omitempty" toml:"passes"`
}

// Defaults.
const (
	DefaultNodeSep      = 50
	DefaultRankSep      = 80
	DefaultNodeWidth    = 220
	DefaultHeaderHeight = 36
	DefaultMemberHeight = 22
	DefaultPadding      = 12
	DefaultPasses       = 24
)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Direction:    TopBottom,
		NodeSep:      DefaultNodeSep,
		RankSep:      DefaultRankSep,
		NodeWidth:    DefaultNodeWidth,
		HeaderHeight: DefaultHeaderHeight,
		MemberHeight: DefaultMemberHeight,
		Padding:      DefaultPadding,
		Passes:       DefaultPasses,
	}
}

// WithDefaults fills zero or invalid fields from [DefaultOptions].
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		o.Direction = d.Direction
	} else {
		o.Direction = Direction(strings.ToUpper(string(o.Direction)))
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.HeaderHeight <= 0 {
		o.HeaderHeight = d.HeaderHeight
	}
	if o.MemberHeight <= 0 {
		o.MemberHeight = d.MemberHeight
	}
	if o.Padding <= 0 {
		o.Padding = d.Padding
	}
	if o.Passes <= 0 {
		o.Passes = d.Passes
	}
	return o
}

// NodeHeight estimates the height of a node with n members.
func (o Options) NodeHeight(n int) float64 {
	return o.HeaderHeight + float64(n)*o.MemberHeight + o.Padding
}
