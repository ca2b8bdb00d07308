package nodes

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/statemon/internal/errors"
)

// Variant identifies which estimator family a node belongs to.
type Variant int

const (
	// GenericFilter is a sliding-window filter publishing swf/* topics.
	GenericFilter Variant = iota
	// AlternateFilter publishes under a rovio/ namespace.
	AlternateFilter
	// FusionFilter is a multi-sensor fusion core publishing msf_core/* topics.
	FusionFilter
)

func (v Variant) String() string {
	switch v {
	case GenericFilter:
		return "generic-filter"
	case AlternateFilter:
		return "alternate-filter"
	case FusionFilter:
		return "fusion-filter"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts a variant name or its short estimator alias.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic-filter", "generic", "swf":
		return GenericFilter, nil
	case "alternate-filter", "alternate", "rovio":
		return AlternateFilter, nil
	case "fusion-filter", "fusion", "msf":
		return FusionFilter, nil
	}
	return 0, errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown estimator variant %q", s),
		"Use one of: swf, rovio, msf")
}

// signature is the topic whose presence identifies a variant. The node base
// is everything before the signature plus baseSuffix.
type signature struct {
	variant    Variant
	topic      string
	baseSuffix string
}

// signatures are tried in order; the first match wins.
var signatures = []signature{
	{variant: GenericFilter, topic: "swf/local_odometry"},
	{variant: AlternateFilter, topic: "rovio/odometry", baseSuffix: "rovio/"},
	{variant: FusionFilter, topic: "msf_core/odometry"},
}

// Match reports whether topic belongs to a known estimator and, if so, its
// variant and base name.
func Match(topic string) (Variant, string, bool) {
	for _, sig := range signatures {
		if i := strings.Index(topic, sig.topic); i >= 0 {
			return sig.variant, topic[:i] + sig.baseSuffix, true
		}
	}
	return 0, "", false
}

// BaseFor returns the node base a variant publishes under for a topic prefix.
func BaseFor(v Variant, prefix string) string {
	for _, sig := range signatures {
		if sig.variant == v {
			return prefix + sig.baseSuffix
		}
	}
	return prefix
}
