package auth

import (
	"sort"
	"strings"
)

// WildcardNamespace grants access to every namespace.
const WildcardNamespace = "*"

// PermissionSet is the resolved set of namespaces a token may access.
type PermissionSet struct {
	wildcard   bool
	namespaces map[string]struct{}
}

// NewPermissionSet builds a set from namespace names. A single wildcard
// entry grants everything.
func NewPermissionSet(namespaces ...string) PermissionSet {
	set := PermissionSet{namespaces: make(map[string]struct{}, len(namespaces))}
	for _, ns := range namespaces {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			continue
		}
		if ns == WildcardNamespace {
			set.wildcard = true
			continue
		}
		set.namespaces[ns] = struct{}{}
	}
	return set
}

// ParsePermissionSet parses the comma separated namespace list stored with
// an access token.
func ParsePermissionSet(raw string) PermissionSet {
	return NewPermissionSet(strings.Split(raw, ",")...)
}

// Allows reports whether the set grants access to a namespace.
func (p PermissionSet) Allows(ns string) bool {
	if p.wildcard {
		return true
	}
	_, ok := p.namespaces[ns]
	return ok
}

// Wildcard reports whether the set grants access to every namespace.
func (p PermissionSet) Wildcard() bool {
	return p.wildcard
}

// Namespaces returns the explicitly granted namespaces in sorted order.
func (p PermissionSet) Namespaces() []string {
	out := make([]string, 0, len(p.namespaces))
	for ns := range p.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

func (p PermissionSet) String() string {
	if p.wildcard {
		return WildcardNamespace
	}
	return strings.Join(p.Namespaces(), ",")
}
