package types

// MemberKind tells how a member was introduced
type MemberKind int

const (
	MemberProperty MemberKind = iota
	MemberField
	MemberElement
	MemberBuiltin
)

// String returns the string representation of the member kind
func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberField:
		return "field"
	case MemberElement:
		return "element"
	case MemberBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Member is a named, typed entry of a namespace
type Member struct {
	Name string
	Type Type
	Kind MemberKind
}

// Searchable is anything that can look up member names and hand out the
// search target of its parent type.
type Searchable interface {
	SearchName(name string) (Member, bool)
	SuperSearchable() (Searchable, bool)
}

// Namespace is the member table of one type. Lookups that miss locally
// continue into the supertype's namespace.
type Namespace struct {
	owner   Type
	members []Member
	index   map[string]int
}

func newNamespace(owner Type, members ...Member) *Namespace {
	ns := &Namespace{
		owner: owner,
		index: make(map[string]int, len(members)),
	}
	for _, m := range members {
		if _, dup := ns.index[m.Name]; dup {
			continue
		}
		ns.index[m.Name] = len(ns.members)
		ns.members = append(ns.members, m)
	}
	return ns
}

// Owner returns the type this namespace belongs to
func (ns *Namespace) Owner() Type {
	return ns.owner
}

// Lookup finds a member declared directly on the owner
func (ns *Namespace) Lookup(name string) (Member, bool) {
	i, ok := ns.index[name]
	if !ok {
		return Member{}, false
	}
	return ns.members[i], true
}

// Members returns the locally declared members in declaration order
func (ns *Namespace) Members() []Member {
	return append([]Member{}, ns.members...)
}

// SuperSearchable returns the namespace of the owner's supertype
func (ns *Namespace) SuperSearchable() (Searchable, bool) {
	super, ok, err := ns.owner.Supertype()
	if err != nil || !ok {
		return nil, false
	}
	superNS, err := super.Namespace()
	if err != nil {
		return nil, false
	}
	return superNS, true
}

// SearchName looks the name up locally, then along the supertype chain.
// A cyclic chain ends the search instead of looping.
func (ns *Namespace) SearchName(name string) (Member, bool) {
	visited := make(map[Searchable]bool)
	var cur Searchable = ns
	for cur != nil && !visited[cur] {
		visited[cur] = true
		if local, ok := cur.(*Namespace); ok {
			if m, found := local.Lookup(name); found {
				return m, true
			}
		} else if m, found := cur.SearchName(name); found {
			return m, true
		}
		next, ok := cur.SuperSearchable()
		if !ok {
			break
		}
		cur = next
	}
	return Member{}, false
}
