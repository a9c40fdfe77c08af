package types

// SupertypeChain returns t followed by its supertypes, nearest first. The
// walk keeps a visited set so a declared cycle such as A extends B extends A
// fails with *CycleError instead of looping.
func SupertypeChain(t Type) ([]Type, error) {
	var chain []Type
	visited := make(map[Type]bool)
	for cur := t; cur != nil; {
		if visited[cur] {
			return chain, &CycleError{Chain: append(append([]Type{}, chain...), cur)}
		}
		visited[cur] = true
		chain = append(chain, cur)

		next, ok, err := cur.Supertype()
		if err != nil {
			return chain, err
		}
		if !ok {
			break
		}
		cur = next
	}
	return chain, nil
}

// IsSubtype reports whether a is b or reaches b through its supertypes.
// Every type is a subtype of Any. Collections are compared by identity only.
func IsSubtype(a, b Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b || b == Any {
		return true
	}
	chain, _ := SupertypeChain(a)
	for _, t := range chain {
		if t == b {
			return true
		}
	}
	return false
}

// CommonSupertype returns the nearest type both a and b are subtypes of,
// or Any when they share nothing else.
func CommonSupertype(a, b Type) Type {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case IsSubtype(a, b):
		return b
	case IsSubtype(b, a):
		return a
	}
	chain, _ := SupertypeChain(a)
	for _, t := range chain {
		if IsSubtype(b, t) {
			return t
		}
	}
	return Any
}

// MoreSpecific returns whichever of a and b is a subtype of the other,
// preferring a when they are unrelated.
func MoreSpecific(a, b Type) Type {
	if b != nil && IsSubtype(b, a) {
		return b
	}
	return a
}
