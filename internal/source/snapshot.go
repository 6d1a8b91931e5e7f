package source

import "time"

// Identity is the registry key of a source.
type Identity struct {
	Name     string
	TypeName string
}

// Snapshot is an immutable copy of a source's state. It is what the registry
// stores and what goes out on the wire.
type Snapshot struct {
	Name        string
	TypeName    string
	Description string
	Value       Value
	Timestamp   time.Time
}

// Kind is the kind of the carried value.
func (s Snapshot) Kind() Kind {
	return s.Value.Kind()
}

func (s Snapshot) Identity() Identity {
	return Identity{Name: s.Name, TypeName: s.TypeName}
}

// Equal reports whether s and o name the same source. Values, timestamps and
// descriptions are not compared.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Name == o.Name && s.TypeName == o.TypeName
}
