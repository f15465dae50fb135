package models

// Morph identifies a polymorphic record by type and key. Actors (makers and
// checkers) and request subjects are both referenced this way.
type Morph interface {
	MorphType() string
	MorphKey() string
}

// Ref is a plain Morph value.
type Ref struct {
	Type string `json:"type"`
	Key  string `json:"id"`
}

func (r Ref) MorphType() string { return r.Type }
func (r Ref) MorphKey() string  { return r.Key }

// RefOf copies the identity of m.
func RefOf(m Morph) Ref {
	return Ref{Type: m.MorphType(), Key: m.MorphKey()}
}

// Actor is the persisted reference to a maker or checker.
type Actor struct {
	Type string `json:"type" gorm:"size:64"`
	ID   string `json:"id" gorm:"size:64"`
}

// ActorOf copies the identity of m.
func ActorOf(m Morph) Actor {
	return Actor{Type: m.MorphType(), ID: m.MorphKey()}
}

func (a Actor) MorphType() string { return a.Type }
func (a Actor) MorphKey() string  { return a.ID }

func (a Actor) IsZero() bool {
	return a.Type == "" && a.ID == ""
}

// Is reports whether a and m identify the same record.
func (a Actor) Is(m Morph) bool {
	return m != nil && a.Type == m.MorphType() && a.ID == m.MorphKey()
}
