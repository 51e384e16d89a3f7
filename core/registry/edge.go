package registry

import "fmt"

// EdgeKind is the cardinality of an edge.
type EdgeKind string

const (
	OneToMany  EdgeKind = "one-to-many"
	ManyToMany EdgeKind = "many-to-many"
	OneToOne   EdgeKind = "one-to-one"
)

// End is one side of an edge. Field is empty for the far side of a
// one-sided relationship.
type End struct {
	List  string
	Field string
	Many  bool
}

func (e End) String() string {
	if e.Field == "" {
		return e.List
	}
	return e.List + "." + e.Field
}

func (e End) less(o End) bool {
	if e.List != o.List {
		return e.List < o.List
	}
	return e.Field < o.Field
}

// Edge is a resolved relationship between two lists.
type Edge struct {
	Kind EdgeKind
	A, B End

	// Foreign key placement for one-to-many and one-to-one edges.
	FKList   string // list whose table holds the column
	FKColumn string
	FKRef    string // referenced list
	Unique   bool

	// Join table placement for many-to-many edges.
	JoinTable string
	JoinA     string // column referencing A.List
	JoinB     string // column referencing B.List
}

// IsJoin reports whether the edge is stored in a join table.
func (e Edge) IsJoin() bool {
	return e.Kind == ManyToMany
}

func (e Edge) String() string {
	if e.IsJoin() {
		return fmt.Sprintf("%s <-> %s (%s, join %s)", e.A, e.B, e.Kind, e.JoinTable)
	}
	unique := ""
	if e.Unique {
		unique = " unique"
	}
	return fmt.Sprintf("%s <-> %s (%s, fk %s.%s -> %s%s)", e.A, e.B, e.Kind, e.FKList, e.FKColumn, e.FKRef, unique)
}

// Placement says where a link's data lives relative to the list it is seen from.
type Placement int

const (
	// OwnColumn: the FK column is on this list's table.
	OwnColumn Placement = iota
	// TargetColumn: the FK column is on the target list's table.
	TargetColumn
	// JoinRows: rows in a join table.
	JoinRows
)

// Link is an edge seen from one of its relationship fields.
type Link struct {
	Edge Edge

	List  string
	Field string

	Target string
	// Inverse is the target's field, empty for one-sided relationships.
	Inverse string

	// Many is set when this field holds many items.
	Many bool

	Placement Placement

	// Column is the FK column for OwnColumn and TargetColumn placements.
	Column string

	// Join table columns for JoinRows placement.
	JoinTable  string
	JoinSelf   string
	JoinTarget string
}

func (e Edge) linkFrom(self, other End) Link {
	l := Link{
		Edge:    e,
		List:    self.List,
		Field:   self.Field,
		Target:  other.List,
		Inverse: other.Field,
		Many:    self.Many,
	}

	switch {
	case e.IsJoin():
		l.Placement = JoinRows
		l.JoinTable = e.JoinTable
		if self == e.A {
			l.JoinSelf, l.JoinTarget = e.JoinA, e.JoinB
		} else {
			l.JoinSelf, l.JoinTarget = e.JoinB, e.JoinA
		}
	case e.FKList == self.List && e.FKColumn == self.Field:
		l.Placement = OwnColumn
		l.Column = e.FKColumn
	default:
		l.Placement = TargetColumn
		l.Column = e.FKColumn
	}

	return l
}
