package model

// OrderSpec records the direction of an order constraint. First starts before Then.
type OrderSpec struct {
	First string `json:"first"`
	Then  string `json:"then"`
	Score string `json:"score,omitempty"`
}

// ColocationSpec records the direction of a colocation constraint. Rsc is placed relative to WithRsc.
type ColocationSpec struct {
	Rsc     string `json:"rsc"`
	WithRsc string `json:"withRsc"`
	Score   string `json:"score,omitempty"`
}

// ConstraintEdge is the single connection between two service nodes. It carries up to two
// constraint kinds. The specs stay recorded after their flag has been cleared.
// swagger:model ConstraintEdge
type ConstraintEdge struct {
	ID            string         `json:"id"`
	A             string         `json:"a"`
	B             string         `json:"b"`
	HasOrder      bool           `json:"hasOrder"`
	Order         OrderSpec      `json:"order"`
	HasColocation bool           `json:"hasColocation"`
	Colocation    ColocationSpec `json:"colocation"`
	New           bool           `json:"new"`
}

// Touches reports whether id is one of the endpoints.
func (e ConstraintEdge) Touches(id string) bool {
	return e.A == id || e.B == id
}

// PairKey returns the order independent key of the endpoint pair.
func PairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
