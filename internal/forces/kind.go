package forces

import (
	"fmt"
	"strings"

	"github.com/san-kum/forcegraph/internal/dynamo"
)

// Kind identifies one of the six known forces.
type Kind int

const (
	Center Kind = iota
	Charge
	Collide
	ForceX
	ForceY
	Link
)

// Kinds lists every force in application order.
var Kinds = []Kind{Link, Charge, Collide, Center, ForceX, ForceY}

var kindNames = map[Kind]string{
	Center:  "center",
	Charge:  "charge",
	Collide: "collide",
	ForceX:  "forceX",
	ForceY:  "forceY",
	Link:    "link",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a force name. Matching ignores case so "forcex" and
// "forceX" are the same force.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownForce, name)
}
