package inventory

import (
	"encoding/json"
	"strconv"
)

// NotTrackedText is how a missing prior quantity is rendered.
const NotTrackedText = "Not tracked"

// Quantity is either a tracked non-negative stock count or NotTracked, which
// means no prior observation exists. Tracked(0) and NotTracked are distinct.
type Quantity struct {
	value   int
	tracked bool
}

// Tracked returns a tracked quantity of n.
func Tracked(n int) Quantity {
	return Quantity{value: n, tracked: true}
}

// NotTracked returns the quantity of a store that was never observed.
func NotTracked() Quantity {
	return Quantity{}
}

// Get returns the stock count and whether it is tracked at all.
func (q Quantity) Get() (int, bool) {
	return q.value, q.tracked
}

func (q Quantity) IsTracked() bool {
	return q.tracked
}

func (q Quantity) String() string {
	if !q.tracked {
		return NotTrackedText
	}
	return strconv.Itoa(q.value)
}

// MarshalJSON encodes NotTracked as null.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.tracked {
		return []byte("null"), nil
	}
	return json.Marshal(q.value)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*q = NotTracked()
		return nil
	}
	var n int
	err := json.Unmarshal(data, &n)
	if err != nil {
		return err
	}
	*q = Tracked(n)
	return nil
}
