package reconcile

// Couple is two hosts that may talk to each other in both directions
type Couple struct {
	A string `json:"a"`
	B string `json:"b"`
}

// SymmetricPairs matches position i from the front with position i from the
// back over the first half of order. With an odd length the middle element
// is returned as unpaired.
func SymmetricPairs(order []string) (couples []Couple, unpaired string) {
	n := len(order)
	for i := 0; i < n/2; i++ {
		couples = append(couples, Couple{A: order[i], B: order[n-1-i]})
	}
	if n%2 == 1 {
		unpaired = order[n/2]
	}
	return couples, unpaired
}
