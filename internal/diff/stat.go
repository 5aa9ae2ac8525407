package diff

// Stat summarizes a diff.
type Stat struct {
	Insertions int
	Deletions  int
	Hunks      int
}

// Stat counts the inserted and deleted lines of s and the hunks it renders to with the given context.
func (s Script) Stat(context int) Stat {
	var st Stat
	for _, c := range s.Changes {
		st.Deletions += c.A1 - c.A0
		st.Insertions += c.B1 - c.B0
	}
	for range s.Hunks(context) {
		st.Hunks++
	}
	return st
}

// Changed returns the total number of changed lines.
func (st Stat) Changed() int {
	return st.Insertions + st.Deletions
}
