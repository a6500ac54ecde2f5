package match

import (
	"sort"

	"github.com/google/uuid"
)

// Candidate is one CV chunk considered as evidence for a rule chunk.
type Candidate struct {
	CvChunkID   uuid.UUID   `json:"cv_chunk_id"`
	SectionID   uuid.UUID   `json:"section_id"`
	SectionType SectionType `json:"section_type"`
	ChunkOrder  int         `json:"chunk_order"`
	Content     string      `json:"content"`
	Similarity  float64     `json:"similarity"`
	Weight      float64     `json:"weight"`
	Band        Band        `json:"band"`
}

// Less is the single tie-break used everywhere: similarity desc, section
// weight desc, section priority asc, chunk order asc, chunk id asc. The final
// id comparison makes it a total order, so sorting any permutation of the
// same candidates yields the same sequence.
func Less(a, b Candidate) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	pa, pb := SectionPriority(a.SectionType), SectionPriority(b.SectionType)
	if pa != pb {
		return pa < pb
	}
	if a.ChunkOrder != b.ChunkOrder {
		return a.ChunkOrder < b.ChunkOrder
	}
	return a.CvChunkID.String() < b.CvChunkID.String()
}

func SortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool { return Less(cands[i], cands[j]) })
}
