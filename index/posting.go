package index

import "github.com/codethatfits/phrasematch/model"

// PostingEntry records that a document field contains a token. Postings are
// candidate hints only: discovery always re-verifies against the live text,
// so no frequency or position data is kept.
type PostingEntry struct {
	DocID uint32          // Internal numeric ID for efficiency
	Field model.FieldKind // Which field the token appeared in
}

// PostingList is a slice of PostingEntry kept sorted by DocID, then Field,
// so merges and intersections stay linear.
type PostingList []PostingEntry

// Less orders entries by DocID, breaking ties on Field.
func (e PostingEntry) Less(other PostingEntry) bool {
	if e.DocID != other.DocID {
		return e.DocID < other.DocID
	}
	return e.Field < other.Field
}

// DocIDs returns the distinct document IDs in the list, in ascending order.
func (pl PostingList) DocIDs() []uint32 {
	ids := make([]uint32, 0, len(pl))
	var last uint32
	for i, entry := range pl {
		if i > 0 && entry.DocID == last {
			continue
		}
		ids = append(ids, entry.DocID)
		last = entry.DocID
	}
	return ids
}
