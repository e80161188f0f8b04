package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"sync"

	"github.com/codethatfits/phrasematch/model"
)

// TokenIndex maps a token to the documents whose title or content contains
// it. It prunes the candidate set for corpus phrase discovery; membership is
// a hint, never an answer.
type TokenIndex struct {
	Mu    sync.RWMutex
	Index map[string]PostingList
}

// NewTokenIndex returns an empty index.
func NewTokenIndex() *TokenIndex {
	return &TokenIndex{Index: make(map[string]PostingList)}
}

// Add inserts a posting for token, keeping the list sorted by DocID/Field.
// Duplicate postings are ignored.
func (ti *TokenIndex) Add(token string, entry PostingEntry) {
	ti.Mu.Lock()
	defer ti.Mu.Unlock()

	list := ti.Index[token]
	pos := sort.Search(len(list), func(i int) bool { return !list[i].Less(entry) })
	if pos < len(list) && list[pos] == entry {
		return
	}
	list = append(list, PostingEntry{})
	copy(list[pos+1:], list[pos:])
	list[pos] = entry
	ti.Index[token] = list
}

// Remove drops the posting for token, deleting the token entirely when its
// list empties.
func (ti *TokenIndex) Remove(token string, entry PostingEntry) {
	ti.Mu.Lock()
	defer ti.Mu.Unlock()

	list, ok := ti.Index[token]
	if !ok {
		return
	}
	pos := sort.Search(len(list), func(i int) bool { return !list[i].Less(entry) })
	if pos >= len(list) || list[pos] != entry {
		return
	}
	list = append(list[:pos], list[pos+1:]...)
	if len(list) == 0 {
		delete(ti.Index, token)
		return
	}
	ti.Index[token] = list
}

// RemoveDocument drops every posting that references the internal doc ID.
func (ti *TokenIndex) RemoveDocument(docID uint32) {
	ti.Mu.Lock()
	defer ti.Mu.Unlock()

	for token, list := range ti.Index {
		filtered := list[:0]
		for _, entry := range list {
			if entry.DocID != docID {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) == 0 {
			delete(ti.Index, token)
			continue
		}
		ti.Index[token] = filtered
	}
}

// CandidateDocs returns the IDs of documents containing every one of the
// given tokens, in any field. The boolean is false when tokens is empty,
// which callers must treat as "no pruning possible" rather than "no
// candidates".
func (ti *TokenIndex) CandidateDocs(tokens []string) ([]uint32, bool) {
	if len(tokens) == 0 {
		return nil, false
	}

	ti.Mu.RLock()
	defer ti.Mu.RUnlock()

	result := ti.Index[tokens[0]].DocIDs()
	for _, token := range tokens[1:] {
		if len(result) == 0 {
			return []uint32{}, true
		}
		result = intersectSorted(result, ti.Index[token].DocIDs())
	}
	if result == nil {
		result = []uint32{}
	}
	return result, true
}

// Clear drops every posting.
func (ti *TokenIndex) Clear() {
	ti.Mu.Lock()
	defer ti.Mu.Unlock()
	ti.Index = make(map[string]PostingList)
}

// TokenCount returns the number of distinct tokens.
func (ti *TokenIndex) TokenCount() int {
	ti.Mu.RLock()
	defer ti.Mu.RUnlock()
	return len(ti.Index)
}

// intersectSorted merges two ascending uint32 slices into their
// intersection.
func intersectSorted(a, b []uint32) []uint32 {
	out := make([]uint32, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// gobTokenIndexData is a helper struct for Gob encoding/decoding TokenIndex
// data. It excludes the mutex.
type gobTokenIndexData struct {
	Index map[string]PostingList
}

// GobEncode implements the gob.GobEncoder interface for TokenIndex.
func (ti *TokenIndex) GobEncode() ([]byte, error) {
	ti.Mu.RLock() // Ensure consistent data during encoding
	defer ti.Mu.RUnlock()

	dataToEncode := gobTokenIndexData{Index: ti.Index}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for TokenIndex.
func (ti *TokenIndex) GobDecode(data []byte) error {
	decodedData := gobTokenIndexData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	ti.Mu.Lock() // Ensure exclusive access during decoding
	defer ti.Mu.Unlock()

	ti.Index = decodedData.Index
	if ti.Index == nil {
		ti.Index = make(map[string]PostingList)
	}
	return nil
}
