package kitten

import "unicode/utf8"

// BoundaryMarker wraps every token sequence; the model was trained with it
// as the utterance start and end symbol.
const BoundaryMarker = '$'

// Tokenize maps a phoneme string to token IDs: one ID per character, with
// the boundary marker at both ends. Characters missing from the vocabulary
// map to its fallback ID. The result always has utf8.RuneCountInString(phonemes)+2
// elements.
func Tokenize(phonemes string, v *Vocabulary) []int64 {
	if v == nil {
		v = EmptyVocabulary()
	}
	ids := make([]int64, 0, utf8.RuneCountInString(phonemes)+2)
	ids = append(ids, v.Lookup(BoundaryMarker))
	for _, r := range phonemes {
		ids = append(ids, v.Lookup(r))
	}
	return append(ids, v.Lookup(BoundaryMarker))
}
