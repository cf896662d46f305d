package retrieval

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// reToken tokenizes on Unicode word characters, per spec §4.12's `\w+`
// tokenization rule.
var reToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Index is a TF-IDF index over a fixed set of Documents.
type Index struct {
	docs         []Document
	caseFold     bool
	vocab        []string
	idf          map[string]float64
	vectors      []map[string]float64 // one weight map per document, L2-normalized
	docNorms     []float64
}

// BuildIndex tokenizes every chunk, computes idf = ln((N+1)/(df+1)) + 1,
// and stores per-chunk weights (1 + ln(tf)) × idf, L2-normalized, per
// spec §4.12.
func BuildIndex(docs []Document, caseInsensitive bool) *Index {
	n := len(docs)
	df := map[string]int{}
	tokenized := make([][]string, n)

	for i, d := range docs {
		toks := tokenize(d.Text, caseInsensitive)
		tokenized[i] = toks
		seen := map[string]struct{}{}
		for _, t := range toks {
			seen[t] = struct{}{}
		}
		for t := range seen {
			df[t]++
		}
	}

	idf := map[string]float64{}
	vocabSet := map[string]struct{}{}
	for t, dfCount := range df {
		idf[t] = math.Log(float64(n+1)/float64(dfCount+1)) + 1
		vocabSet[t] = struct{}{}
	}
	vocab := make([]string, 0, len(vocabSet))
	for t := range vocabSet {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)

	vectors := make([]map[string]float64, n)
	norms := make([]float64, n)
	for i, toks := range tokenized {
		tf := map[string]int{}
		for _, t := range toks {
			tf[t]++
		}
		vec := make(map[string]float64, len(tf))
		var sumSquares float64
		for t, count := range tf {
			w := (1 + math.Log(float64(count))) * idf[t]
			vec[t] = w
			sumSquares += w * w
		}
		norm := math.Sqrt(sumSquares)
		if norm > 0 {
			for t := range vec {
				vec[t] /= norm
			}
		}
		vectors[i] = vec
		norms[i] = norm
	}

	return &Index{
		docs:     docs,
		caseFold: caseInsensitive,
		vocab:    vocab,
		idf:      idf,
		vectors:  vectors,
		docNorms: norms,
	}
}

func tokenize(s string, caseInsensitive bool) []string {
	// NFC-normalize so composed and decomposed forms of the same
	// character (e.g. accented identifiers in doc prose) tokenize
	// identically, per spec §9's Unicode open question.
	s = norm.NFC.String(s)
	if caseInsensitive {
		s = strings.ToLower(s)
	}
	return reToken.FindAllString(s, -1)
}

// Hit is one search result: the matched document and its cosine score.
type Hit struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Search computes the query's TF-IDF vector against idx's fixed
// vocabulary/idf, scores every chunk by cosine similarity, drops
// zero-dot chunks, sorts by (−score, doc_id), and returns the top_k
// hits, per spec §4.12.
func (idx *Index) Search(query string, topK int) []Hit {
	toks := tokenize(query, idx.caseFold)
	if len(toks) == 0 || len(idx.docs) == 0 {
		return nil
	}

	qtf := map[string]int{}
	for _, t := range toks {
		qtf[t]++
	}
	qvec := make(map[string]float64, len(qtf))
	var qSumSquares float64
	for t, count := range qtf {
		w := (1 + math.Log(float64(count))) * idx.idf[t]
		qvec[t] = w
		qSumSquares += w * w
	}
	qNorm := math.Sqrt(qSumSquares)
	if qNorm > 0 {
		for t := range qvec {
			qvec[t] /= qNorm
		}
	}

	var hits []Hit
	for i, vec := range idx.vectors {
		var dot float64
		for t, qw := range qvec {
			if dw, ok := vec[t]; ok {
				dot += qw * dw
			}
		}
		if dot == 0 {
			continue
		}
		hits = append(hits, Hit{Document: idx.docs[i], Score: dot})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.DocID < hits[j].Document.DocID
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
