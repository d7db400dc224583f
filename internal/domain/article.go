package domain

// Article is one pre-ingested news article of the corpus.
type Article struct {
	ID          string
	Title       string
	Content     string
	URL         string
	PublishedAt string
}

// EmbeddingText returns the text that represents the article in vector space.
func (a Article) EmbeddingText() string {
	if a.Title == "" {
		return a.Content
	}
	if a.Content == "" {
		return a.Title
	}
	return a.Title + "\n\n" + a.Content
}

// SimilarityHit is an article ranked against a query.
type SimilarityHit struct {
	Article Article
	// Score is the cosine similarity in [-1, 1].
	Score float32
	// Rank is 1-indexed.
	Rank int
}
