package models

import (
	"strings"
	"time"
)

// Text caps applied at discovery time. Bodies beyond these limits add noise
// to classification and blow past the table store's cell limits.
const (
	MaxSelfTextLen = 2000
	MaxReplyLen    = 1000
)

// Reply is the single highest-ranked reply attached to a post
type Reply struct {
	ID     string `json:"comment_id"`
	Body   string `json:"comment_body"`
	Score  int    `json:"comment_score"`
	Author string `json:"comment_author"`
}

// Post represents one harvested unit of content from a discussion forum.
// The ID is assigned once at discovery and never changes; enrichment mutates
// the post in place but never touches identity or raw fields.
type Post struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  int64   `json:"created_utc"`
	CreatedAt   string  `json:"created_at"` // human-readable form of CreatedUTC
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	TopReply    *Reply  `json:"top_reply,omitempty"`

	// Enrichment outputs, added by the pipeline
	Category  string          `json:"category,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	Consensus string          `json:"consensus,omitempty"`
	KeyAdvice string          `json:"key_advice,omitempty"`
	Extracted *ExtractedFacts `json:"extracted_data,omitempty"`
}

// FullText concatenates title, body and top reply for text analysis
func (p *Post) FullText() string {
	parts := []string{p.Title, p.SelfText}
	if p.TopReply != nil {
		parts = append(parts, p.TopReply.Body)
	}
	return strings.Join(parts, " ")
}

// FormatCreatedAt derives the human-readable creation time from the raw epoch
func FormatCreatedAt(createdUTC int64) string {
	if createdUTC == 0 {
		return ""
	}
	return time.Unix(createdUTC, 0).UTC().Format("2006-01-02 15:04:05")
}

// Truncate caps a string at max bytes, never splitting the string mid-rune
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// Back off to the last rune boundary
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// ExtractedFacts holds the deterministic financial facts pulled from a
// post's text, independent of any AI output. Nil pointers mean "not found".
type ExtractedFacts struct {
	Amounts          []int `json:"amounts"`
	Patrimoine       *int  `json:"patrimoine"`
	RevenusAnnuels   *int  `json:"revenus_annuels"`
	RevenusMensuels  *int  `json:"revenus_mensuels"`
	EpargneMensuelle *int  `json:"epargne_mensuelle"`
	Age              *int  `json:"age"`
	DureeAnnees      *int  `json:"duree_annees"`
}

// MaxAmount returns the largest extracted amount, or nil if none were found
func (f *ExtractedFacts) MaxAmount() *int {
	if f == nil || len(f.Amounts) == 0 {
		return nil
	}
	max := f.Amounts[0]
	for _, a := range f.Amounts[1:] {
		if a > max {
			max = a
		}
	}
	return &max
}
