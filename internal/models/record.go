package models

import (
	"encoding/json"
	"strings"
)

// Store cell limit for long text columns
const maxStoredTextLen = 5000

// Record is a post flattened into the shape the table store accepts: scalar
// and string fields only, with the tag list joined and the structured
// extraction serialized to a text blob. The same shape backs the SQLite
// archive rows.
type Record struct {
	RedditID    string  `json:"reddit_id" gorm:"column:reddit_id;uniqueIndex;not null"`
	Subreddit   string  `json:"subreddit" gorm:"column:subreddit;index"`
	Title       string  `json:"title" gorm:"column:title"`
	SelfText    string  `json:"selftext" gorm:"column:selftext;type:text"`
	Score       int     `json:"score" gorm:"column:score"`
	NumComments int     `json:"num_comments" gorm:"column:num_comments"`
	CreatedAt   string  `json:"created_a" gorm:"column:created_a"` // the live table's column really is named created_a
	URL         string  `json:"url" gorm:"column:url"`
	Author      string  `json:"author" gorm:"column:author"`
	UpvoteRatio float64 `json:"upvote_ratio" gorm:"column:upvote_ratio"`

	Category     string `json:"category" gorm:"column:category"`
	Tags         string `json:"tags" gorm:"column:tags"`
	Summary      string `json:"summary" gorm:"column:summary;type:text"`
	Consensus    string `json:"consensus" gorm:"column:consensus"`
	KeyAdvice    string `json:"key_advice" gorm:"column:key_advice;type:text"`
	TopComment   string `json:"top_comment" gorm:"column:top_comment;type:text"`
	CommentScore int    `json:"comment_score" gorm:"column:comment_score"`

	ExtractedData  string `json:"extracted_data,omitempty" gorm:"column:extracted_data;type:text"`
	Patrimoine     *int   `json:"patrimoine,omitempty" gorm:"column:patrimoine"`
	RevenusAnnuels *int   `json:"revenus_annuels,omitempty" gorm:"column:revenus_annuels"`
	AgeAuteur      *int   `json:"age_auteur,omitempty" gorm:"column:age_auteur"`
	MontantMax     *int   `json:"montant_max,omitempty" gorm:"column:montant_max"`
}

// TableName names the SQLite archive table
func (Record) TableName() string {
	return "posts"
}

// NewRecord flattens a post for persistence
func NewRecord(p *Post) *Record {
	r := &Record{
		RedditID:    p.ID,
		Subreddit:   p.Subreddit,
		Title:       p.Title,
		SelfText:    Truncate(p.SelfText, maxStoredTextLen),
		Score:       p.Score,
		NumComments: p.NumComments,
		CreatedAt:   p.CreatedAt,
		URL:         p.URL,
		Author:      p.Author,
		UpvoteRatio: p.UpvoteRatio,
		Category:    p.Category,
		Tags:        strings.Join(p.Tags, ", "),
		Summary:     p.Summary,
		Consensus:   p.Consensus,
		KeyAdvice:   p.KeyAdvice,
	}

	if p.TopReply != nil {
		r.TopComment = Truncate(p.TopReply.Body, MaxReplyLen)
		r.CommentScore = p.TopReply.Score
	}

	if p.Extracted != nil {
		if blob, err := json.Marshal(p.Extracted); err == nil {
			r.ExtractedData = string(blob)
		}
		r.Patrimoine = p.Extracted.Patrimoine
		r.RevenusAnnuels = p.Extracted.RevenusAnnuels
		r.AgeAuteur = p.Extracted.Age
		r.MontantMax = p.Extracted.MaxAmount()
	}

	return r
}
