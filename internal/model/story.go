package model

import (
	"fmt"
	"strings"
)

type Tag string

const (
	TagModel          Tag = "Model"
	TagResearch       Tag = "Research"
	TagPolicy         Tag = "Policy"
	TagBusiness       Tag = "Business"
	TagSafety         Tag = "Safety"
	TagInfrastructure Tag = "Infrastructure"
)

var Tags = []Tag{TagModel, TagResearch, TagPolicy, TagBusiness, TagSafety, TagInfrastructure}

// ParseTag matches s case-insensitively against the fixed tag set.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	for _, t := range Tags {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

type Story struct {
	Headline string `json:"headline" bson:"headline"`
	Tag      Tag    `json:"tag" bson:"tag"`
	Summary  string `json:"summary" bson:"summary"`
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
}

type QAItem struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type Candidate struct {
	ID        int64
	Title     string
	URL       string
	Score     int
	Text      string
	CreatedAt int64
}
