package handler

import "aidigest/internal/model"

type DigestRequest struct {
	Date string `json:"date"`
}

type AskRequest struct {
	Question string         `json:"question"`
	Headline string         `json:"headline"`
	Summary  string         `json:"summary"`
	PriorQA  []model.QAItem `json:"priorQA"`
}

type StoryResponse struct {
	Headline string `json:"headline"`
	Tag      string `json:"tag"`
	Summary  string `json:"summary"`
	URL      string `json:"url,omitempty"`
}

func toStoryResponses(stories []model.Story) []StoryResponse {
	res := make([]StoryResponse, len(stories))
	for i, s := range stories {
		res[i] = StoryResponse{
			Headline: s.Headline,
			Tag:      string(s.Tag),
			Summary:  s.Summary,
			URL:      s.URL,
		}
	}
	return res
}
