package gateway

import (
	"time"

	"github.com/spiffcs/scout/internal/model"
)

// wireRepo is a repository as the upstream encodes it.
type wireRepo struct {
	ID              int64   `json:"id"`
	FullName        string  `json:"full_name"`
	StargazersCount int     `json:"stargazers_count"`
	RelevanceScore  float64 `json:"relevance_score"`
	Description     *string `json:"description"`
	Language        *string `json:"language"`
	HTMLURL         string  `json:"html_url"`
}

type searchResponse struct {
	Items      []wireRepo `json:"items"`
	HasMore    *bool      `json:"has_more"`
	TotalCount int        `json:"total_count"`
	Error      string     `json:"error"`
	Message    string     `json:"message"`
}

type wireLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type wireIssue struct {
	ID     int64       `json:"id"`
	Number int         `json:"number"`
	Title  string      `json:"title"`
	Body   *string     `json:"body"`
	Labels []wireLabel `json:"labels"`
	User   *struct {
		Login string `json:"login"`
	} `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	HTMLURL   string    `json:"html_url"`
}

type issuesResponse struct {
	Issues  []wireIssue `json:"issues"`
	Error   string      `json:"error"`
	Message string      `json:"message"`
}

type explainRequest struct {
	Issue    wireIssue `json:"issue"`
	RepoName string    `json:"repoName"`
}

type explainResponse struct {
	Success     bool   `json:"success"`
	Explanation string `json:"explanation"`
	Error       string `json:"error"`
}

// errorBody is the shape of an upstream error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func (w wireRepo) toModel() model.Repository {
	r := model.Repository{
		ID:             w.ID,
		FullName:       w.FullName,
		StarCount:      w.StargazersCount,
		RelevanceScore: w.RelevanceScore,
		Description:    w.Description,
		HTMLURL:        w.HTMLURL,
	}
	if w.Language != nil {
		r.Language = *w.Language
	}
	return r
}

func (w wireIssue) toModel() model.Issue {
	is := model.Issue{
		ID:        w.ID,
		Number:    w.Number,
		Title:     w.Title,
		CreatedAt: w.CreatedAt,
		URL:       w.HTMLURL,
	}
	if w.Body != nil {
		is.Body = *w.Body
	}
	if w.User != nil {
		is.Author = w.User.Login
	}
	for _, l := range w.Labels {
		is.Labels = append(is.Labels, model.Label(l))
	}
	return is
}

// issueToWire re-encodes an issue for the explanation request.
func issueToWire(is model.Issue) wireIssue {
	w := wireIssue{
		ID:        is.ID,
		Number:    is.Number,
		Title:     is.Title,
		Body:      &is.Body,
		CreatedAt: is.CreatedAt,
		HTMLURL:   is.URL,
	}
	if is.Author != "" {
		w.User = &struct {
			Login string `json:"login"`
		}{Login: is.Author}
	}
	for _, l := range is.Labels {
		w.Labels = append(w.Labels, wireLabel(l))
	}
	return w
}
