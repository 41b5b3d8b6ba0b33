package output

import (
	"encoding/json"
	"io"

	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) encoder(w io.Writer) *json.Encoder {
	encoder := json.NewEncoder(w)
	if f.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder
}

// FormatResults outputs the session snapshot as JSON
func (f *JSONFormatter) FormatResults(snap service.Snapshot, w io.Writer) error {
	if snap.Results == nil {
		snap.Results = []model.Repository{}
	}
	return f.encoder(w).Encode(snap)
}

// FormatIssues outputs an issue list as JSON
func (f *JSONFormatter) FormatIssues(list IssueList, w io.Writer) error {
	if list.Issues == nil {
		list.Issues = []model.Issue{}
	}
	return f.encoder(w).Encode(list)
}

// FormatExplanation outputs an explanation as JSON
func (f *JSONFormatter) FormatExplanation(e Explanation, w io.Writer) error {
	return f.encoder(w).Encode(e)
}
