package output

import (
	"encoding/json"

	"killport/pkg/model"
)

// ToJSON renders candidates as indented JSON. An empty candidate set
// renders as [], not null.
func ToJSON(cands []model.Candidate) (string, error) {
	if cands == nil {
		cands = []model.Candidate{}
	}
	data, err := json.MarshalIndent(cands, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
