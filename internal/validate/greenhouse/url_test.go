package greenhouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBoardJob(t *testing.T) {
	cases := []struct {
		name  string
		link  string
		board string
		jobID string
	}{
		{
			name:  "classic board path",
			link:  "https://boards.greenhouse.io/yotpo/jobs/6879531",
			board: "yotpo",
			jobID: "6879531",
		},
		{
			name:  "classic path on custom domain",
			link:  "https://careers.acme.com/acme/jobs/123456?utm_source=x",
			board: "acme",
			jobID: "123456",
		},
		{
			name:  "embed application form",
			link:  "https://boards.greenhouse.io/embed/job_app?for=nice&token=4550857101",
			board: "nice",
			jobID: "4550857101",
		},
		{
			name:  "gh_jid with explicit board",
			link:  "https://careers.example.com/roles?gh_jid=123456&for=acme",
			board: "acme",
			jobID: "123456",
		},
		{
			name:  "gh_jid falling back to path for board",
			link:  "https://jobs.example.com/acme?gh_jid=987654",
			board: "acme",
			jobID: "987654",
		},
		{
			name:  "board-only embed",
			link:  "https://boards.greenhouse.io/embed/job_board?for=jfrog",
			board: "jfrog",
			jobID: "",
		},
		{
			name:  "bare board on greenhouse host",
			link:  "https://boards.greenhouse.io/lemonade",
			board: "lemonade",
			jobID: "",
		},
		{
			name:  "unrecognized link",
			link:  "https://example.com/about-us",
			board: "",
			jobID: "",
		},
		{
			name:  "empty link",
			link:  "",
			board: "",
			jobID: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board, jobID := ParseBoardJob(tc.link)
			assert.Equal(t, tc.board, board)
			assert.Equal(t, tc.jobID, jobID)
		})
	}
}
