package greenhouse

import (
	"net/url"
	"strings"
)

// ParseBoardJob resolves the (board token, job id) pair from any of the
// Greenhouse link shapes seen in the wild. Rules are ordered; the first
// match wins. Unrecognized links yield ("", "").
//
//	https://boards.greenhouse.io/yotpo/jobs/6879531
//	https://boards.greenhouse.io/embed/job_app?for=nice&token=4550857101
//	https://careers.example.com/roles?gh_jid=123456&for=acme
//	https://boards.greenhouse.io/embed/job_board?for=jfrog
func ParseBoardJob(link string) (board, jobID string) {
	u, err := url.Parse(link)
	if err != nil {
		return "", ""
	}
	parts := splitPath(u.Path)
	query := u.Query()

	// Classic path: .../<board>/jobs/<id>
	if len(parts) >= 3 && parts[len(parts)-2] == "jobs" && isDigits(parts[len(parts)-1]) {
		return parts[len(parts)-3], parts[len(parts)-1]
	}

	// Embed application form: ?for=<board>&token=<id>
	if token := query.Get("token"); token != "" {
		return query.Get("for"), token
	}

	// Job id via query param: ?gh_jid=<id>, board from ?for= or first path part
	if jid := query.Get("gh_jid"); jid != "" {
		board = query.Get("for")
		if board == "" && len(parts) > 0 {
			board = parts[0]
		}
		return board, jid
	}

	// Board-only embed, no job: /embed/job_board?for=<board>
	if b := query.Get("for"); b != "" && containsPart(parts, "embed") {
		return b, ""
	}

	// Last resort: first numeric path segment as id, first segment as board.
	for _, p := range parts {
		if isDigits(p) {
			jobID = p
			break
		}
	}
	if len(parts) > 0 {
		board = parts[0]
		if strings.EqualFold(board, "embed") {
			board = ""
		}
	}
	if board != "" && jobID != "" {
		return board, jobID
	}
	if strings.Contains(u.Host, "boards.greenhouse.io") && board != "" {
		return board, jobID
	}
	return "", ""
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsPart(parts []string, want string) bool {
	for _, p := range parts {
		if p == want {
			return true
		}
	}
	return false
}
