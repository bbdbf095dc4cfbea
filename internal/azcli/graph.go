package azcli

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rileyhilliard/patchctl/internal/errors"
)

// MaxRows caps how many rows a single query may page through.
const MaxRows = 5000

// graphResponse is the JSON shape of 'az graph query -o json'.
type graphResponse struct {
	Count        int              `json:"count"`
	Data         []map[string]any `json:"data"`
	SkipToken    string           `json:"skip_token"`
	TotalRecords int              `json:"total_records"`
}

// GraphExecutor runs Resource Graph queries through 'az graph query'.
type GraphExecutor struct {
	Runner *Runner
}

// NewGraphExecutor creates an executor using r.
func NewGraphExecutor(r *Runner) *GraphExecutor {
	return &GraphExecutor{Runner: r}
}

// GraphArgs builds the argument list for one page.
func GraphArgs(kql string, scopes []string, first int, skipToken string) []string {
	args := []string{"graph", "query", "-q", kql, "--first", strconv.Itoa(first)}
	if len(scopes) > 0 {
		args = append(args, "--subscriptions")
		args = append(args, scopes...)
	}
	if skipToken != "" {
		args = append(args, "--skip-token", skipToken)
	}
	return append(args, "-o", "json")
}

// Query implements inventory.Executor. It follows skip tokens until the
// result is exhausted or MaxRows is reached.
func (g *GraphExecutor) Query(ctx context.Context, kql string, scopes []string, first int) ([]map[string]any, error) {
	var rows []map[string]any
	skip := ""

	for {
		out, err := g.Runner.Run(ctx, GraphArgs(kql, scopes, first, skip)...)
		if err != nil {
			return nil, err
		}

		var resp graphResponse
		if err := json.Unmarshal(out, &resp); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrQuery,
				"Resource Graph returned output patchctl couldn't parse",
				"Check 'az graph query' works by hand and that az is up to date.")
		}

		rows = append(rows, resp.Data...)
		if resp.SkipToken == "" || len(resp.Data) == 0 || len(rows) >= MaxRows {
			break
		}
		skip = resp.SkipToken
	}

	if len(rows) > MaxRows {
		rows = rows[:MaxRows]
	}
	return rows, nil
}
