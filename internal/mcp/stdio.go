package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"domainsuggest/internal/auth"
)

// RunStdio serves newline-delimited JSON-RPC from in to out until in is
// exhausted or ctx is cancelled. The local process is trusted, so no
// session or credentials are required.
func RunStdio(ctx context.Context, srv *Server, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	ctx = auth.WithPrincipal(ctx, auth.Principal{Subject: "stdio", Scopes: []string{"*"}, AuthMethod: "stdio"})
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := Response{JSONRPC: "2.0"}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = &ResponseError{Code: codeParseError, Message: "invalid json"}
		} else {
			if strings.HasPrefix(req.Method, "notifications/") {
				continue
			}
			resp.ID = req.ID
			result, err := srv.dispatch(ctx, req)
			if err != nil {
				resp.Error = errorObject(err)
			} else {
				resp.Result = result
			}
		}
		data, _ := json.Marshal(resp)
		if _, err := writer.Write(append(data, '\n')); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("stdio scan error: %w", err)
	}
	return nil
}
