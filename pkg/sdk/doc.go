// Package sdk provides a Go client for the crossdex HTTP API.
//
// The client submits queries, polls request state, and fetches synthesized
// reports from a running crossdex server:
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//	req, _ := client.Submit(ctx, "assay results for aspirin batch ASP-25-002")
//	report, _ := client.Report(ctx, req.ID)
//	for _, section := range report.Sections {
//	    fmt.Println(section.Domain, len(section.Fields))
//	}
//
// API errors carry the server's status and error code:
//
//	if _, err := client.Get(ctx, "missing"); sdk.IsNotFound(err) {
//	    // handle 404
//	}
package sdk
