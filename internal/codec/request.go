package codec

// ExecutionRequest is the body of a single-shot execution call. Fields are
// plain text; the execution endpoint handles transport encoding upstream.
type ExecutionRequest struct {
	SourceCode string `json:"sourceCode"`
	LanguageID int    `json:"languageId"`
	Stdin      string `json:"stdin"`
}
