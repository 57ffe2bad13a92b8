package waf

// ResultsLogger is where the coordination layer writes high level customer facing results.
type ResultsLogger interface {
	EvaluationRecorded(request ResultsLoggerHTTPRequest, result Result)
	RequestBlocked(request ResultsLoggerHTTPRequest)
	BodyParseError(request ResultsLoggerHTTPRequest, err error)
}
