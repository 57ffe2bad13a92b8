// Package logging writes the high level customer facing results produced by
// the security coordination layer.
package logging

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"webshield/waf"
)

// NewZerologResultsLogger creates a results logger that creates log messages like the ones we want to send to the customer, but just outputs them to Zerolog.
func NewZerologResultsLogger(logger zerolog.Logger) waf.ResultsLogger {
	return &zerologResultsLogger{logger: logger}
}

type zerologResultsLogger struct {
	logger zerolog.Logger
}

func (l *zerologResultsLogger) EvaluationRecorded(request waf.ResultsLoggerHTTPRequest, result waf.Result) {
	action := actionDetected
	if result.Blocked {
		action = actionBlocked
	}

	l.emit(securityLogEntry{
		OperationName: logOperationName,
		Category:      logCategory,
		Properties: securityLogEntryProperty{
			ClientIP:      request.ClientIP(),
			RequestURI:    request.URI(),
			TransactionID: request.TransactionID(),
			Action:        action,
			Message:       "Security rules evaluated",
			Details: securityLogDetailsEntry{
				MatchData:   result.MatchData,
				Diagnostics: result.Diagnostics,
			},
		},
	})
}

func (l *zerologResultsLogger) RequestBlocked(request waf.ResultsLoggerHTTPRequest) {
	l.emit(securityLogEntry{
		OperationName: logOperationName,
		Category:      logCategory,
		Properties: securityLogEntryProperty{
			ClientIP:      request.ClientIP(),
			RequestURI:    request.URI(),
			TransactionID: request.TransactionID(),
			Action:        actionBlocked,
			Message:       "Request blocked",
		},
	})
}

func (l *zerologResultsLogger) BodyParseError(request waf.ResultsLoggerHTTPRequest, err error) {
	l.emit(securityLogEntry{
		OperationName: logOperationName,
		Category:      logCategory,
		Properties: securityLogEntryProperty{
			ClientIP:      request.ClientIP(),
			RequestURI:    request.URI(),
			TransactionID: request.TransactionID(),
			Action:        actionDetected,
			Message:       "Request body scanning error",
			Details: securityLogDetailsEntry{
				Message: err.Error(),
			},
		},
	})
}

func (l *zerologResultsLogger) emit(entry securityLogEntry) {
	bb, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON results log")
		return
	}

	l.logger.Info().Msgf("Customer facing log:\n%s\n", bb)
}
