package logging

import (
	"encoding/json"
	"path/filepath"

	"github.com/rs/zerolog"

	"webshield/waf"
)

type filelogResultsLogger struct {
	fileSystem   LogFileSystem
	file         LogFile
	path         string
	logger       zerolog.Logger
	writelogline chan []byte
	writeDone    chan bool
}

// NewFileResultsLogger creates a results logger that writes one JSON entry
// per line to the given file. Sending on reopenCh makes it reopen the file,
// for log rotation.
func NewFileResultsLogger(fileSystem LogFileSystem, logger zerolog.Logger, path string, reopenCh chan bool) (waf.ResultsLogger, error) {
	r := &filelogResultsLogger{fileSystem: fileSystem, logger: logger, path: path}

	err := fileSystem.MkDir(filepath.Dir(path))
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to create the directory while initializing")
		return nil, err
	}

	r.file, err = fileSystem.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("file", path).Msg("Failed to open the file at initiation")
		return nil, err
	}

	r.writelogline = make(chan []byte)
	r.writeDone = make(chan bool)
	go func() {
		for {
			select {
			case v := <-r.writelogline:
				r.file.Append(v)
				r.file.Append([]byte("\n"))
				r.writeDone <- true
			case <-reopenCh:
				r.reopen()
			}
		}
	}()

	return r, nil
}

func (l *filelogResultsLogger) reopen() {
	l.file.Close()
	f, err := l.fileSystem.Open(l.path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", l.path).Msg("Failed to reopen the results log file")
		return
	}
	l.file = f
}

func (l *filelogResultsLogger) EvaluationRecorded(request waf.ResultsLoggerHTTPRequest, result waf.Result) {
	action := actionDetected
	if result.Blocked {
		action = actionBlocked
	}

	l.write(securityLogEntry{
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

func (l *filelogResultsLogger) RequestBlocked(request waf.ResultsLoggerHTTPRequest) {
	l.write(securityLogEntry{
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

func (l *filelogResultsLogger) BodyParseError(request waf.ResultsLoggerHTTPRequest, err error) {
	l.write(securityLogEntry{
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

func (l *filelogResultsLogger) write(entry securityLogEntry) {
	bb, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error().Err(err).Msg("Error while marshaling JSON results log")
		return
	}

	l.writelogline <- bb
	<-l.writeDone
}
