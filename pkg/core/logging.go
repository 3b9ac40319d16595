package core

import (
	"log"
	"os"
	"strings"
)

const logPrefix = "reviewbridge"

// NewLogger returns a standard logger prefixed with the service and component name.
func NewLogger(component string) *log.Logger {
	prefix := logPrefix
	if component = strings.TrimSpace(component); component != "" {
		prefix += "/" + component
	}
	return log.New(os.Stderr, prefix+" ", log.LstdFlags|log.LUTC)
}

// WithRequestID derives a logger that tags every line with a request ID.
func WithRequestID(logger *log.Logger, requestID string) *log.Logger {
	if logger == nil {
		logger = NewLogger("")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return logger
	}
	return log.New(logger.Writer(), logger.Prefix()+"request_id="+requestID+" ", logger.Flags())
}
