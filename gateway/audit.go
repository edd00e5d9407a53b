package gateway

import (
	"time"

	"github.com/viant/afs"
	"github.com/viant/tapper/config"
	"github.com/viant/tapper/log"
	"github.com/viant/tapper/msg"

	_ "github.com/viant/afsc/s3"
)

// auditor appends gateway operation records to a stream URL
type auditor struct {
	logger   *log.Logger
	provider *msg.Provider
}

// Log records a single gateway operation
func (a *auditor) Log(operation, apiID, URL string) error {
	if a == nil {
		return nil
	}
	message := a.provider.NewMessage()
	defer message.Free()
	message.PutString("Operation", operation)
	if apiID != "" {
		message.PutString("APIID", apiID)
	}
	if URL != "" {
		message.PutString("URL", URL)
	}
	message.PutString("Timestamp", time.Now().UTC().Format(time.RFC3339))
	return a.logger.Log(message)
}

func (a *auditor) Close() error {
	if a == nil {
		return nil
	}
	return a.logger.Close()
}

func newAuditor(URL string) (*auditor, error) {
	logger, err := log.New(&config.Stream{URL: URL}, "", afs.New())
	if err != nil {
		return nil, err
	}
	return &auditor{
		logger:   logger,
		provider: msg.NewProvider(2048, 4),
	}, nil
}
