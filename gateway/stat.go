package gateway

import (
	"github.com/viant/gmetric/counter"
)

const (
	statErrorKey = "error"
	statCreate   = "create"
	statList     = "list"
	statUpdate   = "update"
	statDelete   = "delete"

	operationMetricName = "gateway"
)

// operations maps gateway operation outcomes to metric counters
type operations struct{}

func (p operations) Keys() []string {
	return []string{
		statErrorKey,
		statCreate,
		statList,
		statUpdate,
		statDelete,
	}
}

func (p operations) Map(value interface{}) int {
	if value == nil {
		return -1
	}
	if _, ok := value.(error); ok {
		return 0
	}
	switch value {
	case statErrorKey:
		return 0
	case statCreate:
		return 1
	case statList:
		return 2
	case statUpdate:
		return 3
	case statDelete:
		return 4
	}
	return -1
}

func newOperations() counter.Provider {
	return &operations{}
}
