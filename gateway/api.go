package gateway

import (
	"fmt"
	"time"
)

// API represents a provisioned pass-through proxy gateway
type API struct {
	ID        string
	Name      string
	CreatedOn time.Time
	Version   string
	TargetURL string
	InvokeURL string
}

// String returns a listing line
func (a *API) String() string {
	return fmt.Sprintf("[%v] (%v) %v: %v => %v", a.CreatedOn, a.ID, a.Name, a.InvokeURL, a.TargetURL)
}

// Summary returns a creation summary line
func (a *API) Summary() string {
	return fmt.Sprintf("[%v] (%v) %v => %v (%v)", a.CreatedOn, a.ID, a.Name, a.TargetURL, a.InvokeURL)
}
