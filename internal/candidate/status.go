package candidate

import (
	"fmt"
	"strings"
)

// Status is the human-managed recruiting funnel label. It is independent of
// the conversational stage.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusScreening Status = "SCREENING"
	StatusQualified Status = "QUALIFIED"
	StatusInterview Status = "INTERVIEW"
	StatusOffer     Status = "OFFER"
	StatusRejected  Status = "REJECTED"
)

var validStatuses = map[Status]struct{}{
	StatusNew:       {},
	StatusScreening: {},
	StatusQualified: {},
	StatusInterview: {},
	StatusOffer:     {},
	StatusRejected:  {},
}

// ParseStatus normalizes s and rejects values outside the funnel.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validStatuses[status]; !ok {
		return "", fmt.Errorf("invalid pipeline status %q", s)
	}
	return status, nil
}
