// Package cdr models call-detail records: the messages pushed to the
// rating engine and the rated rows it writes back.
package cdr

import (
	"fmt"
	"strings"
	"time"
)

// Call types as they appear on the wire.
const (
	CallTypeOutgoing = "01"
	CallTypeIncoming = "02"
)

// Record is a single call-detail record in wire format.
type Record struct {
	CallType               string `json:"callType"`
	FirstSubscriberMsisdn  string `json:"firstSubscriberMsisdn"`
	SecondSubscriberMsisdn string `json:"secondSubscriberMsisdn"`
	CallStart              string `json:"callStart"`
	CallEnd                string `json:"callEnd"`
}

// Validate checks that every required field is present.
func (r Record) Validate() error {
	var missing []string

	if r.CallType == "" {
		missing = append(missing, "callType")
	}
	if r.FirstSubscriberMsisdn == "" {
		missing = append(missing, "firstSubscriberMsisdn")
	}
	if r.SecondSubscriberMsisdn == "" {
		missing = append(missing, "secondSubscriberMsisdn")
	}
	if r.CallStart == "" {
		missing = append(missing, "callStart")
	}
	if r.CallEnd == "" {
		missing = append(missing, "callEnd")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RatedRecord is a row of the cdr_record table as written by the rating engine.
type RatedRecord struct {
	ID              int64     `json:"id"`
	MsisdnOne       string    `json:"msisdn_one"`
	MsisdnTwo       string    `json:"msisdn_two"`
	Type            string    `json:"type"`
	StartTime       time.Time `json:"start_time"`
	InOneNetwork    bool      `json:"in_one_network"`
	OurSubscriberID *int64    `json:"our_subscriber_id,omitempty"`
	Lasts           int64     `json:"lasts"`
}
