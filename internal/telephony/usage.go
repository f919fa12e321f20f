// Package telephony wraps the Twilio account behind the café phone line:
// monthly usage figures and the voice routing of the number.
package telephony

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const listLimit = 1000

// TwilioAPI is the subset of the Twilio REST API the dashboard uses.
type TwilioAPI interface {
	ListCall(params *openapi.ListCallParams) ([]openapi.ApiV2010Call, error)
	ListMessage(params *openapi.ListMessageParams) ([]openapi.ApiV2010Message, error)
	UpdateIncomingPhoneNumber(Sid string, params *openapi.UpdateIncomingPhoneNumberParams) (*openapi.ApiV2010IncomingPhoneNumber, error)
}

type CallDetail struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
	StartTime string `json:"startTime"`
}

type TextDetail struct {
	SID      string `json:"sid"`
	From     string `json:"from"`
	To       string `json:"to"`
	Body     string `json:"body"`
	Status   string `json:"status"`
	DateSent string `json:"dateSent"`
}

type UsageReport struct {
	TotalCalls               int          `json:"totalCalls"`
	TotalTexts               int          `json:"totalTexts"`
	TotalCallDurationMinutes float64      `json:"totalCallDurationMinutes"`
	CallDetails              []CallDetail `json:"callDetails"`
	TextDetails              []TextDetail `json:"textDetails"`
}

type UsageService struct {
	api   TwilioAPI
	phone string
	loc   *time.Location
	now   func() time.Time
}

func NewUsageService(api TwilioAPI, phone string, loc *time.Location) *UsageService {
	if loc == nil {
		loc = time.UTC
	}
	return &UsageService{api: api, phone: phone, loc: loc, now: time.Now}
}

// MonthBounds returns the first instant of the month containing now and of
// the following month, in loc.
func MonthBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Report gathers this month's calls and messages to and from the café
// number.
func (s *UsageService) Report() (*UsageReport, error) {
	start, end := MonthBounds(s.now(), s.loc)

	var calls []openapi.ApiV2010Call
	for _, dir := range []string{"to", "from"} {
		params := &openapi.ListCallParams{}
		if dir == "to" {
			params.SetTo(s.phone)
		} else {
			params.SetFrom(s.phone)
		}
		params.SetStartTimeAfter(start)
		params.SetStartTimeBefore(end)
		params.SetLimit(listLimit)

		page, err := s.api.ListCall(params)
		if err != nil {
			return nil, fmt.Errorf("listing calls %s %s: %w", dir, s.phone, err)
		}
		calls = append(calls, page...)
	}

	var messages []openapi.ApiV2010Message
	for _, dir := range []string{"to", "from"} {
		params := &openapi.ListMessageParams{}
		if dir == "to" {
			params.SetTo(s.phone)
		} else {
			params.SetFrom(s.phone)
		}
		params.SetDateSentAfter(start)
		params.SetDateSentBefore(end)
		params.SetLimit(listLimit)

		page, err := s.api.ListMessage(params)
		if err != nil {
			return nil, fmt.Errorf("listing messages %s %s: %w", dir, s.phone, err)
		}
		messages = append(messages, page...)
	}

	callDetails, err := convert[twilioCall](calls)
	if err != nil {
		return nil, fmt.Errorf("reading calls: %w", err)
	}
	textDetails, err := convert[twilioMessage](messages)
	if err != nil {
		return nil, fmt.Errorf("reading messages: %w", err)
	}

	report := &UsageReport{
		TotalCalls:  len(callDetails),
		TotalTexts:  len(textDetails),
		CallDetails: make([]CallDetail, 0, len(callDetails)),
		TextDetails: make([]TextDetail, 0, len(textDetails)),
	}

	var seconds int
	for _, c := range callDetails {
		if n, err := strconv.Atoi(c.Duration); err == nil {
			seconds += n
		}
		report.CallDetails = append(report.CallDetails, CallDetail(c))
	}
	report.TotalCallDurationMinutes = float64(seconds) / 60

	for _, m := range textDetails {
		report.TextDetails = append(report.TextDetails, TextDetail(m))
	}

	return report, nil
}

// twilioCall and twilioMessage mirror the REST field names so the SDK
// structs can be read through their JSON form.
type twilioCall struct {
	SID       string `json:"sid"`
	From      string `json:"from"`
	To        string `json:"to"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
	StartTime string `json:"start_time"`
}

type twilioMessage struct {
	SID      string `json:"sid"`
	From     string `json:"from"`
	To       string `json:"to"`
	Body     string `json:"body"`
	Status   string `json:"status"`
	DateSent string `json:"date_sent"`
}

func convert[T any](in any) ([]T, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
