package services

import (
	"context"
	"log"
	"strings"
)

// NotificationSink delivers a formatted balance-change message to a trader.
// Send reports delivery and never returns an error; callers treat it as best-effort.
type NotificationSink interface {
	Send(ctx context.Context, targetKey, text string) bool
}

// SMSNotificationSink sends notifications as SMS to the trader's phone key
type SMSNotificationSink struct {
	sms SMSService
}

// NewSMSNotificationSink creates a notification sink backed by an SMS provider
func NewSMSNotificationSink(sms SMSService) NotificationSink {
	return &SMSNotificationSink{sms: sms}
}

func (s *SMSNotificationSink) Send(ctx context.Context, targetKey, text string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notification: panic while sending to %s: %v", targetKey, r)
			ok = false
		}
	}()

	targetKey = strings.TrimSpace(targetKey)
	if s.sms == nil || targetKey == "" || text == "" {
		return false
	}
	if err := s.sms.SendSMS(ctx, targetKey, text); err != nil {
		log.Printf("notification: failed to send to %s: %v", targetKey, err)
		return false
	}
	return true
}

// NoopNotificationSink drops every message
type NoopNotificationSink struct{}

func (NoopNotificationSink) Send(context.Context, string, string) bool { return false }
