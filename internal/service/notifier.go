package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/pkg/mail"
)

// Notifier delivers leave notifications to the email collaborator.
type Notifier interface {
	Send(ctx context.Context, notification models.LeaveNotification) models.NotificationResult
}

type mailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type brokerPublisher interface {
	Publish(ctx context.Context, body []byte) error
}

var leaveMailTemplate = template.Must(template.New("leave").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>{{.Heading}}</h2>
<table cellpadding="4">
<tr><td><b>Student</b></td><td>{{.N.StudentName}} ({{.N.StudentID}})</td></tr>
<tr><td><b>Type</b></td><td>{{.TypeLabel}}</td></tr>
<tr><td><b>Reason</b></td><td>{{.N.Reason}}</td></tr>
<tr><td><b>From</b></td><td>{{.N.StartDate}}</td></tr>
<tr><td><b>To</b></td><td>{{.N.EndDate}}</td></tr>
{{if .N.Periods}}<tr><td><b>Periods</b></td><td>{{.N.Periods}}</td></tr>{{end}}
<tr><td><b>Status</b></td><td>{{.N.Status}}</td></tr>
</table>
<p>Reference: {{.N.RequestID}}</p>
</body></html>`))

// SMTPNotifier renders an HTML email and sends it through SMTP.
type SMTPNotifier struct {
	sender mailSender
}

// NewSMTPNotifier constructs the notifier.
func NewSMTPNotifier(sender mailSender) *SMTPNotifier {
	return &SMTPNotifier{sender: sender}
}

// Send delivers the notification.
func (n *SMTPNotifier) Send(ctx context.Context, notification models.LeaveNotification) models.NotificationResult {
	recipients := notification.Recipients()
	if len(recipients) == 0 {
		return models.NotificationResult{Success: false, Error: "no recipients configured"}
	}
	msg, err := RenderLeaveMail(notification)
	if err != nil {
		return models.NotificationResult{Success: false, Error: err.Error()}
	}
	msg.To = recipients
	if err := n.sender.Send(ctx, msg); err != nil {
		return models.NotificationResult{Success: false, Error: err.Error()}
	}
	return models.NotificationResult{Success: true, Message: fmt.Sprintf("email sent to %d recipient(s)", len(recipients))}
}

// AMQPNotifier hands the notification to an external mail worker through the broker.
type AMQPNotifier struct {
	publisher brokerPublisher
}

// NewAMQPNotifier constructs the notifier.
func NewAMQPNotifier(publisher brokerPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

// Send publishes the notification as JSON.
func (n *AMQPNotifier) Send(ctx context.Context, notification models.LeaveNotification) models.NotificationResult {
	body, err := json.Marshal(notification)
	if err != nil {
		return models.NotificationResult{Success: false, Error: err.Error()}
	}
	if err := n.publisher.Publish(ctx, body); err != nil {
		return models.NotificationResult{Success: false, Error: err.Error()}
	}
	return models.NotificationResult{Success: true, Message: "notification queued for delivery"}
}

// LogNotifier only logs notifications.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the notification and reports success.
func (n *LogNotifier) Send(_ context.Context, notification models.LeaveNotification) models.NotificationResult {
	n.logger.Info("leave notification",
		zap.String("event", string(notification.Event)),
		zap.String("request_id", notification.RequestID),
		zap.String("status", string(notification.Status)),
		zap.Strings("recipients", notification.Recipients()),
	)
	return models.NotificationResult{Success: true, Message: "notification logged"}
}

// RenderLeaveMail builds the subject and bodies of a leave notification email.
func RenderLeaveMail(notification models.LeaveNotification) (mail.Message, error) {
	typeLabel := "Leave"
	if notification.Type == models.LeaveTypeOD {
		typeLabel = "On-duty"
	}
	heading := fmt.Sprintf("New %s request from %s", strings.ToLower(typeLabel), notification.StudentName)
	if notification.Event == models.NotificationLeaveDecided {
		heading = fmt.Sprintf("%s request %s", typeLabel, notification.Status)
	}
	var buf bytes.Buffer
	data := struct {
		Heading   string
		TypeLabel string
		N         models.LeaveNotification
	}{heading, typeLabel, notification}
	if err := leaveMailTemplate.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("render leave mail: %w", err)
	}
	text := fmt.Sprintf("%s\nStudent: %s (%s)\nReason: %s\nFrom %s to %s\nStatus: %s\nReference: %s",
		heading, notification.StudentName, notification.StudentID, notification.Reason,
		notification.StartDate, notification.EndDate, notification.Status, notification.RequestID)
	return mail.Message{Subject: "[UniSync] " + heading, HTML: buf.String(), Text: text}, nil
}
