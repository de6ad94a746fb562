package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
	"github.com/noah-isme/unisync-api/pkg/jobs"
	"github.com/noah-isme/unisync-api/pkg/mail"
)

type mockMailSender struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *mockMailSender) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

type mockPublisher struct {
	bodies [][]byte
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, body []byte) error {
	m.bodies = append(m.bodies, body)
	return m.err
}

func sampleNotification(event models.NotificationEvent) models.LeaveNotification {
	return models.LeaveNotification{
		Event:        event,
		RequestID:    "req-1",
		Type:         models.LeaveTypeOD,
		Status:       models.LeaveStatusApproved,
		StudentName:  "Demo <Student>",
		StudentID:    "STU001",
		StudentEmail: "student@unisync.edu",
		Reason:       "Hackathon",
		Periods:      intPtr(2),
		StaffEmail:   "staff-office@unisync.edu",
		AdminEmail:   "registrar@unisync.edu",
	}
}

func TestSMTPNotifierSend(t *testing.T) {
	sender := &mockMailSender{}
	notifier := NewSMTPNotifier(sender)

	result := notifier.Send(context.Background(), sampleNotification(models.NotificationLeaveDecided))
	require.True(t, result.Success, result.Error)
	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.ElementsMatch(t, []string{"staff-office@unisync.edu", "registrar@unisync.edu", "student@unisync.edu"}, msg.To)
	assert.Equal(t, "[UniSync] On-duty request approved", msg.Subject)
	assert.Contains(t, msg.HTML, "Demo &lt;Student&gt;")
	assert.Contains(t, msg.Text, "Reference: req-1")

	sender.err = errors.New("connection refused")
	result = notifier.Send(context.Background(), sampleNotification(models.NotificationLeaveSubmitted))
	assert.False(t, result.Success)
	assert.Equal(t, "connection refused", result.Error)
}

func TestSMTPNotifierWithoutRecipients(t *testing.T) {
	notification := sampleNotification(models.NotificationLeaveSubmitted)
	notification.StaffEmail, notification.AdminEmail = "", ""

	result := NewSMTPNotifier(&mockMailSender{}).Send(context.Background(), notification)
	assert.False(t, result.Success)
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	publisher := &mockPublisher{}
	result := NewAMQPNotifier(publisher).Send(context.Background(), sampleNotification(models.NotificationLeaveSubmitted))
	require.True(t, result.Success)
	require.Len(t, publisher.bodies, 1)
	assert.Contains(t, string(publisher.bodies[0]), `"event":"leave_submitted"`)
	assert.Contains(t, string(publisher.bodies[0]), `"request_id":"req-1"`)
}

func TestNotificationServiceRetriesFailures(t *testing.T) {
	notifier := &recordingNotifier{fail: true}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, metrics, nil, NotificationConfig{
		StaffEmail: "staff-office@unisync.edu",
		Queue:      jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 2, RetryDelay: time.Millisecond},
	})
	svc.Start(context.Background())
	defer svc.Stop()

	require.NoError(t, svc.Notify(sampleNotification(models.NotificationLeaveSubmitted)))
	assert.Eventually(t, func() bool {
		return metrics.Snapshot().NotificationsFailed == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(0), metrics.Snapshot().NotificationsSent)
}

func TestNotificationServiceReportsQueueErrors(t *testing.T) {
	svc := NewNotificationService(&recordingNotifier{}, nil, nil, NotificationConfig{})
	err := svc.Notify(sampleNotification(models.NotificationLeaveSubmitted))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "notification could not be queued"))

	var nilService *NotificationService
	assert.NoError(t, nilService.Notify(sampleNotification(models.NotificationLeaveSubmitted)))
}

func TestNotificationServiceAddressesAndReportsQueue(t *testing.T) {
	notifier := &recordingNotifier{}
	metrics := NewMetricsService()
	svc := NewNotificationService(notifier, metrics, nil, NotificationConfig{
		StaffEmail: "a@unisync.edu",
		AdminEmail: "b@unisync.edu",
		Queue:      jobs.QueueConfig{Workers: 1, BufferSize: 4},
	})
	svc.Start(context.Background())
	defer svc.Stop()

	notification := sampleNotification(models.NotificationLeaveSubmitted)
	notification.StaffEmail, notification.AdminEmail = "", ""
	require.NoError(t, svc.Notify(notification))

	assert.Eventually(t, func() bool {
		return metrics.Snapshot().Queues["notifications"].Processed == 1
	}, time.Second, 10*time.Millisecond)
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@unisync.edu", sent[0].StaffEmail)
	assert.Equal(t, "b@unisync.edu", sent[0].AdminEmail)
	assert.Equal(t, 0, metrics.Snapshot().Queues["notifications"].Pending)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, family := range families {
		if family.GetName() == "job_queue_pending" {
			found = true
		}
	}
	assert.True(t, found)
}
