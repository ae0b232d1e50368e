package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_BuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody string

	client := NewClient("smtp.example.com", 587, "", "", "361Degustation <orders@example.com>").
		WithSendFunc(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotBody = addr, from, to, string(msg)
			return nil
		})

	err := client.Send(context.Background(), Message{
		To:      "guest@example.com",
		Subject: "Order Confirmation - 361-ABC",
		Body:    "line one\nline two",
	})

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "orders@example.com", gotFrom)
	assert.Equal(t, []string{"guest@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: Order Confirmation - 361-ABC\r\n")
	assert.Contains(t, gotBody, "line one\r\nline two")
}

func TestSend_InvalidRecipient(t *testing.T) {
	client := NewClient("smtp.example.com", 587, "", "", "orders@example.com")
	err := client.Send(context.Background(), Message{To: "not an address"})
	assert.Error(t, err)
}

func TestSend_TransportError(t *testing.T) {
	client := NewClient("smtp.example.com", 587, "u", "p", "orders@example.com").
		WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		})

	err := client.Send(context.Background(), Message{To: "guest@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSend_ContextBoundsWait(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	client := NewClient("smtp.example.com", 587, "", "", "orders@example.com").
		WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
			<-release
			return nil
		})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.Send(ctx, Message{To: "guest@example.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
