package crmauth_test

import (
	"context"
	"errors"
	"testing"

	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSendWithRetrySucceedsFirstAttempt(t *testing.T) {
	ctx := context.Background()
	msg := crmauth.NewRegistrationMail("ada@example.com", "Ada Vega", "AAbbbcc12!")

	mailer := new(MockMailer)
	mailer.On("Send", ctx, msg).Return(nil).Once()

	require.NoError(t, crmauth.SendWithRetry(ctx, mailer, msg))
	mailer.AssertExpectations(t)
}

func TestSendWithRetryRecoversFromTransientFailures(t *testing.T) {
	ctx := context.Background()
	msg := crmauth.NewRegistrationMail("ada@example.com", "Ada Vega", "AAbbbcc12!")

	mailer := new(MockMailer)
	mailer.On("Send", ctx, msg).Return(errors.New("smtp timeout")).Twice()
	mailer.On("Send", ctx, msg).Return(nil).Once()

	require.NoError(t, crmauth.SendWithRetry(ctx, mailer, msg))
	mailer.AssertNumberOfCalls(t, "Send", 3)
}

func TestSendWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	msg := crmauth.NewRecoveryMail("ada@example.com", "Ada Vega", "123456")

	mailer := new(MockMailer)
	mailer.On("Send", ctx, msg).Return(errors.New("smtp down"))

	err := crmauth.SendWithRetry(ctx, mailer, msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail delivery failed")
	mailer.AssertNumberOfCalls(t, "Send", crmauth.MailMaxAttempts)
}

func TestSendWithRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := crmauth.NewRecoveryMail("ada@example.com", "Ada Vega", "123456")

	mailer := new(MockMailer)

	err := crmauth.SendWithRetry(ctx, mailer, msg)
	require.Error(t, err)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNewRegistrationMail(t *testing.T) {
	msg := crmauth.NewRegistrationMail("ada@example.com", "Ada Vega", "AAbbbcc12!")

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Welcome to SkyCRM", msg.Subject)
	assert.Contains(t, msg.Body, "Ada Vega")
	assert.Contains(t, msg.Body, "AAbbbcc12!")
}

func TestNewRecoveryMail(t *testing.T) {
	msg := crmauth.NewRecoveryMail("ada@example.com", "Ada Vega", "123456")

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "SkyCRM account recovery", msg.Subject)
	assert.Contains(t, msg.Body, "Ada Vega")
	assert.Contains(t, msg.Body, "123456")
}
