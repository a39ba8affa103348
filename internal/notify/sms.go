// Package notify tells donors by SMS when a volunteer moves their donation along.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Ridhim15/Danam-Application/internal/models"
	"github.com/Ridhim15/Danam-Application/internal/phone"
	"github.com/Ridhim15/Danam-Application/internal/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher is the part of the SNS client used here
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSNotifier sends donation status messages through AWS SNS
type SMSNotifier struct {
	client   Publisher
	profiles store.Profiles
}

// NewSMSNotifier creates a notifier from an AWS config
func NewSMSNotifier(cfg aws.Config, profiles store.Profiles) *SMSNotifier {
	return NewSMSNotifierWithClient(sns.NewFromConfig(cfg), profiles)
}

// NewSMSNotifierWithClient creates a notifier on an existing client
func NewSMSNotifierWithClient(client Publisher, profiles store.Profiles) *SMSNotifier {
	return &SMSNotifier{client: client, profiles: profiles}
}

// Message returns the text sent for a donation in its current status, or "" when none is sent
func Message(d models.DonationRequest) string {
	switch d.Status {
	case models.DonationStatusAccepted:
		return fmt.Sprintf("Danam: your donation #%d to %s has been accepted by a volunteer. They will contact you for pickup.", d.ID, d.NGO)
	case models.DonationStatusCompleted:
		return fmt.Sprintf("Danam: your donation #%d to %s has been picked up. Thank you for giving!", d.ID, d.NGO)
	default:
		return ""
	}
}

// DonationStatusChanged texts the donor. Donors without a profile or a valid phone are skipped.
func (n *SMSNotifier) DonationStatusChanged(ctx context.Context, d models.DonationRequest) error {
	msg := Message(d)
	if msg == "" {
		return nil
	}
	p, err := n.profiles.GetProfile(ctx, d.UID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up donor: %w", err)
	}
	if !phone.Valid(p.Phone) {
		log.Printf("[DANAM-NOTIFY] Donor %s has no valid phone, skipping SMS for donation %d", d.UID, d.ID)
		return nil
	}
	return n.SendSMS(ctx, p.Phone, msg)
}

// SendSMS sends a transactional SMS to an E.164 number
func (n *SMSNotifier) SendSMS(ctx context.Context, phoneNumber, message string) error {
	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(phoneNumber),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	result, err := n.client.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	log.Printf("[DANAM-NOTIFY] Sent SMS, message id %s", aws.ToString(result.MessageId))
	return nil
}
