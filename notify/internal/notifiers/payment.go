package notifiers

import (
	"context"
	"fmt"

	"github.com/amesa-systems/amesa-notify/notify/internal/events"
	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

func (s *Scope) paymentInitiated(ctx context.Context, e events.PaymentInitiatedEvent) error {
	req := newRequest(models.TypePaymentInitiated, "Payment Initiated",
		fmt.Sprintf("A payment of $%.2f %s has been initiated via %s. Processing...",
			e.Amount, events.CurrencyOrDefault(e.Currency), e.PaymentMethod))
	req.Data = map[string]interface{}{"paymentId": e.PaymentID}
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) paymentCompleted(ctx context.Context, e events.PaymentCompletedEvent) error {
	req := newRequest(models.TypePaymentCompleted, "Payment Successful",
		fmt.Sprintf("Your payment of $%.2f %s has been processed successfully via %s.",
			e.Amount, events.CurrencyOrDefault(e.Currency), e.PaymentMethod))
	req.Data = map[string]interface{}{"paymentId": e.PaymentID, "transactionId": e.TransactionID}
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) paymentFailed(ctx context.Context, e events.PaymentFailedEvent) error {
	detail := "Please try again or contact support."
	if e.FailureReason != "" {
		detail = "Reason: " + e.FailureReason
	}
	req := newRequest(models.TypePaymentFailed, "Payment Failed",
		fmt.Sprintf("Your payment of $%.2f could not be processed. %s", e.Amount, detail))
	req.Data = map[string]interface{}{"paymentId": e.PaymentID}
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) paymentRefunded(ctx context.Context, e events.PaymentRefundedEvent) error {
	message := fmt.Sprintf("A refund of $%.2f has been processed.", e.RefundAmount)
	if e.RefundReason != "" {
		message += " Reason: " + e.RefundReason
	}
	message += " The refund should appear in your account within 5-10 business days."
	req := newRequest(models.TypePaymentRefunded, "Payment Refunded", message)
	req.Data = map[string]interface{}{"paymentId": e.PaymentID, "transactionId": e.TransactionID}
	return s.send(ctx, e.UserID, req)
}

func (s *Scope) paymentDisputed(ctx context.Context, e events.PaymentDisputedEvent) error {
	req := newRequest(models.TypePaymentDisputed, "Payment Dispute",
		fmt.Sprintf("A dispute has been filed for your payment of $%.2f %s. Type: %s. Status: %s. Reason: %s",
			e.Amount, events.CurrencyOrDefault(e.Currency), e.DisputeType, e.Status, e.DisputeReason))
	req.Data = map[string]interface{}{"paymentId": e.PaymentID, "transactionId": e.TransactionID}
	return s.send(ctx, e.UserID, req, models.ChannelEmail, models.ChannelSMS)
}
