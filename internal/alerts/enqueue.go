package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

func enqueue(taskType, userID string, payload OrderEventPayload) error {
	if client == nil {
		// Alerts not initialized (tests, or no Redis configured); all
		// notifications are best-effort so this is a silent no-op.
		return nil
	}
	payload.UserID = userID
	payload.SentAt = time.Now()
	b, _ := json.Marshal(payload)
	_, err := client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue("emails"))
	return err
}

// EnqueueOrderPlaced notifies the seller that a buyer paid into escrow.
func EnqueueOrderPlaced(orderID int64, sellerID, sellerEmail, productName string, amount int64) error {
	return enqueue(TaskOrderPlaced, sellerID, OrderEventPayload{
		OrderID: orderID,
		Amount:  amount,
		Envelope: EmailEnvelope{
			To:      sellerEmail,
			Subject: "New order for " + productName,
			Body:    fmt.Sprintf("Order %d: %d base units are held in escrow. Ship to proceed.", orderID, amount),
		},
	})
}

// EnqueueOrderShipped notifies the buyer that the seller claimed shipment.
func EnqueueOrderShipped(orderID int64, buyerID, buyerEmail, productName string) error {
	return enqueue(TaskOrderShipped, buyerID, OrderEventPayload{
		OrderID: orderID,
		Envelope: EmailEnvelope{
			To:      buyerEmail,
			Subject: "Your order has shipped",
			Body:    fmt.Sprintf("Order %d (%s) was marked shipped. Complete the order on receipt to release payment.", orderID, productName),
		},
	})
}

// EnqueueOrderCompleted notifies the seller of the escrow payout.
func EnqueueOrderCompleted(orderID int64, sellerID, sellerEmail string, amount int64) error {
	return enqueue(TaskOrderCompleted, sellerID, OrderEventPayload{
		OrderID: orderID,
		Amount:  amount,
		Envelope: EmailEnvelope{
			To:      sellerEmail,
			Subject: "Order completed and paid",
			Body:    fmt.Sprintf("Order %d is completed. %d base units were released to your wallet.", orderID, amount),
		},
	})
}

// EnqueueOrderCancelled notifies the other participant of a cancellation.
func EnqueueOrderCancelled(orderID int64, userID, email string, amount int64) error {
	return enqueue(TaskOrderCancelled, userID, OrderEventPayload{
		OrderID: orderID,
		Amount:  amount,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Order cancelled",
			Body:    fmt.Sprintf("Order %d was cancelled. The escrowed %d base units were refunded to the buyer.", orderID, amount),
		},
	})
}

// EnqueueDisputeOpened notifies a participant or the arbiter of a dispute.
func EnqueueDisputeOpened(orderID int64, userID, email, reason string) error {
	return enqueue(TaskDisputeOpened, userID, OrderEventPayload{
		OrderID: orderID,
		Reason:  reason,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Dispute opened",
			Body:    fmt.Sprintf("Order %d is now disputed: %s. Funds stay in escrow until arbitration.", orderID, reason),
		},
	})
}

// EnqueueDisputeResolved notifies a participant of the arbiter's decision.
func EnqueueDisputeResolved(orderID int64, userID, email string, refundBuyer bool, note string) error {
	outcome := "released to the seller"
	if refundBuyer {
		outcome = "refunded to the buyer"
	}
	return enqueue(TaskDisputeResolved, userID, OrderEventPayload{
		OrderID: orderID,
		Reason:  note,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Dispute resolved",
			Body:    fmt.Sprintf("Order %d was resolved and the escrowed funds were %s. Note: %s", orderID, outcome, note),
		},
	})
}
