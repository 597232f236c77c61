package alerts

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/hibiken/asynq"

	"github.com/peermart/peermart/internal/ledger"
)

var (
	client *asynq.Client
	server *asynq.Server
	store  ledger.Store
)

// Init starts the Asynq server and initializes a shared client. When
// redisAddr is empty, alerts stay disabled and every enqueue is a no-op.
func Init(redisAddr string, s ledger.Store) {
	if redisAddr == "" {
		log.Printf("alerts disabled: no redis address configured")
		return
	}
	store = s

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client = asynq.NewClient(opts)

	mux := asynq.NewServeMux()
	for _, taskType := range []string{
		TaskOrderPlaced, TaskOrderShipped, TaskOrderCompleted,
		TaskOrderCancelled, TaskDisputeOpened, TaskDisputeResolved,
	} {
		mux.HandleFunc(taskType, handleOrderEvent)
	}

	server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("asynq server stopped: %v", err)
		}
	}()

	log.Printf("alerts initialized (addr=%s)", redisAddr)
}

// handleOrderEvent delivers one lifecycle notification: an email to the
// recipient plus an in-app record. Email failures are logged, not retried
// forever; the in-app record is the durable copy.
func handleOrderEvent(ctx context.Context, t *asynq.Task) error {
	var p OrderEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	if store != nil {
		_ = store.CreateNotification(ctx, &ledger.Notification{
			UserID:    p.UserID,
			Type:      t.Type(),
			Title:     p.Envelope.Subject,
			Body:      p.Envelope.Body,
			Reference: "order:" + strconv.FormatInt(p.OrderID, 10),
		})
	}

	if err := SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("email delivery failed (%s to %s): %v", t.Type(), p.Envelope.To, err)
	}
	return nil
}
