package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
//
// The function consumes the reminder queue. An EventBridge schedule invoking
// it with a scheduled event runs one dispatcher tick instead.

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"nutrition-backend/internal/bootstrap"
	"nutrition-backend/internal/shared/config"
	"nutrition-backend/internal/shared/telemetry"
	"nutrition-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp(ctx context.Context) {
	cfg := config.Load()
	built, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, raw json.RawMessage) (any, error) {
	initOnce.Do(func() { initApp(ctx) })

	var probe struct {
		Records    []json.RawMessage `json:"Records"`
		DetailType string            `json:"detail-type"`
	}
	_ = json.Unmarshal(raw, &probe)
	if probe.DetailType == "Scheduled Event" {
		if initErr != nil {
			return nil, initErr
		}
		n, err := app.Dispatcher.Tick(ctx)
		telemetry.Info("lambda.dispatch", map[string]any{"enqueued": n})
		return map[string]int{"enqueued": n}, err
	}

	var event events.SQSEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, err
	}
	return handleSQS(ctx, event, deliverer(), initErr), nil
}

func deliverer() workerproc.Deliverer {
	if app == nil {
		return nil
	}
	return app.Deliver
}

// handleSQS reports retryable failures back to SQS. Bodies that can never be
// parsed are dropped so they do not loop until the redrive limit.
func handleSQS(ctx context.Context, event events.SQSEvent, deliver workerproc.Deliverer, initErr error) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}
	}

	for _, record := range event.Records {
		err := workerproc.HandleMessage(ctx, deliver, record.Body)
		if err == nil {
			continue
		}
		telemetry.Error("lambda.reminder_failed", map[string]any{
			"sqs_message_id": record.MessageId,
			"error":          err,
			"retry":          workerproc.Retryable(err),
		})
		if workerproc.Retryable(err) {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
