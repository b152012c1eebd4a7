package worker

import (
	"context"
	"testing"

	"github.com/stylefit-next/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleOrderStatusEmailInvalidPayload(t *testing.T) {
	consumer := &Consumer{}

	task := asynq.NewTask(queue.TaskOrderStatusEmail, []byte("{not json"))
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for malformed payload")
	}

	task = asynq.NewTask(queue.TaskOrderStatusEmail, []byte(`{"order_id":0}`))
	if err := consumer.handleOrderStatusEmail(context.Background(), task); err != nil {
		t.Fatalf("zero order id should be skipped without error, got %v", err)
	}
}

func TestHandleTryOnGenerateInvalidPayload(t *testing.T) {
	consumer := &Consumer{}

	task := asynq.NewTask(queue.TaskTryOnGenerate, []byte("{not json"))
	if err := consumer.handleTryOnGenerate(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error for malformed payload")
	}

	task = asynq.NewTask(queue.TaskTryOnGenerate, []byte(`{"user_id":0}`))
	if err := consumer.handleTryOnGenerate(context.Background(), task); err != nil {
		t.Fatalf("zero user id should be skipped without error, got %v", err)
	}

	task = asynq.NewTask(queue.TaskTryOnGenerate, []byte(`{"user_id":7,"garment_images":{}}`))
	if err := consumer.handleTryOnGenerate(context.Background(), task); err != nil {
		t.Fatalf("empty garment set should be skipped without error, got %v", err)
	}
}
