package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stylefit-next/internal/logger"
	"github.com/stylefit-next/internal/provider"
	"github.com/stylefit-next/internal/queue"
	"github.com/stylefit-next/internal/service"
	"github.com/stylefit-next/internal/tryon"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
	mux.HandleFunc(queue.TaskTryOnGenerate, c.handleTryOnGenerate)
}

func (c *Consumer) handleOrderStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_email_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_status_email_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	user, err := c.UserRepo.GetByID(order.UserID)
	if err != nil {
		logger.Warnw("worker_order_status_email_fetch_user_failed", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return err
	}
	receiverEmail := ""
	if user != nil {
		receiverEmail = strings.TrimSpace(user.Email)
	}
	if receiverEmail == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_order_status_email_skip_email_service_nil", "order_id", order.ID, "order_no", order.OrderNo)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	input := service.OrderStatusEmailInput{
		OrderNo:  order.OrderNo,
		Status:   status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}
	if err := c.EmailService.SendOrderStatusEmail(receiverEmail, input); err != nil {
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"receiver_email", receiverEmail,
			"status", status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleTryOnGenerate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_tryon_generate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.TryOnGeneratePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_tryon_generate_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || len(payload.GarmentImages) == 0 {
		logger.Debugw("worker_tryon_generate_skip_invalid_payload",
			"user_id", payload.UserID,
			"garment_count", len(payload.GarmentImages),
		)
		return nil
	}
	if c.TryOnClient == nil {
		logger.Warnw("worker_tryon_generate_skip_client_nil", "user_id", payload.UserID)
		return nil
	}
	request := tryon.GenerateRequest{
		UserID:        payload.UserID,
		Email:         payload.Email,
		GarmentImages: payload.GarmentImages,
		PersonImage:   payload.PersonImage,
	}
	if err := c.TryOnClient.Generate(ctx, request); err != nil {
		logger.Warnw("worker_tryon_generate_failed",
			"user_id", payload.UserID,
			"garment_count", len(payload.GarmentImages),
			"error", err,
		)
		return err
	}
	logger.Infow("worker_tryon_generate_submitted",
		"user_id", payload.UserID,
		"garment_count", len(payload.GarmentImages),
	)
	return nil
}
