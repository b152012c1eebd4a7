package queue

import (
	"encoding/json"

	"github.com/stylefit-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = constants.TaskOrderStatusEmail
	// TaskTryOnGenerate 试穿生成请求任务
	TaskTryOnGenerate = constants.TaskTryOnGenerate
)

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// TryOnGeneratePayload 试穿生成任务载荷，garment_images 键为商品 ID 字符串
type TryOnGeneratePayload struct {
	UserID        uint              `json:"user_id"`
	Email         string            `json:"email"`
	GarmentImages map[string]string `json:"garment_images"`
	PersonImage   string            `json:"person_image"`
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}

// NewTryOnGenerateTask 创建试穿生成任务
func NewTryOnGenerateTask(payload TryOnGeneratePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTryOnGenerate, body), nil
}
