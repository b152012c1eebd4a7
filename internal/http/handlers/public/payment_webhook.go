package public

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stylefit-next/internal/payment/checkout"

	"github.com/gin-gonic/gin"
)

const webhookLogValueLimit = 256

// PaymentWebhook 收银台回调
// 与业务接口不同，这里按处理器约定返回真实 HTTP 状态码：
// 签名错误 400，处理失败 500，其余 200。
func (h *Handler) PaymentWebhook(c *gin.Context) {
	log := requestLog(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	signature := strings.TrimSpace(c.GetHeader(checkout.SignatureHeader))
	log.Infow("payment_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"signature", truncateWebhookLogValue(signature),
	)

	event, err := h.PaymentClient.VerifyWebhook(signature, body, time.Now())
	if err != nil {
		if errors.Is(err, checkout.ErrSignatureInvalid) {
			log.Warnw("payment_webhook_signature_invalid", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
			return
		}
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.CheckoutService.HandleWebhookEvent(event); err != nil {
		log.Errorw("payment_webhook_handle_failed",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}

	log.Infow("payment_webhook_processed",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"session_id", event.SessionID,
	)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func truncateWebhookLogValue(raw string) string {
	if len(raw) <= webhookLogValueLimit {
		return raw
	}
	return raw[:webhookLogValueLimit] + "...(truncated)"
}
