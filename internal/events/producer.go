package events

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/models"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	OrderCreatedTopic       = "order.created"
	OrderStatusChangedTopic = "order.status_changed"
)

type OrderEventItem struct {
	CatalogItemID uint            `json:"catalog_item_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type OrderEvent struct {
	OrderID        string                `json:"order_id"`
	OrderNumber    string                `json:"order_number"`
	UserID         uint                  `json:"user_id"`
	Status         models.OrderStatus    `json:"status"`
	PreviousStatus models.OrderStatus    `json:"previous_status,omitempty"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
	TotalAmount    decimal.Decimal       `json:"total_amount"`
	AmountCharged  int64                 `json:"amount_charged"`
	Currency       string                `json:"currency"`
	Items          []OrderEventItem      `json:"items,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	EventTime      time.Time             `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers []string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaProducerFromSync(producer, logger), nil
}

// NewKafkaProducerFromSync wraps an existing producer, e.g. a sarama mock.
func NewKafkaProducerFromSync(producer sarama.SyncProducer, logger *logrus.Logger) *KafkaProducer {
	return &KafkaProducer{producer: producer, logger: logger}
}

func (p *KafkaProducer) OrderPlaced(ctx context.Context, order *models.Order) error {
	event := newOrderEvent(order)
	for _, it := range order.Items {
		event.Items = append(event.Items, OrderEventItem{
			CatalogItemID: it.CatalogItemID,
			Name:          it.Name,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
		})
	}
	return p.publish(ctx, OrderCreatedTopic, event)
}

func (p *KafkaProducer) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	event := newOrderEvent(order)
	event.PreviousStatus = from
	return p.publish(ctx, OrderStatusChangedTopic, event)
}

func newOrderEvent(order *models.Order) OrderEvent {
	return OrderEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Status:         order.Status,
		DeliveryMethod: order.DeliveryMethod,
		TotalAmount:    order.TotalAmount,
		AmountCharged:  order.AmountCharged,
		Currency:       order.Currency,
		CreatedAt:      order.CreatedAt,
	}
}

// publish keys messages by order number so one order's events stay on one
// partition, in order.
func (p *KafkaProducer) publish(ctx context.Context, topic string, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.OrderNumber),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithField("topic", topic).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":        topic,
		"partition":    partition,
		"offset":       offset,
		"order_number": event.OrderNumber,
	}).Info("Event published to Kafka")
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
