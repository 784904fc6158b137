package sender

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"birthfire/internal/config"
	"birthfire/internal/models"
)

// Greeting is the wire payload handed to the downstream mail service.
type Greeting struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// AMQPSender publishes greetings to a RabbitMQ exchange. The actual e-mail
// delivery is a downstream consumer's job; this keeps the dispatch path free
// of SMTP latency.
type AMQPSender struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

func NewAMQPSender(cfg config.AMQPConfig) (*AMQPSender, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.QueueBind(
		cfg.Queue,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPSender{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
	}, nil
}

func (s *AMQPSender) Send(ctx context.Context, user models.User) error {
	payload, err := json.Marshal(Greeting{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Message: fmt.Sprintf("Happy Birthday, %s!", user.Name),
	})
	if err != nil {
		return fmt.Errorf("marshal greeting: %w", err)
	}

	return s.channel.PublishWithContext(ctx,
		s.exchange,
		s.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

func (s *AMQPSender) Close() error {
	if err := s.channel.Close(); err != nil {
		_ = s.conn.Close()
		return err
	}
	return s.conn.Close()
}
