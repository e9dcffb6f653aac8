package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/streadway/amqp"

	"github.com/livecart/stock-engine/core/stock"
)

type stockQueue struct {
	queue                *bunnyq.BunnyQ
	availabilityExchange string
	reservationExchange  string
}

func New(bq *bunnyq.BunnyQ, availabilityExchange, reservationExchange string) stock.Queue {
	return &stockQueue{queue: bq, availabilityExchange: availabilityExchange, reservationExchange: reservationExchange}
}

func (s *stockQueue) PublishAvailability(ctx context.Context, availability stock.Availability) error {
	body, err := json.Marshal(availability)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize availability for queue")
	}
	if err = s.queue.Publish(ctx, s.availabilityExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send availability update to queue")
	}
	return nil
}

func (s *stockQueue) PublishReservation(ctx context.Context, reservation stock.Reservation) error {
	body, err := json.Marshal(reservation)
	if err != nil {
		return errors.WithMessage(err, "error marshalling reservation to send to queue")
	}
	err = s.queue.Publish(ctx, s.reservationExchange, body)
	if err != nil {
		return errors.WithMessage(err, "error publishing reservation")
	}
	return nil
}

type ProductQueue struct {
	queue                 *bunnyq.BunnyQ
	newProductQueue       string
	newProductDltExchange string
}

func NewProductQueue(bq *bunnyq.BunnyQ, newProductQueue, newProductDltExchange string) *ProductQueue {
	return &ProductQueue{queue: bq, newProductQueue: newProductQueue, newProductDltExchange: newProductDltExchange}
}

type ProductHandler interface {
	CreateProduct(ctx context.Context, product *stock.Product) error
}

func (p *ProductQueue) ConsumeProducts(ctx context.Context, handler ProductHandler) {
	p.queue.Stream(ctx, p.newProductQueue, func(delivery amqp.Delivery) {
		product := stock.Product{}
		err := json.Unmarshal(delivery.Body, &product)
		if err != nil {
			log.Error().Err(err).Msg("error unmarshalling product, writing to dlt")
			p.sendToDlt(ctx, delivery.Body)
			return
		}

		err = handler.CreateProduct(ctx, &product)
		if err != nil {
			log.Error().Err(err).Msg("error handling product, writing to dlt")
			p.sendToDlt(ctx, delivery.Body)
		}
	}, bunnyq.StreamOpAutoAck)
}

func (p *ProductQueue) sendToDlt(ctx context.Context, data []byte) {
	err := p.queue.Publish(ctx, p.newProductDltExchange, data)
	if err != nil {
		log.Error().Err(err).Msg("error writing to dlt")
	}
}
