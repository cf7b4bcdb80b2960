package events

import (
	"context"
	"log"
)

type Publisher interface {
	PublishUserRegistered(ctx context.Context, userID, username, email string) error
	PublishPermissionGranted(ctx context.Context, userID, featureID, featureKey, grantedBy string) error
	PublishPermissionRevoked(ctx context.Context, userID, featureID string) error
	PublishRequestSubmitted(ctx context.Context, requestID, userID, featureID string) error
	PublishRequestResolved(ctx context.Context, approved bool, requestID, userID, featureID, reviewedBy string) error

	// Close closes the publisher and releases resources
	Close() error
}

type EventPublisher struct {
	rabbitMQ *RabbitMQClient
	enabled  bool
}

// NewEventPublisher connects to RabbitMQ, or returns a disabled publisher
// when no URI is configured.
func NewEventPublisher(rabbitURI string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{enabled: false}, nil
	}

	client, err := NewRabbitMQClient(rabbitURI)
	if err != nil {
		return nil, err
	}

	if err := client.setupExchanges(); err != nil {
		client.Close()
		return nil, err
	}

	return &EventPublisher{
		rabbitMQ: client,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) publish(eventType EventType, data []byte, marshalErr error) error {
	if !p.enabled {
		return nil
	}
	if marshalErr != nil {
		return marshalErr
	}
	return p.rabbitMQ.PublishEvent(string(eventType), data)
}

func (p *EventPublisher) PublishUserRegistered(ctx context.Context, userID, username, email string) error {
	event := NewUserRegisteredEvent(userID, username, email)
	data, err := event.ToJSON()
	if err := p.publish(UserRegistered, data, err); err != nil {
		return err
	}
	log.Printf("Published UserRegistered event for user ID: %s", userID)
	return nil
}

func (p *EventPublisher) PublishPermissionGranted(ctx context.Context, userID, featureID, featureKey, grantedBy string) error {
	event := NewPermissionGrantedEvent(userID, featureID, featureKey, grantedBy)
	data, err := event.ToJSON()
	return p.publish(PermissionGranted, data, err)
}

func (p *EventPublisher) PublishPermissionRevoked(ctx context.Context, userID, featureID string) error {
	event := NewPermissionRevokedEvent(userID, featureID)
	data, err := event.ToJSON()
	return p.publish(PermissionRevoked, data, err)
}

func (p *EventPublisher) PublishRequestSubmitted(ctx context.Context, requestID, userID, featureID string) error {
	event := NewRequestSubmittedEvent(requestID, userID, featureID)
	data, err := event.ToJSON()
	return p.publish(RequestSubmitted, data, err)
}

func (p *EventPublisher) PublishRequestResolved(ctx context.Context, approved bool, requestID, userID, featureID, reviewedBy string) error {
	eventType := RequestRejected
	if approved {
		eventType = RequestApproved
	}
	event := NewRequestResolvedEvent(eventType, requestID, userID, featureID, reviewedBy)
	data, err := event.ToJSON()
	return p.publish(eventType, data, err)
}

// Close releases resources
func (p *EventPublisher) Close() error {
	if !p.enabled || p.rabbitMQ == nil {
		return nil
	}
	return p.rabbitMQ.Close()
}
