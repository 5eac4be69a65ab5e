package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"realtime-chat-be/internal/dto"
	"realtime-chat-be/internal/pkg/logger"
	"realtime-chat-be/internal/session"
	"realtime-chat-be/pkg/events"
)

// INotifierService fans presence transitions out to every connected
// socket as presence_update frames.
type INotifierService interface {
	Consume(ctx context.Context) error
}

type notifierService struct {
	pubSub   *gochannel.GoChannel
	sessions *session.Manager
	log      logger.ILogger
}

func NewNotifierService(pubSub *gochannel.GoChannel, sessions *session.Manager, log logger.ILogger) INotifierService {
	return &notifierService{
		pubSub:   pubSub,
		sessions: sessions,
		log:      log,
	}
}

func (ns *notifierService) Consume(ctx context.Context) error {
	messages, err := ns.pubSub.Subscribe(ctx, events.TopicPresence)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ns.processMessage(msg)
		}
	}()

	return nil
}

func (ns *notifierService) processMessage(msg *message.Message) {
	var payload events.PresenceChanged
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		ns.log.Error("notifier", "failed to unmarshal presence event", map[string]interface{}{
			"error": err.Error(),
		})
		// Ack malformed messages to prevent infinite retry
		msg.Ack()
		return
	}

	frame := dto.NewPresenceUpdateFrame(payload.UserId, payload.Online)
	data, err := json.Marshal(frame)
	if err != nil {
		msg.Ack()
		return
	}

	ns.sessions.Broadcast(data)
	msg.Ack()
}
