package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BookingsPubSub fans out booking lifecycle changes to interested
// subscribers (dashboards, notification workers). Delivery is best-effort;
// the booking core never depends on it.
type BookingsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewBookingsPubSub(rdb *redis.Client) *BookingsPubSub {
	return &BookingsPubSub{
		rdb:     rdb,
		channel: ChannelBookingsChanged(),
	}
}

type bookingChangedMsg struct {
	Type      string `json:"type"`
	VenueID   int64  `json:"venue_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *BookingsPubSub) PublishBookingChanged(
	ctx context.Context,
	venueID int64,
	bookingID uuid.UUID,
	status string,
) error {
	msg := bookingChangedMsg{
		Type:      "booking_changed",
		VenueID:   venueID,
		BookingID: bookingID.String(),
		Status:    status,
		TsUnix:    time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *BookingsPubSub) Subscribe(
	ctx context.Context,
	handler func(ctx context.Context, venueID int64, bookingID string, status string),
) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev bookingChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.VenueID != 0 {
				handler(ctx, ev.VenueID, ev.BookingID, ev.Status)
			}
		}
	}
}
