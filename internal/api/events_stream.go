package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/danvoulez/voulezvous-tv/internal/events"
)

const eventStreamBufferSize = 64

// EventsStreamHandler serves GET /v1/events/stream: a read-only,
// unauthenticated websocket feed of every bus event (in practice the
// alert loop's AlertRaised events; nothing emits pipeline transitions or
// alert clears), bound to loopback like the rest of the GET surface.
type EventsStreamHandler struct {
	bus *events.Bus
	log zerolog.Logger
}

func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{bus: bus, log: log.With().Str("component", "api.events_stream").Logger()}
}

func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	eventChan := make(chan *events.Event, eventStreamBufferSize)
	handler := func(e *events.Event) { h.enqueueEvent(eventChan, e) }

	subs := make([]events.Subscription, 0, len(events.AllEventTypes()))
	for _, t := range events.AllEventTypes() {
		subs = append(subs, h.bus.Subscribe(t, handler))
	}
	defer func() {
		for _, s := range subs {
			h.bus.Unsubscribe(s)
		}
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-eventChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, e)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("websocket write failed, closing stream")
				return
			}
		}
	}
}

// enqueueEvent drops the oldest buffered event to make room rather than
// blocking the publisher when a slow client falls behind.
func (h *EventsStreamHandler) enqueueEvent(ch chan *events.Event, e *events.Event) {
	select {
	case ch <- e:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- e:
		default:
		}
	}
}
