package httpengine

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/restpilot/restpilot/internal/exchange"
	"github.com/restpilot/restpilot/internal/render"
)

// RequestTicket is a fully built, ready-to-send request (spec.md §4.4): the
// constructed *http.Request plus the record the state store/persistence
// layer will eventually see regardless of whether the send succeeds.
type RequestTicket struct {
	ID        string
	ProfileID string
	RecipeID  string
	Request   *http.Request
	Record    exchange.RequestRecord

	engine *Engine
}

// Send performs the ticket's request, bracketing StartTime/EndTime around
// the actual I/O only (spec.md §5), and returns the completed exchange or a
// *RequestError wrapping whatever net/http reported.
func (t *RequestTicket) Send(ctx context.Context) (*exchange.Exchange, error) {
	client := t.engine.clientFor(t.Request.URL.Hostname())

	start := time.Now()
	resp, err := client.Do(t.Request)
	if err != nil {
		end := time.Now()
		return nil, &RequestError{
			ProfileID: t.ProfileID,
			RecipeID:  t.RecipeID,
			RequestID: t.ID,
			Record:    t.Record,
			Start:     start,
			End:       end,
			Inner:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	end := time.Now()
	if err != nil {
		return nil, &RequestError{
			ProfileID: t.ProfileID,
			RecipeID:  t.RecipeID,
			RequestID: t.ID,
			Record:    t.Record,
			Start:     start,
			End:       end,
			Inner:     err,
		}
	}

	record := exchange.ResponseRecord{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
	}
	if int64(len(respBody)) <= t.engine.bodyRecordThreshold {
		record.Body = respBody
	}

	return &exchange.Exchange{
		ID:        t.ID,
		ProfileID: t.ProfileID,
		RecipeID:  t.RecipeID,
		Request:   t.Record,
		Response:  record,
		StartTime: start,
		EndTime:   end,
	}, nil
}

// SendDefault builds recipeID with zero-value BuildOptions and sends it,
// implementing render.HTTPEngineHandle so the chain resolver can trigger a
// fresh sub-request without importing this package (spec.md §4.2's
// NoHistory/Expire/Always trigger policies).
func (e *Engine) SendDefault(ctx context.Context, recipeID string, rc *render.Context) (*exchange.Exchange, error) {
	seed := RequestSeed{ID: recipeID, RecipeID: recipeID}
	ticket, err := e.Build(ctx, seed, rc)
	if err != nil {
		return nil, err
	}
	return ticket.Send(ctx)
}
