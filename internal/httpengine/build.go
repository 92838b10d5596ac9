package httpengine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/exchange"
	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/render"
)

// builtRequest is the fully-rendered, not-yet-constructed form of a build:
// every piece spec.md §4.4 says is rendered concurrently, already resolved
// to plain values so BuildURL/BuildBody/BuildCurl/Build can each pick out
// only what they need without re-rendering.
type builtRequest struct {
	method  string
	url     string
	query   []orderedmap.Pair[string]
	headers []headerField
	body    builtBody
}

func (e *Engine) renderAll(ctx context.Context, seed RequestSeed, recipe *collection.Recipe, rc *render.Context) (builtRequest, error) {
	var (
		rawURL  string
		query   []orderedmap.Pair[string]
		headers []orderedmap.Pair[string]
		auth    *headerField
		body    builtBody
	)

	authOverride := seed.Options.Authentication
	bodyOverride := seed.Options.Body

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		urlTpl := recipe.URL
		if seed.Options.URL != nil {
			urlTpl = seed.Options.URL
		}
		rawURL, err = render.RenderText(gctx, urlTpl, rc)
		return err
	})
	g.Go(func() error {
		var err error
		query, err = renderIndexedList(gctx, recipe.Query, seed.Options.QueryParameters, rc)
		return err
	})
	g.Go(func() error {
		var err error
		headers, err = renderIndexedList(gctx, recipe.Headers, seed.Options.Headers, rc)
		return err
	})
	g.Go(func() error {
		var err error
		auth, err = buildAuthHeader(gctx, effectiveAuthentication(recipe, authOverride), rc)
		return err
	})
	g.Go(func() error {
		effectiveBody := recipe.Body
		var fields map[int]FieldOverride
		if bodyOverride != nil && (bodyOverride.Kind == collection.BodyRaw || bodyOverride.Kind == collection.BodyJSON) {
			effectiveBody = bodyOverride
		} else if recipe.Body != nil && (recipe.Body.Kind == collection.BodyFormURLEncoded || recipe.Body.Kind == collection.BodyFormMultipart) {
			fields = seed.Options.FormFields
		}
		var err error
		body, err = renderBody(gctx, effectiveBody, fields, rc, e.newBoundary)
		return err
	})

	if err := g.Wait(); err != nil {
		return builtRequest{}, err
	}

	assembled := buildHeaders(headers, body.contentType, body.hasContentType, auth)
	method := recipe.Method
	if method == "" {
		method = "GET"
	}
	return builtRequest{method: method, url: rawURL, query: query, headers: assembled, body: body}, nil
}

// effectiveAuthentication resolves the recipe's authentication scheme
// against a caller's override, if any (spec.md §4.4).
func effectiveAuthentication(recipe *collection.Recipe, override *collection.Authentication) *collection.Authentication {
	if override != nil {
		return override
	}
	return recipe.Authentication
}

// fullURL joins the rendered URL with its rendered query string.
func (b builtRequest) fullURL() (string, error) {
	if len(b.query) == 0 {
		return b.url, nil
	}
	sep := "?"
	for _, ch := range b.url {
		if ch == '?' {
			sep = "&"
			break
		}
	}
	return b.url + sep + buildQueryString(b.query), nil
}

// Build renders and assembles a ready-to-send request (spec.md §4.4).
func (e *Engine) Build(ctx context.Context, seed RequestSeed, rc *render.Context) (*RequestTicket, error) {
	recipe, ok := rc.Collection.RecipeByID(seed.RecipeID)
	if !ok {
		return nil, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: fmt.Errorf("unknown recipe %q", seed.RecipeID)}
	}

	built, err := e.renderAll(ctx, seed, recipe, rc)
	if err != nil {
		return nil, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}

	fullURL, err := built.fullURL()
	if err != nil {
		return nil, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}

	var bodyReader io.Reader
	if built.body.hasBytes {
		bodyReader = bytes.NewReader(built.body.bytes)
	}
	req, err := http.NewRequestWithContext(ctx, built.method, fullURL, bodyReader)
	if err != nil {
		return nil, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}
	for _, h := range built.headers {
		for i := 0; i < len(h.Value); i++ {
			if c := h.Value[i]; (c < ' ' && c != '\t') || c == 0x7f {
				return nil, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: fmt.Errorf("invalid value for header %q", h.Name)}
			}
		}
		req.Header.Add(h.Name, h.Value)
	}

	record := exchange.RequestRecord{
		Method:      req.Method,
		HTTPVersion: req.Proto,
		URL:         fullURL,
		Headers:     req.Header.Clone(),
	}
	if built.body.hasBytes && int64(len(built.body.bytes)) <= e.bodyRecordThreshold {
		record.Body = built.body.bytes
	}

	return &RequestTicket{
		ID:        seed.ID,
		ProfileID: rc.ProfileID,
		RecipeID:  seed.RecipeID,
		Request:   req,
		Record:    record,
		engine:    e,
	}, nil
}

// BuildURL renders the URL and query params only (spec.md §4.4).
func (e *Engine) BuildURL(ctx context.Context, seed RequestSeed, rc *render.Context) (string, error) {
	recipe, ok := rc.Collection.RecipeByID(seed.RecipeID)
	if !ok {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: fmt.Errorf("unknown recipe %q", seed.RecipeID)}
	}
	built, err := e.renderAll(ctx, seed, recipe, rc)
	if err != nil {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}
	return built.fullURL()
}

// BuildBody renders the body only (spec.md §4.4).
func (e *Engine) BuildBody(ctx context.Context, seed RequestSeed, rc *render.Context) ([]byte, bool, error) {
	recipe, ok := rc.Collection.RecipeByID(seed.RecipeID)
	if !ok {
		return nil, false, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: fmt.Errorf("unknown recipe %q", seed.RecipeID)}
	}
	built, err := e.renderAll(ctx, seed, recipe, rc)
	if err != nil {
		return nil, false, &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}
	return built.body.bytes, built.body.hasBytes, nil
}
