package httpengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/restpilot/restpilot/internal/collection"
	"github.com/restpilot/restpilot/internal/render"
)

// BuildCurl renders a recipe into an equivalent curl command line (spec.md
// §6, "curl output"). It shares renderAll with Build/BuildURL/BuildBody so
// the emitted command always matches what the engine would actually send.
func (e *Engine) BuildCurl(ctx context.Context, seed RequestSeed, rc *render.Context) (string, error) {
	recipe, ok := rc.Collection.RecipeByID(seed.RecipeID)
	if !ok {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: fmt.Errorf("unknown recipe %q", seed.RecipeID)}
	}
	built, err := e.renderAll(ctx, seed, recipe, rc)
	if err != nil {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}
	fullURL, err := built.fullURL()
	if err != nil {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "curl -X%s --url %s", built.method, shellQuote(fullURL))

	auth := effectiveAuthentication(recipe, seed.Options.Authentication)
	basicUser, basicPass, isBasic, err := renderBasicAuthParts(ctx, auth, rc)
	if err != nil {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}

	for _, h := range built.headers {
		if isBasic && strings.EqualFold(h.Name, "Authorization") {
			// emitted via --user below instead of as a header
			continue
		}
		fmt.Fprintf(&b, " --header %s", shellQuote(h.Name+": "+h.Value))
	}
	if isBasic {
		fmt.Fprintf(&b, " --user %s", shellQuote(basicUser+":"+basicPass))
	}

	if err := appendCurlBody(ctx, &b, recipe.Body, seed.Options, built.body, rc); err != nil {
		return "", &BuildError{RecipeID: seed.RecipeID, RequestID: seed.ID, ProfileID: rc.ProfileID, Inner: err}
	}

	return b.String(), nil
}

// renderBasicAuthParts renders a Basic authentication's username/password
// separately from its header form, since curl represents Basic auth with
// --user rather than a literal Authorization header.
func renderBasicAuthParts(ctx context.Context, auth *collection.Authentication, rc *render.Context) (user, pass string, isBasic bool, err error) {
	if auth == nil || auth.Kind != collection.AuthBasic {
		return "", "", false, nil
	}
	user, err = render.RenderText(ctx, auth.Username, rc)
	if err != nil {
		return "", "", false, err
	}
	pass, err = render.RenderText(ctx, auth.Password, rc)
	if err != nil {
		return "", "", false, err
	}
	return user, pass, true, nil
}

// appendCurlBody emits the data flag matching the recipe's body kind:
// --json for a JSON body, --data-urlencode per field for form-urlencoded,
// -F per field for multipart (re-rendering the form fields directly rather
// than parsing the already-encoded bytes, since multipart's own bytes
// aren't a "&"-joined string), and plain --data otherwise.
func appendCurlBody(ctx context.Context, b *strings.Builder, body *collection.RecipeBody, opts BuildOptions, built builtBody, rc *render.Context) error {
	if body == nil {
		return nil
	}
	switch body.Kind {
	case collection.BodyJSON:
		if built.hasBytes {
			fmt.Fprintf(b, " --json %s", shellQuote(string(built.bytes)))
		}
	case collection.BodyFormURLEncoded, collection.BodyFormMultipart:
		fields, err := renderFormFields(ctx, body.Form, opts.FormFields, rc)
		if err != nil {
			return err
		}
		flag := "--data-urlencode"
		if body.Kind == collection.BodyFormMultipart {
			flag = "-F"
		}
		for _, f := range fields {
			fmt.Fprintf(b, " %s %s", flag, shellQuote(f.Key+"="+f.Value))
		}
	default:
		if built.hasBytes {
			fmt.Fprintf(b, " --data %s", shellQuote(string(built.bytes)))
		}
	}
	return nil
}

// shellQuote wraps s in single quotes for POSIX shells, escaping any
// embedded single quote as close-quote, escaped-quote, reopen-quote
// (spec.md §9's resolution of the curl-quoting Open Question: no
// shlex-equivalent quoter exists in the dependency pack, so this is the
// one hand-rolled leaf of build_curl).
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
