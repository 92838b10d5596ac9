package collection

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/restpilot/restpilot/internal/orderedmap"
	"github.com/restpilot/restpilot/internal/template"
)

// Load decodes a collection file from r, applying every custom decoding
// contract from spec.md §6 (scalar-as-template coercion, tagged RecipeBody
// and SelectOptions variants, query parameter sequence/mapping duality,
// Duration round-trip) on top of plain gopkg.in/yaml.v3 structural
// decoding.
func Load(r io.Reader) (*Collection, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return New("", nil, nil, nil)
		}
		return nil, fmt.Errorf("parsing collection YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("parsing collection YAML: expected a single document")
	}
	return decodeCollection(doc.Content[0])
}

// LoadFile opens path and decodes it as a collection file.
func LoadFile(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening collection file %q: %w", path, err)
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading collection file %q: %w", path, err)
	}
	return c, nil
}

func decodeCollection(root *yaml.Node) (*Collection, error) {
	fields, err := mappingFields(root, "collection")
	if err != nil {
		return nil, err
	}

	var name string
	if n, ok := fields["name"]; ok {
		if err := n.Decode(&name); err != nil {
			return nil, fmt.Errorf("decoding collection name: %w", err)
		}
	}

	profiles := orderedmap.New[*Profile]()
	if n, ok := fields["profiles"]; ok {
		entries, err := mappingFields(n, "profiles")
		if err != nil {
			return nil, err
		}
		for _, id := range mappingKeys(n) {
			p, err := decodeProfile(id, entries[id])
			if err != nil {
				return nil, fmt.Errorf("profile %q: %w", id, err)
			}
			profiles.Set(id, p)
		}
	}

	chains := orderedmap.New[*Chain]()
	if n, ok := fields["chains"]; ok {
		entries, err := mappingFields(n, "chains")
		if err != nil {
			return nil, err
		}
		for _, id := range mappingKeys(n) {
			c, err := decodeChain(id, entries[id])
			if err != nil {
				return nil, fmt.Errorf("chain %q: %w", id, err)
			}
			chains.Set(id, c)
		}
	}

	var tree *RecipeTree
	if n, ok := fields["requests"]; ok {
		root, err := decodeRecipeNodes(n)
		if err != nil {
			return nil, err
		}
		tree = &RecipeTree{Root: root}
	}

	return New(name, profiles, chains, tree)
}

// mappingFields returns a mapping node's fields as a plain map plus
// validates it actually is a mapping. what names the node for error
// messages.
func mappingFields(node *yaml.Node, what string) (map[string]*yaml.Node, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: expected a mapping, got %s", what, kindName(node))
	}
	out := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out, nil
}

// mappingKeys returns a mapping node's keys in document order.
func mappingKeys(node *yaml.Node) []string {
	out := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, node.Content[i].Value)
	}
	return out
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	default:
		return "an unsupported node"
	}
}

// decodeTemplateScalar implements spec.md §6's "Profile values and recipe
// body values accept scalars (string/number/bool) as templates" rule:
// numeric and boolean nodes are stringified using their YAML source text
// before being parsed as templates.
func decodeTemplateScalar(node *yaml.Node) (*template.Template, error) {
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar template value, got %s", kindName(node))
	}
	return template.Parse(node.Value)
}

func decodeProfile(id string, node *yaml.Node) (*Profile, error) {
	fields, err := mappingFields(node, "profile")
	if err != nil {
		return nil, err
	}

	p := &Profile{ID: id, Fields: orderedmap.New[*template.Template]()}
	if n, ok := fields["name"]; ok {
		if err := n.Decode(&p.Name); err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}
	if n, ok := fields["default"]; ok {
		if err := n.Decode(&p.Default); err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
	}
	if n, ok := fields["fields"]; ok {
		entries, err := mappingFields(n, "fields")
		if err != nil {
			return nil, err
		}
		for _, key := range mappingKeys(n) {
			tpl, err := decodeTemplateScalar(entries[key])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			p.Fields.Set(key, tpl)
		}
	}
	return p, nil
}

func decodeChain(id string, node *yaml.Node) (*Chain, error) {
	fields, err := mappingFields(node, "chain")
	if err != nil {
		return nil, err
	}

	c := &Chain{ID: id}
	sourceNode, ok := fields["source"]
	if !ok {
		return nil, fmt.Errorf("missing required field \"source\"")
	}
	source, err := decodeChainSource(sourceNode)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	c.Source = source

	if n, ok := fields["selector"]; ok {
		if err := n.Decode(&c.Selector); err != nil {
			return nil, fmt.Errorf("selector: %w", err)
		}
	}
	if n, ok := fields["content_type"]; ok {
		var ct string
		if err := n.Decode(&ct); err != nil {
			return nil, fmt.Errorf("content_type: %w", err)
		}
		c.ContentType = ContentType(ct)
	}
	if n, ok := fields["sensitive"]; ok {
		if err := n.Decode(&c.Sensitive); err != nil {
			return nil, fmt.Errorf("sensitive: %w", err)
		}
	}
	if n, ok := fields["trim"]; ok {
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, fmt.Errorf("trim: %w", err)
		}
		trim, err := parseTrimPolicy(s)
		if err != nil {
			return nil, err
		}
		c.Trim = trim
	}
	return c, nil
}

func parseTrimPolicy(s string) (TrimPolicy, error) {
	switch s {
	case "none", "":
		return TrimNone, nil
	case "start":
		return TrimStart, nil
	case "end":
		return TrimEnd, nil
	case "both":
		return TrimBoth, nil
	default:
		return 0, fmt.Errorf("invalid trim policy %q: expected one of none|start|end|both", s)
	}
}

// decodeChainSource dispatches on the source mapping's YAML tag, per
// spec.md §3's ChainSource variants. Each variant is itself a mapping of
// its fields (as opposed to RecipeBody/SelectOptions, whose untagged forms
// take other shapes) so there is no "bare scalar" case here.
func decodeChainSource(node *yaml.Node) (ChainSource, error) {
	tag := explicitTag(node)
	fields, err := mappingFields(node, "chain source")
	if err != nil {
		return ChainSource{}, err
	}

	switch tag {
	case "!request":
		return decodeRequestSource(fields)
	case "!command":
		return decodeCommandSource(fields)
	case "!file":
		return decodeFileSource(fields)
	case "!env":
		return decodeEnvironmentSource(fields)
	case "!prompt":
		return decodePromptSource(fields)
	case "!select":
		return decodeSelectSource(fields)
	default:
		return ChainSource{}, fmt.Errorf("unknown variant %q: expected one of !request|!command|!file|!env|!prompt|!select", tag)
	}
}

// explicitTag returns the node's custom YAML tag (e.g. "!request")
// unchanged, or "" when the node carries a standard "!!" schema tag (which
// is what an untagged node resolves to).
func explicitTag(node *yaml.Node) string {
	if strings.HasPrefix(node.Tag, "!!") {
		return ""
	}
	return node.Tag
}

func decodeRequestSource(fields map[string]*yaml.Node) (ChainSource, error) {
	src := ChainSource{Kind: SourceRequest}
	recipeNode, ok := fields["recipe"]
	if !ok {
		return ChainSource{}, fmt.Errorf("!request: missing required field \"recipe\"")
	}
	if err := recipeNode.Decode(&src.RecipeID); err != nil {
		return ChainSource{}, fmt.Errorf("!request.recipe: %w", err)
	}

	trigger := TriggerNever
	if n, ok := fields["trigger"]; ok {
		var s string
		if err := n.Decode(&s); err != nil {
			return ChainSource{}, fmt.Errorf("!request.trigger: %w", err)
		}
		switch s {
		case "never", "":
			trigger = TriggerNever
		case "no_history":
			trigger = TriggerNoHistory
		case "expire":
			trigger = TriggerExpire
		case "always":
			trigger = TriggerAlways
		default:
			return ChainSource{}, fmt.Errorf("!request.trigger: invalid value %q: expected one of never|no_history|expire|always", s)
		}
	}
	src.Trigger = trigger

	if trigger == TriggerExpire {
		n, ok := fields["expire"]
		if !ok {
			return ChainSource{}, fmt.Errorf("!request: trigger \"expire\" requires field \"expire\"")
		}
		var s string
		if err := n.Decode(&s); err != nil {
			return ChainSource{}, fmt.Errorf("!request.expire: %w", err)
		}
		d, err := ParseDuration(s)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!request.expire: %w", err)
		}
		src.TriggerExpire = time.Duration(d)
	}

	section := SectionBody
	if n, ok := fields["section"]; ok {
		var s string
		if err := n.Decode(&s); err != nil {
			return ChainSource{}, fmt.Errorf("!request.section: %w", err)
		}
		switch s {
		case "body", "":
			section = SectionBody
		case "header":
			section = SectionHeader
		default:
			return ChainSource{}, fmt.Errorf("!request.section: invalid value %q: expected one of body|header", s)
		}
	}
	src.Section = section

	if section == SectionHeader {
		n, ok := fields["header"]
		if !ok {
			return ChainSource{}, fmt.Errorf("!request: section \"header\" requires field \"header\"")
		}
		tpl, err := decodeTemplateScalar(n)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!request.header: %w", err)
		}
		src.HeaderName = tpl
	}

	return src, nil
}

func decodeCommandSource(fields map[string]*yaml.Node) (ChainSource, error) {
	src := ChainSource{Kind: SourceCommand}
	n, ok := fields["command"]
	if !ok {
		return ChainSource{}, fmt.Errorf("!command: missing required field \"command\"")
	}
	if n.Kind != yaml.SequenceNode {
		return ChainSource{}, fmt.Errorf("!command.command: expected a sequence, got %s", kindName(n))
	}
	for i, item := range n.Content {
		tpl, err := decodeTemplateScalar(item)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!command.command[%d]: %w", i, err)
		}
		src.Argv = append(src.Argv, tpl)
	}
	if sn, ok := fields["stdin"]; ok {
		tpl, err := decodeTemplateScalar(sn)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!command.stdin: %w", err)
		}
		src.Stdin = tpl
	}
	return src, nil
}

func decodeFileSource(fields map[string]*yaml.Node) (ChainSource, error) {
	n, ok := fields["path"]
	if !ok {
		return ChainSource{}, fmt.Errorf("!file: missing required field \"path\"")
	}
	tpl, err := decodeTemplateScalar(n)
	if err != nil {
		return ChainSource{}, fmt.Errorf("!file.path: %w", err)
	}
	return ChainSource{Kind: SourceFile, Path: tpl}, nil
}

func decodeEnvironmentSource(fields map[string]*yaml.Node) (ChainSource, error) {
	n, ok := fields["variable"]
	if !ok {
		return ChainSource{}, fmt.Errorf("!env: missing required field \"variable\"")
	}
	tpl, err := decodeTemplateScalar(n)
	if err != nil {
		return ChainSource{}, fmt.Errorf("!env.variable: %w", err)
	}
	return ChainSource{Kind: SourceEnvironment, Variable: tpl}, nil
}

func decodePromptSource(fields map[string]*yaml.Node) (ChainSource, error) {
	src := ChainSource{Kind: SourcePrompt}
	if n, ok := fields["message"]; ok {
		tpl, err := decodeTemplateScalar(n)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!prompt.message: %w", err)
		}
		src.Message = tpl
	}
	if n, ok := fields["default"]; ok {
		tpl, err := decodeTemplateScalar(n)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!prompt.default: %w", err)
		}
		src.Default = tpl
	}
	return src, nil
}

func decodeSelectSource(fields map[string]*yaml.Node) (ChainSource, error) {
	src := ChainSource{Kind: SourceSelect}
	if n, ok := fields["message"]; ok {
		tpl, err := decodeTemplateScalar(n)
		if err != nil {
			return ChainSource{}, fmt.Errorf("!select.message: %w", err)
		}
		src.SelectMessage = tpl
	}
	n, ok := fields["options"]
	if !ok {
		return ChainSource{}, fmt.Errorf("!select: missing required field \"options\"")
	}
	opts, err := decodeSelectOptions(n)
	if err != nil {
		return ChainSource{}, fmt.Errorf("!select.options: %w", err)
	}
	src.SelectOptions = opts
	return src, nil
}

// decodeSelectOptions implements spec.md §6's SelectOptions encoding: a
// bare sequence is Fixed; a `!dynamic` mapping is Dynamic.
func decodeSelectOptions(node *yaml.Node) (SelectOptions, error) {
	tag := explicitTag(node)
	switch tag {
	case "":
		if node.Kind != yaml.SequenceNode {
			return SelectOptions{}, fmt.Errorf("expected a sequence of fixed options, got %s", kindName(node))
		}
		var fixed []*template.Template
		for i, item := range node.Content {
			tpl, err := decodeTemplateScalar(item)
			if err != nil {
				return SelectOptions{}, fmt.Errorf("[%d]: %w", i, err)
			}
			fixed = append(fixed, tpl)
		}
		return SelectOptions{Fixed: fixed}, nil
	case "!dynamic":
		fields, err := mappingFields(node, "!dynamic options")
		if err != nil {
			return SelectOptions{}, err
		}
		sourceNode, ok := fields["source"]
		if !ok {
			return SelectOptions{}, fmt.Errorf("!dynamic: missing required field \"source\"")
		}
		for key := range fields {
			if key != "source" && key != "selector" {
				return SelectOptions{}, fmt.Errorf("!dynamic: unknown field %q", key)
			}
		}
		source, err := decodeTemplateScalar(sourceNode)
		if err != nil {
			return SelectOptions{}, fmt.Errorf("!dynamic.source: %w", err)
		}
		opts := SelectOptions{Dynamic: true, DynamicSource: source}
		if n, ok := fields["selector"]; ok {
			if err := n.Decode(&opts.DynamicSelector); err != nil {
				return SelectOptions{}, fmt.Errorf("!dynamic.selector: %w", err)
			}
		}
		return opts, nil
	default:
		return SelectOptions{}, fmt.Errorf("unknown variant %q: expected a sequence or !dynamic", tag)
	}
}

// decodeRecipeNodes decodes a "requests" mapping into an ordered tree of
// folders and recipes, dispatching on the presence of a nested "requests"
// field (folder) vs. "method"/"url" (recipe).
func decodeRecipeNodes(node *yaml.Node) (*orderedmap.Map[*RecipeNode], error) {
	entries, err := mappingFields(node, "requests")
	if err != nil {
		return nil, err
	}
	out := orderedmap.New[*RecipeNode]()
	for _, id := range mappingKeys(node) {
		n, err := decodeRecipeNode(id, entries[id])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", id, err)
		}
		out.Set(id, n)
	}
	return out, nil
}

func decodeRecipeNode(id string, node *yaml.Node) (*RecipeNode, error) {
	fields, err := mappingFields(node, "request node")
	if err != nil {
		return nil, err
	}
	if _, isFolder := fields["requests"]; isFolder {
		folder, err := decodeFolder(id, fields)
		if err != nil {
			return nil, err
		}
		return &RecipeNode{Folder: folder}, nil
	}
	recipe, err := decodeRecipe(id, fields)
	if err != nil {
		return nil, err
	}
	return &RecipeNode{Recipe: recipe}, nil
}

func decodeFolder(id string, fields map[string]*yaml.Node) (*Folder, error) {
	f := &Folder{ID: id}
	if n, ok := fields["name"]; ok {
		if err := n.Decode(&f.Name); err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}
	children, err := decodeRecipeNodes(fields["requests"])
	if err != nil {
		return nil, fmt.Errorf("requests: %w", err)
	}
	f.Children = children
	return f, nil
}

func decodeRecipe(id string, fields map[string]*yaml.Node) (*Recipe, error) {
	r := &Recipe{ID: id, Method: "GET"}
	if n, ok := fields["name"]; ok {
		if err := n.Decode(&r.Name); err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
	}
	if n, ok := fields["method"]; ok {
		var s string
		if err := n.Decode(&s); err != nil {
			return nil, fmt.Errorf("method: %w", err)
		}
		r.Method = strings.ToUpper(s)
	}
	urlNode, ok := fields["url"]
	if !ok {
		return nil, fmt.Errorf("missing required field \"url\"")
	}
	urlTpl, err := decodeTemplateScalar(urlNode)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	r.URL = urlTpl

	if n, ok := fields["query"]; ok {
		q, err := decodeQuery(n)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		r.Query = q
	}
	if n, ok := fields["headers"]; ok {
		headers, err := decodeTemplateList(n, "headers")
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		r.Headers = headers
	}
	if n, ok := fields["body"]; ok {
		body, err := decodeRecipeBody(n)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		r.Body = body
	}
	if n, ok := fields["authentication"]; ok {
		auth, err := decodeAuthentication(n)
		if err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
		r.Authentication = auth
	}
	if n, ok := fields["persist"]; ok {
		if err := n.Decode(&r.Persist); err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
	}
	return r, nil
}

// decodeTemplateList decodes a mapping of string keys to template-scalar
// values into an ordered, position-indexed list (rather than an
// orderedmap.Map), since headers and form fields are addressed by position
// in BuildOptions (spec.md §4.4, "indexed by position because header/query
// keys are not unique").
func decodeTemplateList(node *yaml.Node, what string) (orderedmap.List[*template.Template], error) {
	entries, err := mappingFields(node, what)
	if err != nil {
		return nil, err
	}
	var out orderedmap.List[*template.Template]
	for _, key := range mappingKeys(node) {
		tpl, err := decodeTemplateScalar(entries[key])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", key, err)
		}
		out = append(out, orderedmap.Pair[*template.Template]{Key: key, Value: tpl})
	}
	return out, nil
}

// decodeQuery implements spec.md §6's query parameter duality: either a
// sequence of "key=value" strings (duplicates allowed) or a mapping.
func decodeQuery(node *yaml.Node) (orderedmap.List[*template.Template], error) {
	var out orderedmap.List[*template.Template]
	switch node.Kind {
	case yaml.SequenceNode:
		for i, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("[%d]: expected a \"key=value\" scalar, got %s", i, kindName(item))
			}
			key, value, ok := strings.Cut(item.Value, "=")
			if !ok {
				return nil, fmt.Errorf("[%d]: expected \"key=value\", got %q", i, item.Value)
			}
			tpl, err := template.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, orderedmap.Pair[*template.Template]{Key: key, Value: tpl})
		}
		return out, nil
	case yaml.MappingNode:
		entries, err := mappingFields(node, "query")
		if err != nil {
			return nil, err
		}
		for _, key := range mappingKeys(node) {
			tpl, err := decodeTemplateScalar(entries[key])
			if err != nil {
				return nil, fmt.Errorf("%q: %w", key, err)
			}
			out = append(out, orderedmap.Pair[*template.Template]{Key: key, Value: tpl})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a sequence or mapping, got %s", kindName(node))
	}
}

// decodeRecipeBody implements spec.md §6's RecipeBody tag dispatch: an
// unadorned scalar is Raw with no content type; `!json`, `!form_urlencoded`
// and `!form_multipart` select the respective structured variants; any
// other tag is an error naming the accepted set.
func decodeRecipeBody(node *yaml.Node) (*RecipeBody, error) {
	tag := explicitTag(node)
	switch tag {
	case "":
		tpl, err := decodeTemplateScalar(node)
		if err != nil {
			return nil, err
		}
		return &RecipeBody{Kind: BodyRaw, RawTemplate: tpl}, nil
	case "!json":
		value, err := decodeJSONNode(node)
		if err != nil {
			return nil, fmt.Errorf("!json: %w", err)
		}
		return &RecipeBody{Kind: BodyJSON, JSONValue: value}, nil
	case "!form_urlencoded":
		form, err := decodeTemplateList(node, "!form_urlencoded")
		if err != nil {
			return nil, fmt.Errorf("!form_urlencoded: %w", err)
		}
		return &RecipeBody{Kind: BodyFormURLEncoded, Form: form}, nil
	case "!form_multipart":
		form, err := decodeTemplateList(node, "!form_multipart")
		if err != nil {
			return nil, fmt.Errorf("!form_multipart: %w", err)
		}
		return &RecipeBody{Kind: BodyFormMultipart, Form: form}, nil
	default:
		return nil, fmt.Errorf("unknown variant %q: expected one of json|form_urlencoded|form_multipart", strings.TrimPrefix(tag, "!"))
	}
}

// decodeJSONNode recursively decodes a `!json` body into the JSONNode
// tree, per spec.md §3 ("value is a JSON tree whose string leaves are
// templates"). Object key order is preserved.
func decodeJSONNode(node *yaml.Node) (JSONNode, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!str":
			tpl, err := template.Parse(node.Value)
			if err != nil {
				return JSONNode{}, err
			}
			return JSONNode{Kind: JSONString, StringTemplate: tpl}, nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				return JSONNode{}, fmt.Errorf("invalid number %q: %w", node.Value, err)
			}
			return JSONNode{Kind: JSONNumber, Number: f, NumberRaw: node.Value}, nil
		case "!!bool":
			b, err := strconv.ParseBool(node.Value)
			if err != nil {
				return JSONNode{}, fmt.Errorf("invalid bool %q: %w", node.Value, err)
			}
			return JSONNode{Kind: JSONBool, Bool: b}, nil
		case "!!null":
			return JSONNode{Kind: JSONNull}, nil
		default:
			tpl, err := template.Parse(node.Value)
			if err != nil {
				return JSONNode{}, err
			}
			return JSONNode{Kind: JSONString, StringTemplate: tpl}, nil
		}
	case yaml.SequenceNode:
		arr := make([]JSONNode, 0, len(node.Content))
		for i, item := range node.Content {
			n, err := decodeJSONNode(item)
			if err != nil {
				return JSONNode{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr = append(arr, n)
		}
		return JSONNode{Kind: JSONArray, Array: arr}, nil
	case yaml.MappingNode:
		obj := orderedmap.New[JSONNode]()
		entries, err := mappingFields(node, "json object")
		if err != nil {
			return JSONNode{}, err
		}
		for _, key := range mappingKeys(node) {
			n, err := decodeJSONNode(entries[key])
			if err != nil {
				return JSONNode{}, fmt.Errorf("%q: %w", key, err)
			}
			obj.Set(key, n)
		}
		return JSONNode{Kind: JSONObject, Object: obj}, nil
	default:
		return JSONNode{}, fmt.Errorf("unsupported JSON node kind")
	}
}

func decodeAuthentication(node *yaml.Node) (*Authentication, error) {
	tag := explicitTag(node)
	fields, err := mappingFields(node, "authentication")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "!basic":
		auth := &Authentication{Kind: AuthBasic}
		if n, ok := fields["username"]; ok {
			tpl, err := decodeTemplateScalar(n)
			if err != nil {
				return nil, fmt.Errorf("!basic.username: %w", err)
			}
			auth.Username = tpl
		}
		if n, ok := fields["password"]; ok {
			tpl, err := decodeTemplateScalar(n)
			if err != nil {
				return nil, fmt.Errorf("!basic.password: %w", err)
			}
			auth.Password = tpl
		}
		return auth, nil
	case "!bearer":
		n, ok := fields["token"]
		if !ok {
			return nil, fmt.Errorf("!bearer: missing required field \"token\"")
		}
		tpl, err := decodeTemplateScalar(n)
		if err != nil {
			return nil, fmt.Errorf("!bearer.token: %w", err)
		}
		return &Authentication{Kind: AuthBearer, Token: tpl}, nil
	default:
		return nil, fmt.Errorf("unknown variant %q: expected one of basic|bearer", strings.TrimPrefix(tag, "!"))
	}
}
