package collection

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, doc string) *Collection {
	t.Helper()
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	return c
}

func TestLoad_empty(t *testing.T) {
	c := mustLoad(t, "")
	assert.Equal(t, "", c.Name)
	assert.Equal(t, 0, c.Profiles.Len())
}

func TestLoad_profilesAndScalarCoercion(t *testing.T) {
	doc := `
name: my collection
profiles:
  dev:
    name: Dev
    default: true
    fields:
      host: http://localhost:8080
      retries: 3
      verbose: true
`
	c := mustLoad(t, doc)
	assert.Equal(t, "my collection", c.Name)

	p, ok := c.ProfileByID("dev")
	require.True(t, ok)
	assert.True(t, p.Default)
	assert.Equal(t, "Dev", p.Name)

	retries, ok := p.Fields.Get("retries")
	require.True(t, ok)
	assert.Equal(t, "3", retries.String())

	verbose, ok := p.Fields.Get("verbose")
	require.True(t, ok)
	assert.Equal(t, "true", verbose.String())
}

func TestLoad_multipleDefaultProfilesRejected(t *testing.T) {
	doc := `
profiles:
  a:
    default: true
  b:
    default: true
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one profile may be default")
}

func TestLoad_chainRequestSource(t *testing.T) {
	doc := `
chains:
  auth_token:
    source: !request
      recipe: login
      trigger: expire
      expire: 1h
      section: header
      header: X-Auth-Token
    selector: $.token
    sensitive: true
    trim: both
`
	c := mustLoad(t, doc)
	chain, ok := c.ChainByID("auth_token")
	require.True(t, ok)
	assert.Equal(t, SourceRequest, chain.Source.Kind)
	assert.Equal(t, "login", chain.Source.RecipeID)
	assert.Equal(t, TriggerExpire, chain.Source.Trigger)
	assert.Equal(t, time.Hour, chain.Source.TriggerExpire)
	assert.Equal(t, SectionHeader, chain.Source.Section)
	assert.Equal(t, "X-Auth-Token", chain.Source.HeaderName.String())
	assert.Equal(t, "$.token", chain.Selector)
	assert.True(t, chain.Sensitive)
	assert.Equal(t, TrimBoth, chain.Trim)
}

func TestLoad_chainCommandSource(t *testing.T) {
	doc := `
chains:
  gen_uuid:
    source: !command
      command: ["uuidgen", "-r"]
      stdin: ""
`
	c := mustLoad(t, doc)
	chain, ok := c.ChainByID("gen_uuid")
	require.True(t, ok)
	assert.Equal(t, SourceCommand, chain.Source.Kind)
	require.Len(t, chain.Source.Argv, 2)
	assert.Equal(t, "uuidgen", chain.Source.Argv[0].String())
	assert.Equal(t, "-r", chain.Source.Argv[1].String())
}

func TestLoad_chainSourceUnknownTagRejected(t *testing.T) {
	doc := `
chains:
  bad:
    source: !bogus
      foo: bar
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant")
}

func TestLoad_selectFixedOptions(t *testing.T) {
	doc := `
chains:
  env_choice:
    source: !select
      message: Pick one
      options: [dev, staging, prod]
`
	c := mustLoad(t, doc)
	chain, ok := c.ChainByID("env_choice")
	require.True(t, ok)
	require.Len(t, chain.Source.SelectOptions.Fixed, 3)
	assert.Equal(t, "staging", chain.Source.SelectOptions.Fixed[1].String())
	assert.False(t, chain.Source.SelectOptions.Dynamic)
}

func TestLoad_selectDynamicOptions(t *testing.T) {
	doc := `
chains:
  env_choice:
    source: !select
      options: !dynamic
        source: '{{chains.envs_json}}'
        selector: $[*].name
`
	c := mustLoad(t, doc)
	chain, ok := c.ChainByID("env_choice")
	require.True(t, ok)
	assert.True(t, chain.Source.SelectOptions.Dynamic)
	assert.Equal(t, "$[*].name", chain.Source.SelectOptions.DynamicSelector)
}

func TestLoad_selectDynamicUnknownFieldRejected(t *testing.T) {
	doc := `
chains:
  env_choice:
    source: !select
      options: !dynamic
        source: '{{chains.envs_json}}'
        bogus: nope
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestLoad_requestsTreeWithFolders(t *testing.T) {
	doc := `
requests:
  auth:
    name: Auth
    requests:
      login:
        method: post
        url: '{{host}}/login'
        body: !json
          username: '{{username}}'
          password: '{{password}}'
  get_user:
    url: '{{host}}/users/{{user_id}}'
    query:
      - expand=true
      - expand=roles
    headers:
      Authorization: 'Bearer {{chains.auth_token}}'
`
	c := mustLoad(t, doc)

	folder, ok := c.FolderByID("auth")
	require.True(t, ok)
	assert.Equal(t, "Auth", folder.Name)

	login, ok := c.RecipeByID("login")
	require.True(t, ok)
	assert.Equal(t, "POST", login.Method)
	require.NotNil(t, login.Body)
	assert.Equal(t, BodyJSON, login.Body.Kind)

	getUser, ok := c.RecipeByID("get_user")
	require.True(t, ok)
	assert.Equal(t, "GET", getUser.Method)
	require.Len(t, getUser.Query, 2)
	assert.Equal(t, "expand", getUser.Query[0].Key)
	assert.Equal(t, "true", getUser.Query[0].Value.String())
	assert.Equal(t, "roles", getUser.Query[1].Value.String())

	require.Len(t, getUser.Headers, 1)
	assert.Equal(t, "Authorization", getUser.Headers[0].Key)
	assert.Equal(t, "Bearer {{chains.auth_token}}", getUser.Headers[0].Value.String())
}

func TestLoad_duplicateIDRejected(t *testing.T) {
	doc := `
requests:
  dup:
    requests:
      dup:
        url: 'http://x'
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate recipe/folder id")
}

func TestLoad_recipeMissingURLRejected(t *testing.T) {
	doc := `
requests:
  bad:
    method: get
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field \"url\"")
}

func TestLoad_authentication(t *testing.T) {
	doc := `
requests:
  secure:
    url: 'http://x'
    authentication: !bearer
      token: '{{chains.auth_token}}'
`
	c := mustLoad(t, doc)
	recipe, ok := c.RecipeByID("secure")
	require.True(t, ok)
	require.NotNil(t, recipe.Authentication)
	assert.Equal(t, AuthBearer, recipe.Authentication.Kind)
}

func TestLoad_invalidTrimPolicyRejected(t *testing.T) {
	doc := `
chains:
  c:
    source: !env
      variable: PATH
    trim: sideways
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid trim policy")
}
