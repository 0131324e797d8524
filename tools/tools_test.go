package tools_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/mocks/mocktools"
	"github.com/effective-security/agentloop/toolcall"
	"github.com/effective-security/agentloop/tools"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type AccountRequest struct {
	AccountID string `json:"account_id" validate:"required" jsonschema:"title=Account ID,description=The account identifier,example=1"`
}

type AccountInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SearchRequest struct {
	Query  string  `json:"query" validate:"required"`
	Limit  int     `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	Status *string `json:"status,omitempty"`
}

type NoParams struct{}

func accountTool(t *testing.T, name string, fn func(context.Context, *AccountRequest) (*AccountInfo, error)) tools.ITool {
	t.Helper()
	tool, err := tools.NewFunc(name, "Get account details", fn)
	require.NoError(t, err)
	return tool
}

func TestRegistry(t *testing.T) {
	r, err := tools.NewRegistry()
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Describe(toolcall.SyntaxJSON))
	assert.Empty(t, r.Describe(toolcall.SyntaxKeyValue))

	assert.EqualError(t, r.Register(nil), "tool is nil")

	ctrl := gomock.NewController(t)
	noName := mocktools.NewMockITool(ctrl)
	noName.EXPECT().Name().Return("").AnyTimes()
	assert.EqualError(t, r.Register(noName), "tool name is required")

	first := accountTool(t, "get_account_info", func(_ context.Context, in *AccountRequest) (*AccountInfo, error) {
		return &AccountInfo{ID: in.AccountID, Name: "first"}, nil
	})
	other := tools.MustFunc("get_accounts", "List accounts", func(_ context.Context, _ *NoParams) (*[]AccountInfo, error) {
		return &[]AccountInfo{}, nil
	})
	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(other))
	assert.Equal(t, []string{"get_account_info", "get_accounts"}, r.Names())

	tool, ok := r.Lookup("get_account_info")
	require.True(t, ok)
	assert.Same(t, first, tool)

	_, ok = r.Lookup("GET_ACCOUNT_INFO")
	assert.False(t, ok, "names are case-sensitive")

	second, err := tools.NewFunc("get_account_info", "Get account details, second version",
		func(_ context.Context, in *AccountRequest) (*AccountInfo, error) {
			return &AccountInfo{ID: in.AccountID, Name: "second"}, nil
		})
	require.NoError(t, err)
	require.NoError(t, r.Register(second))

	// replaced in place
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"get_account_info", "get_accounts"}, r.Names())
	tool, _ = r.Lookup("get_account_info")
	assert.Same(t, second, tool)
	assert.Equal(t, []tools.ITool{second, other}, r.Tools())

	catalog := r.Describe(toolcall.SyntaxJSON)
	assert.Contains(t, catalog, "- get_account_info: Get account details, second version")
	assert.NotContains(t, catalog, "- get_account_info: Get account details\n")
	assert.Equal(t, 1, strings.Count(catalog, "- get_account_info:"))

	res := tools.NewExecutor(r).Execute(context.Background(), "get_account_info", map[string]any{"account_id": "7"})
	require.True(t, res.Succeeded)
	assert.Equal(t, "{\n  \"id\": \"7\",\n  \"name\": \"second\"\n}", res.Output)
}

func TestRegistry_Describe(t *testing.T) {
	r, err := tools.NewRegistry(
		accountTool(t, "get_account_info", func(_ context.Context, in *AccountRequest) (*AccountInfo, error) {
			return nil, nil
		}),
		tools.MustFunc("get_accounts", "List accounts", func(_ context.Context, _ *NoParams) (*[]AccountInfo, error) {
			return nil, nil
		}),
	)
	require.NoError(t, err)

	exp := `You have access to the following tools:

- get_account_info: Get account details
  Parameters: {
  "properties": {
    "account_id": {
      "type": "string",
      "title": "Account ID",
      "description": "The account identifier",
      "examples": [
        "1"
      ]
    }
  },
  "type": "object",
  "required": [
    "account_id"
  ]
}
- get_accounts: List accounts

To use a tool, respond with: TOOL_CALL: {tool_name} {parameters_as_json}
Example: TOOL_CALL: get_account_info {"account_id":"1"}`

	catalog := r.Describe(toolcall.SyntaxJSON)
	if diff := cmp.Diff(exp, catalog); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
	// deterministic
	assert.Equal(t, catalog, r.Describe(toolcall.SyntaxJSON))

	kv := r.Describe(toolcall.SyntaxKeyValue)
	assert.True(t, strings.HasSuffix(kv, "Example: TOOL_CALL: get_account_info(account_id=\"1\")"), kv)
}

func TestExecutor_UnknownTool(t *testing.T) {
	r, err := tools.NewRegistry(
		accountTool(t, "get_account_info", func(_ context.Context, _ *AccountRequest) (*AccountInfo, error) {
			return nil, nil
		}),
		tools.MustFunc("get_accounts", "List accounts", func(_ context.Context, _ *NoParams) (*[]AccountInfo, error) {
			return nil, nil
		}),
	)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	cb := mocktools.NewMockCallback(ctrl)
	cb.EXPECT().OnToolNotFound(gomock.Any(), "nonexistent_tool").Times(1)

	var res tools.Result
	assert.NotPanics(t, func() {
		res = tools.NewExecutor(r, cb).Execute(context.Background(), "nonexistent_tool", map[string]any{})
	})
	assert.False(t, res.Succeeded)
	assert.Equal(t, "nonexistent_tool", res.ToolName)
	assert.Contains(t, res.Output, "get_account_info")
	assert.Contains(t, res.Output, "get_accounts")
	assert.Equal(t, "Error: Tool `nonexistent_tool` not found. Please check the tool name and try again with exact match. Available tools: get_account_info, get_accounts", res.Output)

	assert.True(t, tools.IsUnknownTool(res.Err))
	assert.False(t, tools.IsExecutionError(res.Err))
	assert.EqualError(t, res.Err, "tool `nonexistent_tool` not found, available tools: get_account_info, get_accounts")

	// nil parameters are accepted
	res = tools.NewExecutor(r).Execute(context.Background(), "missing", nil)
	assert.Equal(t, map[string]any{}, res.Parameters)
	assert.False(t, res.Succeeded)
}

func TestExecutor_Failures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	failing := mocktools.NewMockITool(ctrl)
	failing.EXPECT().Name().Return("failing").AnyTimes()
	failing.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is down")).Times(1)

	panicking := mocktools.NewMockITool(ctrl)
	panicking.EXPECT().Name().Return("panicking").AnyTimes()
	panicking.EXPECT().Call(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, map[string]any) (any, error) {
		panic("index out of range")
	}).Times(1)

	r, err := tools.NewRegistry(failing, panicking)
	require.NoError(t, err)

	cb := mocktools.NewMockCallback(ctrl)
	cb.EXPECT().OnToolStart(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
	cb.EXPECT().OnToolError(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(2)

	exec := tools.NewExecutor(r, cb)
	assert.Same(t, r, exec.Registry())

	res := exec.Execute(ctx, "failing", map[string]any{"x": 1})
	assert.False(t, res.Succeeded)
	assert.Equal(t, "Error executing tool 'failing': database is down", res.Output)
	assert.True(t, tools.IsExecutionError(res.Err))
	assert.EqualError(t, res.Err, "failed to call tool failing: database is down")

	res = exec.Execute(ctx, "panicking", nil)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "Error executing tool 'panicking': panic: index out of range", res.Output)
}

func TestExecutor_Success(t *testing.T) {
	ctrl := gomock.NewController(t)

	text := mocktools.NewMockITool(ctrl)
	text.EXPECT().Name().Return("text").AnyTimes()
	text.EXPECT().Call(gomock.Any(), map[string]any{"q": "acme"}).Return("No opportunities found.", nil).Times(1)

	r, err := tools.NewRegistry(text)
	require.NoError(t, err)

	cb := mocktools.NewMockCallback(ctrl)
	gomock.InOrder(
		cb.EXPECT().OnToolStart(gomock.Any(), text, map[string]any{"q": "acme"}),
		cb.EXPECT().OnToolEnd(gomock.Any(), text, map[string]any{"q": "acme"}, "No opportunities found."),
	)

	res := tools.NewExecutor(r, cb).Execute(context.Background(), "text", map[string]any{"q": "acme"})
	assert.Equal(t, tools.Result{
		ToolName:   "text",
		Parameters: map[string]any{"q": "acme"},
		Output:     "No opportunities found.",
		Succeeded:  true,
	}, res)
}

func TestFunc(t *testing.T) {
	ctx := context.Background()

	var got SearchRequest
	search, err := tools.NewFunc("search", "Search", func(_ context.Context, in *SearchRequest) (*[]string, error) {
		got = *in
		return &[]string{in.Query}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "search", search.Name())
	assert.Equal(t, "Search", search.Description())
	require.NotNil(t, search.Parameters())
	assert.Equal(t, []string{"query"}, search.Parameters().Required)

	t.Run("weak typing", func(t *testing.T) {
		out, err := search.Call(ctx, map[string]any{"query": "acme", "limit": "5", "status": nil})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, out)
		assert.Equal(t, SearchRequest{Query: "acme", Limit: 5}, got)

		_, err = search.Call(ctx, map[string]any{"query": "acme", "limit": float64(10)})
		require.NoError(t, err)
		assert.Equal(t, 10, got.Limit)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := search.Call(ctx, map[string]any{"query": "acme", "account": "1"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, tools.ErrInvalidParameters))
		assert.Contains(t, err.Error(), "account")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := search.Call(ctx, map[string]any{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, tools.ErrInvalidParameters))
		assert.EqualError(t, err, "invalid parameters: query failed on required")

		_, err = search.Call(ctx, map[string]any{"query": "acme", "limit": 100})
		assert.EqualError(t, err, "invalid parameters: limit failed on max")

		_, err = search.Run(ctx, nil)
		assert.EqualError(t, err, "invalid parameters: query failed on required")
	})

	t.Run("function error", func(t *testing.T) {
		failing := tools.MustFunc("failing", "", func(_ context.Context, _ *NoParams) (*string, error) {
			return nil, fmt.Errorf("connection refused")
		})
		_, err := failing.Call(ctx, nil)
		assert.EqualError(t, err, "connection refused")
	})

	t.Run("nil output", func(t *testing.T) {
		empty := tools.MustFunc("empty", "", func(_ context.Context, _ *NoParams) (*string, error) {
			return nil, nil
		})
		out, err := empty.Call(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, out)

		r, err := tools.NewRegistry(empty)
		require.NoError(t, err)
		res := tools.NewExecutor(r).Execute(ctx, "empty", nil)
		assert.True(t, res.Succeeded)
		assert.Equal(t, "null", res.Output)
	})

	t.Run("setup errors", func(t *testing.T) {
		_, err := tools.NewFunc[NoParams, string](" ", "", func(context.Context, *NoParams) (*string, error) { return nil, nil })
		assert.EqualError(t, err, "tool name is required")

		_, err = tools.NewFunc[NoParams, string]("x", "", nil)
		assert.EqualError(t, err, "tool x: function is required")

		_, err = tools.NewFunc("x", "", func(context.Context, *string) (*string, error) { return nil, nil })
		assert.EqualError(t, err, "tool x: parameters must be a struct: string")

		assert.Panics(t, func() {
			tools.MustFunc[NoParams, string]("", "", nil)
		})
	})
}
