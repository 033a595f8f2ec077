package docx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benature/larkgo/lark"
)

func newTestClient(t *testing.T, handler http.Handler, documentID string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := lark.NewClient(context.Background(), lark.Config{
		UserAccessToken: "u-test",
		BaseURL:         srv.URL,
	})
	require.NoError(t, err)
	return New(client, documentID)
}

func TestBlockTypeValues(t *testing.T) {
	assert.Equal(t, 1, int(BlockTypePage))
	assert.Equal(t, 2, int(BlockTypeText))
	assert.Equal(t, 3, int(BlockTypeHeading1))
	assert.Equal(t, 11, int(BlockTypeHeading9))
	assert.Equal(t, 12, int(BlockTypeBullet))
	assert.Equal(t, 14, int(BlockTypeCode))
	assert.Equal(t, 17, int(BlockTypeTodo))
	assert.Equal(t, 22, int(BlockTypeDivider))
	assert.Equal(t, 34, int(BlockTypeUndefined))
	assert.Equal(t, 46, int(BlockTypeEmbedPage))
}

func TestCreateDocument_BindsDocumentID(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/docx/v1/documents", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"document":{"document_id":"doccn123","revision_id":1,"title":"notes"}}}`))
	}), "")

	env, err := c.CreateDocument(context.Background(), "notes", "")
	require.NoError(t, err)
	require.True(t, env.Ok())

	assert.Equal(t, "notes", gotBody["title"])
	assert.NotContains(t, gotBody, "folder_token")
	assert.Equal(t, "doccn123", c.DocumentID())
}

func TestCreateDocument_RejectionLeavesUnbound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":99991663,"msg":"permission denied"}`))
	}), "")

	env, err := c.CreateDocument(context.Background(), "notes", "")
	require.NoError(t, err)
	assert.False(t, env.Ok())
	assert.Empty(t, c.DocumentID())
}

func TestBlockOpsRequireDocument(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	}), "")

	_, err := c.CreateTextBlock(context.Background(), "hi", BlockOptions{})
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = c.GetBlock(context.Background(), "blk1", BlockOptions{})
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = c.DeleteBlocks(context.Background(), 0, 1, BlockOptions{})
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestCreateBlocks_DefaultsToRootAndAppend(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"children":[]}}`))
	}), "doccn123")

	_, err := c.CreateTextBlock(context.Background(), "hello", BlockOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/docx/v1/documents/doccn123/blocks/doccn123/children", gotPath)
	assert.Equal(t, "document_revision_id=-1", gotQuery)
	assert.Equal(t, float64(-1), gotBody["index"])

	children := gotBody["children"].([]any)
	require.Len(t, children, 1)
	block := children[0].(map[string]any)
	assert.Equal(t, float64(BlockTypeText), block["block_type"])
}

func TestCreateBlocks_ExplicitParentAndIndex(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{}}`))
	}), "doccn123")

	idx := 0
	_, err := c.CreateBlocks(context.Background(), []Block{BulletBlock("first")},
		BlockOptions{BlockID: "blk_parent", Index: &idx})
	require.NoError(t, err)

	assert.Equal(t, "/docx/v1/documents/doccn123/blocks/blk_parent/children", gotPath)
	assert.Equal(t, float64(0), gotBody["index"])
}

func TestHeadingBlock_LevelsAndBounds(t *testing.T) {
	block, err := HeadingBlock("intro", 3)
	require.NoError(t, err)
	assert.Equal(t, int(BlockTypeHeading3), block["block_type"])
	assert.Contains(t, block, "heading3")

	for _, level := range []int{0, 10, -1} {
		_, err := HeadingBlock("bad", level)
		assert.ErrorIs(t, err, ErrHeadingLevel, "level %d", level)
	}
}

func TestCreateHeadingBlock_RejectsBadLevelBeforeNetwork(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	}), "doccn123")

	_, err := c.CreateHeadingBlock(context.Background(), "bad", 12, BlockOptions{})
	assert.ErrorIs(t, err, ErrHeadingLevel)
}

func TestBlockBuilders(t *testing.T) {
	assert.Contains(t, TodoBlock("ship it", true), "todo")
	todo := TodoBlock("ship it", true)["todo"].(map[string]any)
	assert.Equal(t, map[string]any{"done": true}, todo["style"])

	code := CodeBlock("fmt.Println(1)", 0)["code"].(map[string]any)
	assert.Empty(t, code["style"])

	divider := DividerBlock()
	assert.Equal(t, int(BlockTypeDivider), divider["block_type"])
	assert.Contains(t, divider, "divider")

	quote := QuoteBlock("as they say")
	assert.Equal(t, int(BlockTypeQuote), quote["block_type"])

	ordered := OrderedBlock("step one")
	assert.Equal(t, int(BlockTypeOrdered), ordered["block_type"])
}

func TestAllBlocks_Paginates(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/docx/v1/documents/doccn123/blocks/doccn123/children", r.URL.Path)

		if r.URL.Query().Get("page_token") == "" {
			// Full first page keeps the walk going despite the short-page rule
			// only applying against the requested size.
			items := make([]string, 500)
			for i := range items {
				items[i] = fmt.Sprintf(`{"block_id":"blk%d","block_type":2}`, i)
			}
			fmt.Fprintf(w, `{"code":0,"msg":"success","data":{"items":[%s],"has_more":true,"page_token":"p2"}}`,
				strings.Join(items, ","))
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{"items":[{"block_id":"last","block_type":2}],"has_more":false,"page_token":""}}`))
	}), "doccn123")

	blocks, err := c.AllBlocks(context.Background(), "", BlockOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Len(t, blocks, 501)
	assert.Equal(t, "last", blocks[500]["block_id"])
}

func TestDeleteBlocks_Range(t *testing.T) {
	var gotBody map[string]any
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{}}`))
	}), "doccn123")

	_, err := c.DeleteBlocks(context.Background(), 0, 2, BlockOptions{})
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/docx/v1/documents/doccn123/blocks/doccn123/children/batch_delete", gotPath)
	assert.Equal(t, float64(0), gotBody["start_index"])
	assert.Equal(t, float64(2), gotBody["end_index"])
}

func TestBatchUpdateBlocks(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"code":0,"msg":"success","data":{}}`))
	}), "doccn123")

	_, err := c.BatchUpdateBlocks(context.Background(), []map[string]any{
		{"block_id": "blk1", "replace_text": map[string]any{}},
	}, BlockOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/docx/v1/documents/doccn123/blocks/batch_update", gotPath)
	requests := gotBody["requests"].([]any)
	require.Len(t, requests, 1)
}
