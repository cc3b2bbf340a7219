package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investnotes/models"
)

func page(name string, num int, best string) *models.PageResult {
	return &models.PageResult{
		Filename:   name,
		PageNum:    num,
		Methods:    []string{"qwen-vl-max", "qwen-vl-ocr"},
		Results:    map[string]string{"qwen-vl-max": best, "qwen-vl-ocr": "[qwen-vl-ocr识别失败: x]"},
		BestMethod: "qwen-vl-max",
		BestText:   best,
	}
}

func TestSaveAndGet(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "data", "ocr.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	want := page("n_68.jpg", 1, "价值投资")
	require.NoError(t, s.SavePage(ctx, NewRunID(), want))

	got, err := s.GetPage(ctx, "n_68.jpg")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}

	_, err = s.GetPage(ctx, "missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveReplacesAndLists(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SavePage(ctx, "r1", page("n_70.jpg", 3, "三")))
	require.NoError(t, s.SavePage(ctx, "r1", page("n_68.jpg", 1, "一")))
	require.NoError(t, s.SavePage(ctx, "r2", page("n_68.jpg", 1, "一改")))

	pages, err := s.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "n_68.jpg", pages[0].Filename)
	assert.Equal(t, "一改", pages[0].BestText)
	assert.Equal(t, 3, pages[1].PageNum)
}

func TestNewRunIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
	assert.Len(t, NewRunID(), 36)
}
